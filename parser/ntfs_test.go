package parser_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/go-mft/internal/testutil"
	"www.velocidex.com/golang/go-mft/parser"
)

func writeSampleTable(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "$MFT")
	require.NoError(t, os.WriteFile(path, testutil.SampleTable(), 0o600))
	return path
}

// Walks the sample table the way a consumer of the package does:
// entries, then attributes, then decoded content.
func TestNTFS(t *testing.T) {
	mft, err := parser.OpenMFTFile(writeSampleTable(t), parser.GetDefaultOptions())
	require.NoError(t, err)
	defer mft.Close()

	assert.Equal(t, int64(testutil.SampleTableEntries), mft.EntryCount())

	names := make(map[int64][]string)
	kinds := make(map[int64]error)

	it := mft.Entries()
	for {
		id := it.NextEntryId()
		entry, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.False(t, parser.IsFatal(err), "fatal error %v", err)

		if err != nil {
			var parse_error *parser.ParseError
			require.True(t, errors.As(err, &parse_error))
			assert.Equal(t, id, parse_error.EntryId)
			kinds[id] = parse_error.Kind
			continue
		}

		assert.Equal(t, id, entry.EntryId())

		attrs := entry.Attributes()
		for {
			attr, err := attrs.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				continue
			}

			content, err := attr.Content()
			if err != nil {
				continue
			}

			switch c := content.(type) {
			case *parser.FILE_NAME:
				names[id] = append(names[id], c.Name())
			}
		}
	}

	assert.Equal(t, parser.StateExhausted, it.State())
	assert.NoError(t, it.Err())

	assert.Equal(t, map[int64][]string{
		testutil.MFTEntry:             {"$MFT"},
		testutil.FileEntry:            {"hello.txt"},
		testutil.DirectoryEntry:       {"Docs"},
		testutil.TornEntry:            {"torn.txt"},
		testutil.AttributeListEntryId: {"big.bin"},
	}, names)

	assert.Equal(t, map[int64]error{
		testutil.ZeroedEntry:    parser.UnusedSlotError,
		testutil.GarbageEntry:   parser.InvalidSignatureError,
		testutil.BadHeaderEntry: parser.MalformedHeaderError,
	}, kinds)

	stats := it.Stats().Snapshot()
	assert.Equal(t, int64(testutil.SampleTableEntries), stats.Records)
	assert.Equal(t, int64(7), stats.Entries)
	assert.Equal(t, int64(1), stats.CorruptFixups)
}

func TestTimestampsAreUTC(t *testing.T) {
	saved := time.Local
	defer func() { time.Local = saved }()
	time.Local = time.FixedZone("UTC+10", 10*60*60)

	entry, err := parser.ParseMFTEntry(testutil.FileRecord().Bytes(),
		testutil.FileEntry, testutil.SectorSize)
	require.NoError(t, err)

	si, err := entry.StandardInformation()
	require.NoError(t, err)

	for _, ts := range []parser.WinFileTime{
		si.Create_time(), si.File_altered_time(),
		si.Mft_altered_time(), si.File_accessed_time()} {
		value, err := ts.Time()
		require.NoError(t, err)
		assert.Equal(t, time.UTC, value.Location())
		assert.True(t, value.Equal(testutil.SampleTime))
	}

	file_names := entry.FileName()
	require.Equal(t, 1, len(file_names))
	for _, ts := range []parser.WinFileTime{
		file_names[0].Created(), file_names[0].File_modified(),
		file_names[0].Mft_modified(), file_names[0].File_accessed()} {
		value, err := ts.Time()
		require.NoError(t, err)
		_, offset := value.Zone()
		assert.Equal(t, 0, offset)
	}
}

// Parsing the same bytes twice gives the same structures.
func TestParseIsIdempotent(t *testing.T) {
	raw := testutil.DirectoryRecord().Bytes()

	first, err := parser.ParseMFTEntry(append([]byte{}, raw...),
		testutil.DirectoryEntry, testutil.SectorSize)
	require.NoError(t, err)

	second, err := parser.ParseMFTEntry(append([]byte{}, raw...),
		testutil.DirectoryEntry, testutil.SectorSize)
	require.NoError(t, err)

	assert.Equal(t, spew.Sdump(first), spew.Sdump(second))
	assert.Equal(t, first.Display(), second.Display())
}

func init() {
	time.Local = time.UTC
	spew.Config.DisablePointerAddresses = true
	spew.Config.SortKeys = true
}
