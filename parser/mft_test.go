package parser

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/go-mft/internal/testutil"
)

func collectAttributes(entry *MFT_ENTRY) ([]*NTFS_ATTRIBUTE, []error) {
	var attrs []*NTFS_ATTRIBUTE
	var errs []error

	it := entry.Attributes()
	for {
		attr, err := it.Next()
		if errors.Is(err, io.EOF) {
			return attrs, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		attrs = append(attrs, attr)
	}
}

func TestParseMFTEntryHeader(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.MFTRecord().Bytes(), 0, 512)
	require.NoError(t, err)

	assert.Equal(t, int64(0), entry.EntryId())
	assert.Equal(t, "FILE", entry.Magic())
	assert.Equal(t, uint16(0x30), entry.Fixup_offset())
	assert.Equal(t, uint16(3), entry.Fixup_count())
	assert.Equal(t, uint16(1), entry.Sequence_value())
	assert.Equal(t, uint16(1), entry.Link_count())
	assert.Equal(t, uint16(0x38), entry.Attribute_offset())
	assert.Equal(t, uint32(0x1A0), entry.Mft_entry_size())
	assert.Equal(t, uint32(1024), entry.Mft_entry_allocated())
	assert.True(t, entry.IsAllocated())
	assert.False(t, entry.IsDir())
	assert.False(t, entry.IsExtension())
	assert.False(t, entry.IsCorrupt())
	assert.Equal(t, []string{"ALLOCATED"}, entry.Flags().Names())

	record_number, ok := entry.Record_number()
	assert.True(t, ok)
	assert.Equal(t, uint32(0), record_number)

	// Base records refer to themselves.
	assert.Equal(t, FileReference{Entry: 0, Sequence: 1}, entry.BaseReference())
}

func TestMFTEntryHasExactlyFourAttributes(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.MFTRecord().Bytes(), 0, 512)
	require.NoError(t, err)

	attrs, errs := collectAttributes(entry)
	assert.Empty(t, errs)
	require.Equal(t, 4, len(attrs))

	types := []AttributeType{}
	for _, attr := range attrs {
		types = append(types, attr.Type())
	}
	assert.Equal(t, []AttributeType{
		ATTR_TYPE_STANDARD_INFORMATION, ATTR_TYPE_FILE_NAME,
		ATTR_TYPE_DATA, ATTR_TYPE_BITMAP}, types)

	assert.True(t, attrs[0].IsResident())
	assert.NotNil(t, attrs[0].Resident)
	assert.Nil(t, attrs[0].NonResident)

	assert.False(t, attrs[2].IsResident())
	assert.Nil(t, attrs[2].Resident)
	assert.NotNil(t, attrs[2].NonResident)

	file_names := entry.FileName()
	require.Equal(t, 1, len(file_names))
	assert.Equal(t, "$MFT", file_names[0].Name())
}

func TestUnknownAttributeTypeIsKept(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.FileRecord().Bytes(), 3, 512)
	require.NoError(t, err)

	attrs, errs := collectAttributes(entry)
	assert.Empty(t, errs)
	require.Equal(t, 5, len(attrs))

	unknown := attrs[4]
	assert.Equal(t, AttributeType(testutil.UNKNOWN_TYPE), unknown.Type())
	assert.Equal(t, "Unknown(0x4000)", unknown.Type().Name())

	content, err := unknown.Content()
	require.NoError(t, err)
	raw, ok := content.(*RawContent)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, raw.Data())

	ads := attrs[3]
	assert.Equal(t, "Zone.Identifier", ads.Name())
	assert.Equal(t, int64(14), ads.DataSize())
}

func TestZeroedAndGarbageRecords(t *testing.T) {
	_, err := ParseMFTEntry(testutil.ZeroRecord(), 1, 512)
	assert.True(t, errors.Is(err, UnusedSlotError))
	assert.True(t, IsUnusedSlot(err))
	assert.False(t, IsFatal(err))

	_, err = ParseMFTEntry(testutil.GarbageRecord(0xAB), 2, 512)
	assert.True(t, errors.Is(err, InvalidSignatureError))
	assert.True(t, IsUnusedSlot(err))

	var parse_error *ParseError
	require.True(t, errors.As(err, &parse_error))
	assert.Equal(t, int64(2), parse_error.EntryId)
	assert.Equal(t, int64(2048), parse_error.Offset)
}

func TestMalformedHeader(t *testing.T) {
	_, err := ParseMFTEntry(testutil.BadHeaderRecord(), 7, 512)
	assert.True(t, errors.Is(err, MalformedHeaderError))
	assert.False(t, IsFatal(err))

	// First attribute inside the header.
	buf := testutil.MFTRecord().Bytes()
	binary.LittleEndian.PutUint16(buf[0x14:], 0x10)
	_, err = ParseMFTEntry(buf, 0, 512)
	assert.True(t, errors.Is(err, MalformedHeaderError))

	// Shorter than the header.
	_, err = ParseMFTEntry([]byte("FILE0000"), 0, 512)
	assert.True(t, errors.Is(err, MalformedHeaderError))
}

func TestTornRecordStillParses(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.TornRecord(), 5, 512)
	require.NoError(t, err)
	assert.True(t, entry.IsCorrupt())
	assert.Equal(t, []int{1}, entry.Fixup().Mismatched)

	attrs, errs := collectAttributes(entry)
	assert.Empty(t, errs)
	assert.Equal(t, 2, len(attrs))
}

func TestBadAttributeLengthStopsEntry(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.BadAttributeRecord(), 6, 512)
	require.NoError(t, err)

	attrs, errs := collectAttributes(entry)
	require.Equal(t, 1, len(attrs))
	assert.Equal(t, ATTR_TYPE_STANDARD_INFORMATION, attrs[0].Type())

	// The error is reported once and the $DATA after it is not
	// reached.
	require.Equal(t, 1, len(errs))
	assert.True(t, errors.Is(errs[0], MalformedAttributeError))

	var parse_error *ParseError
	require.True(t, errors.As(errs[0], &parse_error))
	assert.Equal(t, int64(6), parse_error.EntryId)
	assert.Equal(t, int64(0x98), parse_error.Offset)

	// EnumerateAttributes skips the error.
	assert.Equal(t, 1, len(entry.EnumerateAttributes()))
}

func TestAttributeErrors(t *testing.T) {
	build := func() (*testutil.Record, []byte) {
		record := testutil.NewRecord(3)
		record.AddAttribute(testutil.ResidentAttribute(
			testutil.DATA, 0, "", []byte("first")))
		record.AddAttribute(testutil.ResidentAttribute(
			testutil.DATA, 1, "", []byte("second")))
		return record, record.Bytes()
	}

	t.Run("zero length", func(t *testing.T) {
		record, buf := build()
		binary.LittleEndian.PutUint32(buf[record.AttributeOffset(0)+4:], 0)
		entry, err := ParseMFTEntry(buf, 3, 512)
		require.NoError(t, err)

		attrs, errs := collectAttributes(entry)
		assert.Equal(t, 0, len(attrs))
		require.Equal(t, 1, len(errs))
		assert.True(t, errors.Is(errs[0], MalformedAttributeError))
	})

	t.Run("unaligned length", func(t *testing.T) {
		record, buf := build()
		binary.LittleEndian.PutUint32(buf[record.AttributeOffset(0)+4:], 0x21)
		entry, err := ParseMFTEntry(buf, 3, 512)
		require.NoError(t, err)

		attrs, errs := collectAttributes(entry)
		assert.Equal(t, 0, len(attrs))
		require.Equal(t, 1, len(errs))
		assert.True(t, errors.Is(errs[0], MalformedAttributeError))
	})

	t.Run("content outside attribute", func(t *testing.T) {
		// The length of the first attribute is intact so the
		// second one is still decoded.
		record, buf := build()
		binary.LittleEndian.PutUint32(buf[record.AttributeOffset(0)+0x10:], 0x100)
		entry, err := ParseMFTEntry(buf, 3, 512)
		require.NoError(t, err)

		attrs, errs := collectAttributes(entry)
		require.Equal(t, 1, len(errs))
		assert.True(t, errors.Is(errs[0], MalformedContentError))
		require.Equal(t, 1, len(attrs))
		assert.Equal(t, uint16(1), attrs[0].Attribute_id())
	})

	t.Run("content overlaps header", func(t *testing.T) {
		record, buf := build()
		binary.LittleEndian.PutUint16(buf[record.AttributeOffset(0)+0x14:], 0x10)
		entry, err := ParseMFTEntry(buf, 3, 512)
		require.NoError(t, err)

		attrs, errs := collectAttributes(entry)
		require.Equal(t, 1, len(errs))
		assert.True(t, errors.Is(errs[0], MalformedContentError))
		require.Equal(t, 1, len(attrs))
		assert.Equal(t, uint16(1), attrs[0].Attribute_id())
	})

	t.Run("missing end marker", func(t *testing.T) {
		// Without an end marker the used size ends the stream.
		record, buf := build()
		end := record.AttributeOffset(2)
		binary.LittleEndian.PutUint32(buf[end:], 0)
		binary.LittleEndian.PutUint32(buf[0x18:], uint32(end))
		entry, err := ParseMFTEntry(buf, 3, 512)
		require.NoError(t, err)

		attrs, errs := collectAttributes(entry)
		assert.Empty(t, errs)
		assert.Equal(t, 2, len(attrs))
	})
}

func TestIteratorDoneAfterEOF(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.MFTRecord().Bytes(), 0, 512)
	require.NoError(t, err)

	it := entry.Attributes()
	for i := 0; i < 4; i++ {
		_, err := it.Next()
		require.NoError(t, err)
		assert.False(t, it.Done())
	}

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
	assert.True(t, it.Done())

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodingIsIdempotent(t *testing.T) {
	raw := testutil.DirectoryRecord().Bytes()

	first, err := ParseMFTEntry(append([]byte{}, raw...), 4, 512)
	require.NoError(t, err)
	second, err := ParseMFTEntry(append([]byte{}, raw...), 4, 512)
	require.NoError(t, err)

	assert.Equal(t, first.DebugString(), second.DebugString())

	first_attrs := first.EnumerateAttributes()
	second_attrs := second.EnumerateAttributes()
	require.Equal(t, len(first_attrs), len(second_attrs))

	for idx := range first_attrs {
		assert.Equal(t, first_attrs[idx].Bytes(), second_attrs[idx].Bytes())

		first_content, err := first_attrs[idx].Content()
		require.NoError(t, err)
		second_content, err := second_attrs[idx].Content()
		require.NoError(t, err)
		first_json, err := json.Marshal(first_content.Dict())
		require.NoError(t, err)
		second_json, err := json.Marshal(second_content.Dict())
		require.NoError(t, err)
		assert.Equal(t, string(first_json), string(second_json))
	}

	// Decoding the same attribute twice gives the same result.
	again, err := first_attrs[0].Content()
	require.NoError(t, err)
	content, err := first_attrs[0].Content()
	require.NoError(t, err)
	assert.Equal(t, content, again)
}

func TestGetAttribute(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.FileRecord().Bytes(), 3, 512)
	require.NoError(t, err)

	attr, err := entry.GetAttribute(ATTR_TYPE_DATA, -1, "Zone.Identifier")
	require.NoError(t, err)
	assert.Equal(t, uint16(4), attr.Attribute_id())

	attr, err = entry.GetAttribute(ATTR_TYPE_DATA, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), attr.Resident.Data())

	_, err = entry.GetAttribute(ATTR_TYPE_INDEX_ROOT, -1, "")
	assert.True(t, errors.Is(err, NotFoundError))
}
