package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/go-mft/internal/testutil"
)

func TestDecodeDataRuns(t *testing.T) {
	runs, err := DecodeDataRuns([]byte{
		// 0x18 clusters at 0x5634
		0x21, 0x18, 0x34, 0x56,
		// 0x10 clusters, back 0x10 clusters
		0x11, 0x10, 0xF0,
		0x00,
	})
	require.NoError(t, err)
	require.Equal(t, 2, len(runs))

	assert.Equal(t, DataRun{
		Length: 0x18, RelativeLCNOffset: 0x5634, LCN: 0x5634, VCN: 0}, runs[0])
	assert.Equal(t, DataRun{
		Length: 0x10, RelativeLCNOffset: -0x10, LCN: 0x5624, VCN: 0x18}, runs[1])
}

func TestDecodeDataRunsSparse(t *testing.T) {
	runs, err := DecodeDataRuns(testutil.EncodeRuns(
		testutil.Run{Length: 4, Offset: 0x2000},
		testutil.Run{Length: 12, Sparse: true},
		testutil.Run{Length: 4, Offset: 0x10}))
	require.NoError(t, err)
	require.Equal(t, 3, len(runs))

	assert.False(t, runs[0].IsSparse)
	assert.True(t, runs[1].IsSparse)
	assert.Equal(t, uint64(4), runs[1].VCN)

	// The run after a sparse run is relative to the last real run.
	assert.Equal(t, int64(0x2010), runs[2].LCN)
	assert.Equal(t, uint64(16), runs[2].VCN)
	assert.Equal(t, uint64(20), ClusterCount(runs))
}

func TestDataRunsMatchAllocatedSize(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.MFTRecord().Bytes(), 0, 512)
	require.NoError(t, err)

	for _, attr := range entry.EnumerateAttributes() {
		if attr.IsResident() {
			continue
		}

		runs, err := attr.NonResident.DataRuns()
		require.NoError(t, err)

		clusters := attr.NonResident.AllocatedSize / testutil.ClusterSize
		assert.Equal(t, clusters, ClusterCount(runs), attr.Type().Name())
		assert.Equal(t, clusters, attr.NonResident.ClusterCount())
		assert.Equal(t, attr.NonResident.VCNCount(), ClusterCount(runs))
	}
}

func TestDecodeDataRunsTerminators(t *testing.T) {
	// An empty list.
	runs, err := DecodeDataRuns([]byte{0x00, 0x11, 0x01, 0x01})
	require.NoError(t, err)
	assert.Empty(t, runs)

	// A zero length run ends the list.
	runs, err = DecodeDataRuns([]byte{0x11, 0x01, 0x01, 0x11, 0x00, 0x05})
	require.NoError(t, err)
	assert.Equal(t, 1, len(runs))

	// So does the end of the buffer.
	runs, err = DecodeDataRuns([]byte{0x11, 0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 1, len(runs))
}

func TestDecodeDataRunsErrors(t *testing.T) {
	for _, test_case := range []struct {
		name   string
		runs   []byte
		decode int
	}{
		{"truncated", []byte{0x31, 0x01, 0x00}, 0},
		{"length size 0", []byte{0x10, 0x01}, 0},
		{"field larger than 8 bytes", []byte{0x19, 0x01}, 0},
		{"negative LCN", []byte{0x11, 0x01, 0x10, 0x11, 0x01, 0xE0}, 1},
	} {
		runs, err := DecodeDataRuns(test_case.runs)
		assert.True(t, errors.Is(err, MalformedContentError), test_case.name)
		assert.Equal(t, test_case.decode, len(runs), test_case.name)
	}
}

func TestNonResidentContentError(t *testing.T) {
	record := testutil.NewRecord(8)
	record.AddAttribute(testutil.NonResidentAttribute(testutil.DATA, 0, "",
		testutil.NonResident{
			AllocatedSize: 4096,
			Runs:          []byte{0x11, 0x01, 0xF0, 0x00},
		}))

	entry, err := ParseMFTEntry(record.Bytes(), 8, 512)
	require.NoError(t, err)

	attrs, errs := collectAttributes(entry)
	assert.Empty(t, errs)
	require.Equal(t, 1, len(attrs))

	// The attribute itself is fine, its run list is not.
	_, err = attrs[0].Content()
	assert.True(t, errors.Is(err, MalformedContentError))
}
