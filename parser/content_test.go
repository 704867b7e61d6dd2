package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/go-mft/internal/testutil"
)

func attributeContent(t *testing.T, record *testutil.Record, id int64,
	attr_type AttributeType) AttributeContent {
	entry, err := ParseMFTEntry(record.Bytes(), id, 512)
	require.NoError(t, err)

	attr, err := entry.GetAttribute(attr_type, -1, "")
	require.NoError(t, err)

	content, err := attr.Content()
	require.NoError(t, err)
	return content
}

func TestStandardInformation(t *testing.T) {
	content := attributeContent(t, testutil.MFTRecord(), 0,
		ATTR_TYPE_STANDARD_INFORMATION)
	si, ok := content.(*STANDARD_INFORMATION)
	require.True(t, ok)

	for _, ts := range []WinFileTime{
		si.Create_time(), si.File_altered_time(),
		si.Mft_altered_time(), si.File_accessed_time()} {
		value, err := ts.Time()
		require.NoError(t, err)
		assert.True(t, testutil.SampleTime.Equal(value))
		assert.Equal(t, time.UTC, value.Location())
	}

	assert.Equal(t, []string{"HIDDEN", "SYSTEM"}, si.Flags().Names())
	assert.True(t, si.IsExtended())
	assert.Equal(t, uint32(0x100), si.Security_id())
	assert.Equal(t, uint64(0x2000), si.Usn())
}

func TestStandardInformationShortLayout(t *testing.T) {
	data := testutil.StandardInformation(
		testutil.SameTimes(testutil.SampleTime), 0x80000001, false)
	si, err := DecodeSTANDARD_INFORMATION(data)
	require.NoError(t, err)

	// The NTFS 3.0 fields default to zero.
	assert.False(t, si.IsExtended())
	assert.Equal(t, uint32(0), si.Owner_id())
	assert.Equal(t, uint32(0), si.Security_id())
	assert.Equal(t, uint64(0), si.Quota_charged())
	assert.Equal(t, uint64(0), si.Usn())

	// Unknown flag bits are kept.
	assert.Equal(t, FileAttributeFlags(1), si.Flags().Known())
	assert.Equal(t, FileAttributeFlags(0x80000000), si.Flags().Unknown())
	assert.Equal(t, "READ_ONLY,0x80000000", si.Flags().String())

	_, err = DecodeSTANDARD_INFORMATION(data[:0x20])
	assert.True(t, errors.Is(err, MalformedContentError))
}

func TestStandardInformationTimestampOutOfRange(t *testing.T) {
	times := testutil.SameTimes(testutil.SampleTime)
	times[1] = 0xFFFFFFFFFFFFFFFF
	si, err := DecodeSTANDARD_INFORMATION(
		testutil.StandardInformation(times, 0, true))
	require.NoError(t, err)

	// Only the bad field fails.
	_, err = si.File_altered_time().Time()
	assert.True(t, errors.Is(err, TimestampOutOfRangeError))

	_, err = si.Create_time().Time()
	assert.NoError(t, err)
}

func TestFileName(t *testing.T) {
	content := attributeContent(t, testutil.MFTRecord(), 0, ATTR_TYPE_FILE_NAME)
	fn, ok := content.(*FILE_NAME)
	require.True(t, ok)

	assert.Equal(t, "$MFT", fn.Name())
	assert.Equal(t, NAME_TYPE_WIN32_DOS, fn.NameType())
	assert.Equal(t, "DOS+Win32", fn.NameType().Name())
	assert.Equal(t, uint64(5), fn.MftReference())
	assert.Equal(t, uint16(5), fn.Seq_num())
	assert.Equal(t, uint64(24*4096), fn.Size())
	assert.Equal(t, uint64(24*4096), fn.Allocated_size())

	created, err := fn.Created().Time()
	require.NoError(t, err)
	assert.Equal(t, "2021-03-04T05:06:07.1234567Z", created.Format(time.RFC3339Nano))
}

func TestFileNameTruncated(t *testing.T) {
	data := testutil.FileName{Name: "hello.txt"}.Bytes()

	// The name runs past the end.
	_, err := DecodeFILE_NAME(data[:len(data)-2])
	assert.True(t, errors.Is(err, MalformedContentError))

	_, err = DecodeFILE_NAME(data[:0x40])
	assert.True(t, errors.Is(err, MalformedContentError))
}

func TestMalformedContentKeepsEntryUsable(t *testing.T) {
	// A $FILE_NAME too short for its header.
	record := testutil.NewRecord(3)
	record.AddAttribute(testutil.ResidentAttribute(testutil.FILE_NAME, 0, "",
		make([]byte, 0x20)))
	record.AddAttribute(testutil.ResidentAttribute(testutil.DATA, 1, "",
		[]byte("still here")))

	entry, err := ParseMFTEntry(record.Bytes(), 3, 512)
	require.NoError(t, err)

	attrs := entry.EnumerateAttributes()
	require.Equal(t, 2, len(attrs))

	_, err = attrs[0].Content()
	assert.True(t, errors.Is(err, MalformedContentError))

	var parse_error *ParseError
	require.True(t, errors.As(err, &parse_error))
	assert.Equal(t, int64(3), parse_error.EntryId)

	content, err := attrs[1].Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("still here"), content.(*DATA).Data())

	// FileName() skips the broken attribute.
	assert.Empty(t, entry.FileName())
}

func TestObjectId(t *testing.T) {
	content := attributeContent(t, testutil.DirectoryRecord(), 4, ATTR_TYPE_OBJECT_ID)
	object_id, ok := content.(*OBJECT_ID)
	require.True(t, ok)

	assert.Equal(t, "00112233-4455-6677-8899-aabbccddeeff",
		object_id.ObjectId().String())
	assert.Nil(t, object_id.BirthVolumeId())
	assert.Nil(t, object_id.DomainId())

	full, err := DecodeOBJECT_ID(testutil.ObjectId(
		testutil.SampleGUID, testutil.SampleGUID,
		testutil.SampleGUID, testutil.SampleGUID))
	require.NoError(t, err)
	require.NotNil(t, full.DomainId())
	assert.Equal(t, full.ObjectId(), *full.DomainId())

	_, err = DecodeOBJECT_ID(make([]byte, 10))
	assert.True(t, errors.Is(err, MalformedContentError))
}

func TestIndexRoot(t *testing.T) {
	entry, err := ParseMFTEntry(testutil.DirectoryRecord().Bytes(), 4, 512)
	require.NoError(t, err)
	assert.True(t, entry.IsDir())

	attr, err := entry.GetAttribute(ATTR_TYPE_INDEX_ROOT, -1, "$I30")
	require.NoError(t, err)

	content, err := attr.Content()
	require.NoError(t, err)
	root, ok := content.(*INDEX_ROOT)
	require.True(t, ok)

	assert.Equal(t, ATTR_TYPE_FILE_NAME, root.Type())
	assert.Equal(t, uint32(4096), root.Index_record_size())
	assert.False(t, root.IsLarge())
	require.Equal(t, 2, len(root.Entries()))

	first := root.Entries()[0]
	assert.Equal(t, FileReference{Entry: 3, Sequence: 2}, first.MftReference())
	require.NotNil(t, first.File())
	assert.Equal(t, "hello.txt", first.File().Name())
	assert.Equal(t, uint64(11), first.File().Size())

	assert.True(t, root.Entries()[1].IsLast())
	assert.Nil(t, root.Entries()[1].File())

	files := root.Files()
	require.Equal(t, 1, len(files))
}

func TestIndexRootMalformed(t *testing.T) {
	data := testutil.IndexRoot(testutil.IndexEntry(0, nil, true))

	// Index length past the end of the content.
	data[0x14] = 0xFF
	_, err := DecodeINDEX_ROOT(data)
	assert.True(t, errors.Is(err, MalformedContentError))
}

func TestAttributeList(t *testing.T) {
	content := attributeContent(t, testutil.AttributeListRecord(),
		testutil.AttributeListEntryId, ATTR_TYPE_ATTRIBUTE_LIST)
	list, ok := content.(*ATTRIBUTE_LIST)
	require.True(t, ok)
	require.Equal(t, 4, len(list.Entries()))

	data := list.Entries()[3]
	assert.Equal(t, ATTR_TYPE_DATA, data.Type())
	assert.Equal(t, FileReference{Entry: testutil.ExtensionEntry, Sequence: 1},
		data.MftReference())
	assert.Equal(t, uint64(0), data.StartingVCN())
}

func TestAttributeListMalformed(t *testing.T) {
	data := testutil.AttributeListEntry(testutil.DATA, 0, 0, "")

	// Entry length smaller than its header.
	data[4] = 0x08
	_, err := DecodeATTRIBUTE_LIST(data)
	assert.True(t, errors.Is(err, MalformedContentError))

	// Zero padding at the end is fine.
	padded := append(testutil.AttributeListEntry(testutil.DATA, 0, 0, "x"),
		make([]byte, 8)...)
	list, err := DecodeATTRIBUTE_LIST(padded)
	require.NoError(t, err)
	require.Equal(t, 1, len(list.Entries()))
	assert.Equal(t, "x", list.Entries()[0].Name())
}

func TestVolumeName(t *testing.T) {
	record := testutil.NewRecord(3)
	record.AddAttribute(testutil.ResidentAttribute(testutil.VOLUME_NAME, 0, "",
		testutil.UTF16("Windows")))

	content := attributeContent(t, record, 3, ATTR_TYPE_VOLUME_NAME)
	assert.Equal(t, "Windows", content.(*VOLUME_NAME).Name())
}

func TestNonResidentContentIsRunList(t *testing.T) {
	content := attributeContent(t, testutil.ExtensionRecord(), 8, ATTR_TYPE_DATA)
	runs, ok := content.(DataRunList)
	require.True(t, ok)
	assert.Equal(t, 3, len(runs))
	assert.Equal(t, uint64(20), ClusterCount(runs))
}
