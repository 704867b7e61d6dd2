package testutil

import (
	"time"
)

// Attribute type codes used by the fixtures.
const (
	STANDARD_INFORMATION = 0x10
	ATTRIBUTE_LIST       = 0x20
	FILE_NAME            = 0x30
	OBJECT_ID            = 0x40
	VOLUME_NAME          = 0x60
	DATA                 = 0x80
	INDEX_ROOT           = 0x90
	BITMAP               = 0xB0

	// Not defined by NTFS.
	UNKNOWN_TYPE = 0x4000

	ClusterSize = 4096
)

// SampleTime is the timestamp of every fixture record.
var SampleTime = time.Date(2021, 3, 4, 5, 6, 7, 123456700, time.UTC)

// Slot indexes of SampleTable().
const (
	MFTEntry             = 0
	ZeroedEntry          = 1
	GarbageEntry         = 2
	FileEntry            = 3
	DirectoryEntry       = 4
	TornEntry            = 5
	BadAttributeEntry    = 6
	BadHeaderEntry       = 7
	ExtensionEntry       = 8
	AttributeListEntryId = 9

	SampleTableEntries = 10
)

// SampleGUID is the object id of the directory.
var SampleGUID = [16]byte{
	0x33, 0x22, 0x11, 0x00, 0x55, 0x44, 0x77, 0x66,
	0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

func sampleSI(flags uint32) []byte {
	return ResidentAttribute(STANDARD_INFORMATION, 0, "",
		StandardInformation(SameTimes(SampleTime), flags, true))
}

func sampleFN(id uint16, parent uint64, name string, namespace uint8, size uint64) []byte {
	return ResidentAttribute(FILE_NAME, id, "", FileName{
		Parent:        parent,
		Times:         SameTimes(SampleTime),
		AllocatedSize: size,
		RealSize:      size,
		Flags:         0x20,
		Namespace:     namespace,
		Name:          name,
	}.Bytes())
}

// MFTRecord is the first record of a volume: $MFT itself with
// exactly 4 attributes.
func MFTRecord() *Record {
	record := NewRecord(0)
	record.AddAttribute(ResidentAttribute(STANDARD_INFORMATION, 0, "",
		StandardInformation(SameTimes(SampleTime), 0x6, true)))
	record.AddAttribute(ResidentAttribute(FILE_NAME, 3, "", FileName{
		Parent:        Reference(5, 5),
		Times:         SameTimes(SampleTime),
		AllocatedSize: 24 * ClusterSize,
		RealSize:      24 * ClusterSize,
		Flags:         0x6,
		Namespace:     3,
		Name:          "$MFT",
	}.Bytes()))
	record.AddAttribute(NonResidentAttribute(DATA, 1, "", NonResident{
		LastVCN:         23,
		AllocatedSize:   24 * ClusterSize,
		RealSize:        24 * ClusterSize,
		InitializedSize: 24 * ClusterSize,
		Runs: EncodeRuns(
			Run{Length: 16, Offset: 0xC0000},
			Run{Length: 8, Offset: -0x1000}),
	}))
	record.AddAttribute(NonResidentAttribute(BITMAP, 5, "", NonResident{
		LastVCN:         0,
		AllocatedSize:   ClusterSize,
		RealSize:        8,
		InitializedSize: 8,
		Runs:            EncodeRuns(Run{Length: 1, Offset: 0xBFFFF}),
	}))
	return record
}

// FileRecord is hello.txt with a Zone.Identifier stream and an
// attribute of an unknown type.
func FileRecord() *Record {
	record := NewRecord(FileEntry)
	record.Sequence = 2
	record.AddAttribute(sampleSI(0x20))
	record.AddAttribute(sampleFN(2, Reference(5, 5), "hello.txt", 1, 11))
	record.AddAttribute(ResidentAttribute(DATA, 3, "", []byte("hello world")))
	record.AddAttribute(ResidentAttribute(DATA, 4, "Zone.Identifier",
		[]byte("[ZoneTransfer]")))
	record.AddAttribute(ResidentAttribute(UNKNOWN_TYPE, 5, "", []byte{1, 2, 3, 4}))
	return record
}

// DirectoryRecord is the Docs directory holding hello.txt.
func DirectoryRecord() *Record {
	record := NewRecord(DirectoryEntry)
	record.Flags = 0x3
	record.AddAttribute(sampleSI(0x10000000))
	record.AddAttribute(sampleFN(1, Reference(5, 5), "Docs", 3, 0))
	record.AddAttribute(ResidentAttribute(OBJECT_ID, 2, "", ObjectId(SampleGUID)))

	key := FileName{
		Parent:        Reference(DirectoryEntry, 1),
		Times:         SameTimes(SampleTime),
		AllocatedSize: 16,
		RealSize:      11,
		Flags:         0x20,
		Namespace:     1,
		Name:          "hello.txt",
	}.Bytes()
	record.AddAttribute(ResidentAttribute(INDEX_ROOT, 3, "$I30", IndexRoot(
		IndexEntry(Reference(FileEntry, 2), key, false),
		IndexEntry(0, nil, true))))
	return record
}

// TornRecord has a sector whose USN does not match.
func TornRecord() []byte {
	record := NewRecord(TornEntry)
	record.AddAttribute(sampleSI(0x20))
	record.AddAttribute(sampleFN(1, Reference(5, 5), "torn.txt", 1, 0))
	buf := record.Bytes()
	CorruptSector(buf, 2, SectorSize)
	return buf
}

// BadAttributeRecord has a $FILE_NAME whose length runs past the
// used size, so only the $STANDARD_INFORMATION is usable.
func BadAttributeRecord() []byte {
	record := NewRecord(BadAttributeEntry)
	record.AddAttribute(sampleSI(0x20))
	record.AddAttribute(sampleFN(1, Reference(5, 5), "broken.bin", 1, 0))
	record.AddAttribute(ResidentAttribute(DATA, 2, "", []byte("data")))
	buf := record.Bytes()
	le.PutUint32(buf[record.AttributeOffset(1)+4:], 0x7FF8)
	return buf
}

// BadHeaderRecord claims a used size larger than its allocation.
func BadHeaderRecord() []byte {
	record := NewRecord(BadHeaderEntry)
	record.AddAttribute(sampleSI(0x20))
	buf := record.Bytes()
	le.PutUint32(buf[0x18:], 0x800)
	return buf
}

// ExtensionRecord holds the sparse $DATA of AttributeListRecord.
func ExtensionRecord() *Record {
	record := NewRecord(ExtensionEntry)
	record.BaseReference = Reference(AttributeListEntryId, 1)
	record.LinkCount = 0
	record.AddAttribute(NonResidentAttribute(DATA, 0, "", NonResident{
		LastVCN:         19,
		AllocatedSize:   20 * ClusterSize,
		RealSize:        20 * ClusterSize,
		InitializedSize: 8 * ClusterSize,
		Runs: EncodeRuns(
			Run{Length: 4, Offset: 0x2000},
			Run{Length: 12, Sparse: true},
			Run{Length: 4, Offset: 0x10}),
	}))
	return record
}

// AttributeListEntry encodes one $ATTRIBUTE_LIST entry.
func AttributeListEntry(attr_type uint32, reference uint64, id uint16, name string) []byte {
	encoded_name := UTF16(name)
	length := align8(0x1A + len(encoded_name))
	buf := make([]byte, length)
	le.PutUint32(buf[0x00:], attr_type)
	le.PutUint16(buf[0x04:], uint16(length))
	buf[0x06] = uint8(len(encoded_name) / 2)
	buf[0x07] = 0x1A
	le.PutUint64(buf[0x10:], reference)
	le.PutUint16(buf[0x18:], id)
	copy(buf[0x1A:], encoded_name)
	return buf
}

// AttributeListRecord is big.bin whose $DATA lives in
// ExtensionRecord.
func AttributeListRecord() *Record {
	record := NewRecord(AttributeListEntryId)
	base := Reference(AttributeListEntryId, 1)

	list := Table(
		AttributeListEntry(STANDARD_INFORMATION, base, 0, ""),
		AttributeListEntry(ATTRIBUTE_LIST, base, 1, ""),
		AttributeListEntry(FILE_NAME, base, 2, ""),
		AttributeListEntry(DATA, Reference(ExtensionEntry, 1), 0, ""))

	record.AddAttribute(sampleSI(0x20))
	record.AddAttribute(ResidentAttribute(ATTRIBUTE_LIST, 1, "", list))
	record.AddAttribute(sampleFN(2, Reference(5, 5), "big.bin", 1, 20*ClusterSize))
	return record
}

// SampleTable is a small MFT mixing valid, unused and damaged
// records.
func SampleTable() []byte {
	return Table(
		MFTRecord().Bytes(),
		ZeroRecord(),
		GarbageRecord(0xAB),
		FileRecord().Bytes(),
		DirectoryRecord().Bytes(),
		TornRecord(),
		BadAttributeRecord(),
		BadHeaderRecord(),
		ExtensionRecord().Bytes(),
		AttributeListRecord().Bytes(),
	)
}
