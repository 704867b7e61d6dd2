package parser

import (
	"fmt"
	"strings"
)

// These are hand written decoders for the on disk structs. Offsets
// follow the NTFS layout and are little endian throughout.

type AttributeType uint32

const (
	ATTR_TYPE_STANDARD_INFORMATION  AttributeType = 0x10
	ATTR_TYPE_ATTRIBUTE_LIST        AttributeType = 0x20
	ATTR_TYPE_FILE_NAME             AttributeType = 0x30
	ATTR_TYPE_OBJECT_ID             AttributeType = 0x40
	ATTR_TYPE_SECURITY_DESCRIPTOR   AttributeType = 0x50
	ATTR_TYPE_VOLUME_NAME           AttributeType = 0x60
	ATTR_TYPE_VOLUME_INFORMATION    AttributeType = 0x70
	ATTR_TYPE_DATA                  AttributeType = 0x80
	ATTR_TYPE_INDEX_ROOT            AttributeType = 0x90
	ATTR_TYPE_INDEX_ALLOCATION      AttributeType = 0xA0
	ATTR_TYPE_BITMAP                AttributeType = 0xB0
	ATTR_TYPE_REPARSE_POINT         AttributeType = 0xC0
	ATTR_TYPE_EA_INFORMATION        AttributeType = 0xD0
	ATTR_TYPE_EA                    AttributeType = 0xE0
	ATTR_TYPE_LOGGED_UTILITY_STREAM AttributeType = 0x100

	// Marks the end of the attribute stream in a record.
	ATTR_TYPE_END AttributeType = 0xFFFFFFFF
)

// Name returns the NTFS name for known types. Unknown types keep
// their numeric value.
func (self AttributeType) Name() string {
	switch self {
	case ATTR_TYPE_STANDARD_INFORMATION:
		return "$STANDARD_INFORMATION"
	case ATTR_TYPE_ATTRIBUTE_LIST:
		return "$ATTRIBUTE_LIST"
	case ATTR_TYPE_FILE_NAME:
		return "$FILE_NAME"
	case ATTR_TYPE_OBJECT_ID:
		return "$OBJECT_ID"
	case ATTR_TYPE_SECURITY_DESCRIPTOR:
		return "$SECURITY_DESCRIPTOR"
	case ATTR_TYPE_VOLUME_NAME:
		return "$VOLUME_NAME"
	case ATTR_TYPE_VOLUME_INFORMATION:
		return "$VOLUME_INFORMATION"
	case ATTR_TYPE_DATA:
		return "$DATA"
	case ATTR_TYPE_INDEX_ROOT:
		return "$INDEX_ROOT"
	case ATTR_TYPE_INDEX_ALLOCATION:
		return "$INDEX_ALLOCATION"
	case ATTR_TYPE_BITMAP:
		return "$BITMAP"
	case ATTR_TYPE_REPARSE_POINT:
		return "$REPARSE_POINT"
	case ATTR_TYPE_EA_INFORMATION:
		return "$EA_INFORMATION"
	case ATTR_TYPE_EA:
		return "$EA"
	case ATTR_TYPE_LOGGED_UTILITY_STREAM:
		return "$LOGGED_UTILITY_STREAM"
	case ATTR_TYPE_END:
		return "$END"
	}
	return fmt.Sprintf("Unknown(%#x)", uint32(self))
}

func (self AttributeType) String() string {
	return self.Name()
}

// FileReference packs an entry number (48 bits) and its sequence
// number (16 bits).
type FileReference struct {
	Entry    uint64
	Sequence uint16
}

func NewFileReference(value uint64) FileReference {
	return FileReference{
		Entry:    value & 0xFFFFFFFFFFFF,
		Sequence: uint16(value >> 48),
	}
}

func (self FileReference) Value() uint64 {
	return self.Entry | uint64(self.Sequence)<<48
}

func (self FileReference) IsZero() bool {
	return self.Entry == 0 && self.Sequence == 0
}

func (self FileReference) String() string {
	return fmt.Sprintf("%d-%d", self.Entry, self.Sequence)
}

// Flags of the MFT entry header.
type MFTEntryFlags uint16

const (
	MFT_ENTRY_ALLOCATED  MFTEntryFlags = 1 << 0
	MFT_ENTRY_DIRECTORY  MFTEntryFlags = 1 << 1
	MFT_ENTRY_EXTENSION  MFTEntryFlags = 1 << 2
	MFT_ENTRY_VIEW_INDEX MFTEntryFlags = 1 << 3
)

func (self MFTEntryFlags) IsSet(flag MFTEntryFlags) bool {
	return self&flag != 0
}

func (self MFTEntryFlags) Names() []string {
	names := []string{}
	if self.IsSet(MFT_ENTRY_ALLOCATED) {
		names = append(names, "ALLOCATED")
	}
	if self.IsSet(MFT_ENTRY_DIRECTORY) {
		names = append(names, "DIRECTORY")
	}
	if self.IsSet(MFT_ENTRY_EXTENSION) {
		names = append(names, "EXTENSION")
	}
	if self.IsSet(MFT_ENTRY_VIEW_INDEX) {
		names = append(names, "VIEW_INDEX")
	}

	unknown := self &^ (MFT_ENTRY_ALLOCATED | MFT_ENTRY_DIRECTORY |
		MFT_ENTRY_EXTENSION | MFT_ENTRY_VIEW_INDEX)
	if unknown != 0 {
		names = append(names, fmt.Sprintf("%#x", uint16(unknown)))
	}
	return names
}

func (self MFTEntryFlags) DebugString() string {
	return fmt.Sprintf("%d (%v)", uint16(self), strings.Join(self.Names(), ","))
}

// Flags of an attribute header.
type AttributeFlags uint16

const (
	ATTR_FLAG_COMPRESSED AttributeFlags = 1 << 0
	ATTR_FLAG_ENCRYPTED  AttributeFlags = 1 << 14
	ATTR_FLAG_SPARSE     AttributeFlags = 1 << 15
)

func (self AttributeFlags) IsSet(flag AttributeFlags) bool {
	return self&flag != 0
}

func (self AttributeFlags) DebugString() string {
	names := []string{}

	if self.IsSet(ATTR_FLAG_COMPRESSED) {
		names = append(names, "COMPRESSED")
	}

	if self.IsSet(ATTR_FLAG_ENCRYPTED) {
		names = append(names, "ENCRYPTED")
	}

	if self.IsSet(ATTR_FLAG_SPARSE) {
		names = append(names, "SPARSE")
	}

	return fmt.Sprintf("%d (%v)", self, strings.Join(names, ","))
}

// MFT_ENTRY is a single fixed up MFT record. It is immutable once
// returned by the parser. All attribute views index into buffer.
type MFT_ENTRY struct {
	buffer []byte

	entry_id int64
	offset   int64
	fixup    FixupResult

	magic                   string
	fixup_offset            uint16
	fixup_count             uint16
	logfile_sequence_number uint64
	sequence_value          uint16
	link_count              uint16
	attribute_offset        uint16
	flags                   MFTEntryFlags
	mft_entry_size          uint32
	mft_entry_allocated     uint32
	base_record_reference   uint64
	next_attribute_id       uint16
	record_number           uint32
	has_record_number       bool
}

// EntryId is the index of the record slot in the table. It is
// derived from the position of the record and not from the header.
func (self *MFT_ENTRY) EntryId() int64 {
	return self.entry_id
}

// Offset of the record in the MFT stream.
func (self *MFT_ENTRY) Offset() int64 {
	return self.offset
}

func (self *MFT_ENTRY) Magic() string {
	return self.magic
}

func (self *MFT_ENTRY) Fixup_offset() uint16 {
	return self.fixup_offset
}

func (self *MFT_ENTRY) Fixup_count() uint16 {
	return self.fixup_count
}

func (self *MFT_ENTRY) Logfile_sequence_number() uint64 {
	return self.logfile_sequence_number
}

func (self *MFT_ENTRY) Sequence_value() uint16 {
	return self.sequence_value
}

func (self *MFT_ENTRY) Link_count() uint16 {
	return self.link_count
}

func (self *MFT_ENTRY) Attribute_offset() uint16 {
	return self.attribute_offset
}

func (self *MFT_ENTRY) Flags() MFTEntryFlags {
	return self.flags
}

// Number of bytes of the record in use.
func (self *MFT_ENTRY) Mft_entry_size() uint32 {
	return self.mft_entry_size
}

func (self *MFT_ENTRY) Mft_entry_allocated() uint32 {
	return self.mft_entry_allocated
}

// The raw base record reference. Zero for base records.
func (self *MFT_ENTRY) Base_record_reference() FileReference {
	return NewFileReference(self.base_record_reference)
}

func (self *MFT_ENTRY) Next_attribute_id() uint16 {
	return self.next_attribute_id
}

// Record_number is only stored by NTFS 3.1 and later. The second
// return is false for older records.
func (self *MFT_ENTRY) Record_number() (uint32, bool) {
	return self.record_number, self.has_record_number
}

// Reference to this entry.
func (self *MFT_ENTRY) Reference() FileReference {
	return FileReference{
		Entry:    uint64(self.entry_id),
		Sequence: self.sequence_value,
	}
}

// BaseReference returns the base record for extension records and
// the entry itself otherwise.
func (self *MFT_ENTRY) BaseReference() FileReference {
	if self.base_record_reference == 0 {
		return self.Reference()
	}
	return self.Base_record_reference()
}

func (self *MFT_ENTRY) IsExtension() bool {
	return self.base_record_reference != 0
}

func (self *MFT_ENTRY) IsAllocated() bool {
	return self.flags.IsSet(MFT_ENTRY_ALLOCATED)
}

// IsCorrupt is set when the fixup pass found sector ends which did
// not carry the update sequence number.
func (self *MFT_ENTRY) IsCorrupt() bool {
	return self.fixup.IsCorrupt()
}

func (self *MFT_ENTRY) Fixup() FixupResult {
	return self.fixup
}

// The attribute region of the record.
func (self *MFT_ENTRY) AttributeData() []byte {
	return self.buffer[self.attribute_offset:self.mft_entry_size]
}

func (self *MFT_ENTRY) DebugString() string {
	result := fmt.Sprintf("struct MFT_ENTRY @ %#x:\n", self.offset)
	result += fmt.Sprintf("  EntryId: %d\n", self.entry_id)
	result += fmt.Sprintf("  Fixup_offset: %#0x\n", self.fixup_offset)
	result += fmt.Sprintf("  Fixup_count: %#0x\n", self.fixup_count)
	result += fmt.Sprintf("  Logfile_sequence_number: %#0x\n", self.logfile_sequence_number)
	result += fmt.Sprintf("  Sequence_value: %#0x\n", self.sequence_value)
	result += fmt.Sprintf("  Link_count: %#0x\n", self.link_count)
	result += fmt.Sprintf("  Attribute_offset: %#0x\n", self.attribute_offset)
	result += fmt.Sprintf("  Flags: %v\n", self.flags.DebugString())
	result += fmt.Sprintf("  Mft_entry_size: %#0x\n", self.mft_entry_size)
	result += fmt.Sprintf("  Mft_entry_allocated: %#0x\n", self.mft_entry_allocated)
	result += fmt.Sprintf("  Base_record_reference: %v\n", self.Base_record_reference())
	result += fmt.Sprintf("  Next_attribute_id: %#0x\n", self.next_attribute_id)
	if self.has_record_number {
		result += fmt.Sprintf("  Record_number: %#0x\n", self.record_number)
	}
	if self.IsCorrupt() {
		result += fmt.Sprintf("  Fixup mismatches: %v truncated: %v short: %v\n",
			self.fixup.Mismatched, self.fixup.Truncated, self.fixup.Short)
	}
	return result
}

// NTFS_ATTRIBUTE is one attribute inside an MFT entry. Exactly one
// of Resident and NonResident is set.
type NTFS_ATTRIBUTE struct {
	// The owning record's buffer and the attribute offset in it.
	buffer   []byte
	Offset   int64
	entry_id int64

	attr_type    AttributeType
	length       uint32
	non_resident bool
	name_length  uint8
	name_offset  uint16
	flags        AttributeFlags
	attribute_id uint16
	name         string

	Resident    *ResidentContent
	NonResident *NonResidentContent
}

func (self *NTFS_ATTRIBUTE) Type() AttributeType {
	return self.attr_type
}

func (self *NTFS_ATTRIBUTE) Length() uint32 {
	return self.length
}

func (self *NTFS_ATTRIBUTE) IsResident() bool {
	return !self.non_resident
}

func (self *NTFS_ATTRIBUTE) Flags() AttributeFlags {
	return self.flags
}

func (self *NTFS_ATTRIBUTE) Attribute_id() uint16 {
	return self.attribute_id
}

// Name of the attribute stream, empty for the default stream.
func (self *NTFS_ATTRIBUTE) Name() string {
	return self.name
}

func (self *NTFS_ATTRIBUTE) EntryId() int64 {
	return self.entry_id
}

// The attribute as it appears in the record, header included.
func (self *NTFS_ATTRIBUTE) Bytes() []byte {
	return self.buffer[self.Offset : self.Offset+int64(self.length)]
}

// Size of the attribute's data stream.
func (self *NTFS_ATTRIBUTE) DataSize() int64 {
	if self.Resident != nil {
		return int64(self.Resident.Length)
	}
	return int64(self.NonResident.RealSize)
}

func (self *NTFS_ATTRIBUTE) DebugString() string {
	result := fmt.Sprintf("struct NTFS_ATTRIBUTE @ %#x:\n", self.Offset)
	result += fmt.Sprintf("  Type: %v (%#x)\n", self.attr_type.Name(), uint32(self.attr_type))
	result += fmt.Sprintf("  Length: %#0x\n", self.length)
	result += fmt.Sprintf("  Resident: %v\n", self.IsResident())
	result += fmt.Sprintf("  name_length: %#0x\n", self.name_length)
	result += fmt.Sprintf("  name_offset: %#0x\n", self.name_offset)
	if self.name != "" {
		result += fmt.Sprintf("  Name: %v\n", self.name)
	}
	result += fmt.Sprintf("  Flags: %v\n", self.flags.DebugString())
	result += fmt.Sprintf("  Attribute_id: %#0x\n", self.attribute_id)
	if self.Resident != nil {
		result += fmt.Sprintf("  Content_size: %#0x\n", self.Resident.Length)
		result += fmt.Sprintf("  Content_offset: %#0x\n", self.Resident.Offset)
	} else {
		nr := self.NonResident
		result += fmt.Sprintf("  Runlist_vcn_start: %#0x\n", nr.StartVCN)
		result += fmt.Sprintf("  Runlist_vcn_end: %#0x\n", nr.LastVCN)
		result += fmt.Sprintf("  Runlist_offset: %#0x\n", nr.RunlistOffset)
		result += fmt.Sprintf("  Compression_unit_size: %#0x\n", nr.CompressionUnitSize)
		result += fmt.Sprintf("  Allocated_size: %#0x\n", nr.AllocatedSize)
		result += fmt.Sprintf("  Actual_size: %#0x\n", nr.RealSize)
		result += fmt.Sprintf("  Initialized_size: %#0x\n", nr.InitializedSize)
	}
	return result
}
