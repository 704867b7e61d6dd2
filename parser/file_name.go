package parser

import (
	"fmt"

	"github.com/Velocidex/ordereddict"
)

// Fixed part of a $FILE_NAME, the name follows.
const FILE_NAME_HEADER_SIZE = 0x42

// NameType is the namespace of a $FILE_NAME.
type NameType uint8

const (
	NAME_TYPE_POSIX     NameType = 0
	NAME_TYPE_WIN32     NameType = 1
	NAME_TYPE_DOS       NameType = 2
	NAME_TYPE_WIN32_DOS NameType = 3
)

func (self NameType) Name() string {
	switch self {
	case NAME_TYPE_POSIX:
		return "POSIX"
	case NAME_TYPE_WIN32:
		return "Win32"
	case NAME_TYPE_DOS:
		return "DOS"
	case NAME_TYPE_WIN32_DOS:
		return "DOS+Win32"
	}
	return fmt.Sprintf("%d", uint8(self))
}

func (self NameType) String() string {
	return self.Name()
}

type FILE_NAME struct {
	parent        FileReference
	created       WinFileTime
	file_modified WinFileTime
	mft_modified  WinFileTime
	file_accessed WinFileTime

	allocated_size uint64
	size           uint64
	flags          FileAttributeFlags
	reparse_value  uint32
	name_length    uint8
	name_type      NameType
	name           string
}

// DecodeFILE_NAME decodes a $FILE_NAME structure. This is both the
// resident content of a $FILE_NAME attribute and the key of a
// directory index entry.
func DecodeFILE_NAME(data []byte) (*FILE_NAME, error) {
	cursor := NewByteCursor(data)
	if cursor.Len() < FILE_NAME_HEADER_SIZE {
		return nil, newParseError(MalformedContentError, -1, -1,
			"$FILE_NAME of %d bytes is too short", len(data))
	}

	fields := &fieldReader{cursor: cursor}
	self := &FILE_NAME{
		parent:         NewFileReference(fields.u64(0x00)),
		created:        WinFileTime(fields.u64(0x08)),
		file_modified:  WinFileTime(fields.u64(0x10)),
		mft_modified:   WinFileTime(fields.u64(0x18)),
		file_accessed:  WinFileTime(fields.u64(0x20)),
		allocated_size: fields.u64(0x28),
		size:           fields.u64(0x30),
		flags:          FileAttributeFlags(fields.u32(0x38)),
		reparse_value:  fields.u32(0x3C),
		name_length:    fields.u8(0x40),
		name_type:      NameType(fields.u8(0x41)),
	}
	if fields.err != nil {
		return nil, fields.err
	}

	name, err := readUTF16(cursor, FILE_NAME_HEADER_SIZE, int64(self.name_length))
	if err != nil {
		return nil, newParseError(MalformedContentError, -1, FILE_NAME_HEADER_SIZE,
			"name of %d characters exceeds %d byte $FILE_NAME",
			self.name_length, len(data))
	}
	self.name = name

	return self, nil
}

// The parent directory's entry number.
func (self *FILE_NAME) MftReference() uint64 {
	return self.parent.Entry
}

// The parent directory's sequence number.
func (self *FILE_NAME) Seq_num() uint16 {
	return self.parent.Sequence
}

func (self *FILE_NAME) ParentReference() FileReference {
	return self.parent
}

func (self *FILE_NAME) Created() WinFileTime {
	return self.created
}

func (self *FILE_NAME) File_modified() WinFileTime {
	return self.file_modified
}

func (self *FILE_NAME) Mft_modified() WinFileTime {
	return self.mft_modified
}

func (self *FILE_NAME) File_accessed() WinFileTime {
	return self.file_accessed
}

func (self *FILE_NAME) Allocated_size() uint64 {
	return self.allocated_size
}

func (self *FILE_NAME) Size() uint64 {
	return self.size
}

func (self *FILE_NAME) Flags() FileAttributeFlags {
	return self.flags
}

// Reparse tag, or the extended attribute size if there is no
// reparse point.
func (self *FILE_NAME) Reparse_value() uint32 {
	return self.reparse_value
}

func (self *FILE_NAME) NameType() NameType {
	return self.name_type
}

func (self *FILE_NAME) Name() string {
	return self.name
}

func (self *FILE_NAME) Dict() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Name", self.name).
		Set("NameType", self.name_type.Name()).
		Set("ParentEntryNumber", self.parent.Entry).
		Set("ParentSequenceNumber", self.parent.Sequence).
		Set("Created", self.created.String()).
		Set("Modified", self.file_modified.String()).
		Set("MftModified", self.mft_modified.String()).
		Set("Accessed", self.file_accessed.String()).
		Set("AllocatedSize", self.allocated_size).
		Set("Size", self.size).
		Set("Flags", self.flags.Names())
}

func (self *FILE_NAME) DebugString() string {
	result := "struct FILE_NAME:\n"
	result += fmt.Sprintf("  MftReference: %v\n", self.parent)
	result += fmt.Sprintf("  Created: %v\n", self.created)
	result += fmt.Sprintf("  File_modified: %v\n", self.file_modified)
	result += fmt.Sprintf("  Mft_modified: %v\n", self.mft_modified)
	result += fmt.Sprintf("  File_accessed: %v\n", self.file_accessed)
	result += fmt.Sprintf("  Allocated_size: %#0x\n", self.allocated_size)
	result += fmt.Sprintf("  Size: %#0x\n", self.size)
	result += fmt.Sprintf("  Flags: %v\n", self.flags.DebugString())
	result += fmt.Sprintf("  NameType: %v\n", self.name_type)
	result += fmt.Sprintf("  Name: %v\n", self.name)
	return result
}
