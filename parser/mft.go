package parser

import (
	"fmt"
	"strings"
)

const (
	// Header of an NTFS 3.0 record. NTFS 3.1 extends it to 0x30
	// with the record number at 0x2C.
	MFT_ENTRY_HEADER_SIZE    = 0x2A
	MFT_ENTRY_HEADER_SIZE_31 = 0x30

	MFT_ENTRY_MAGIC = "FILE"
)

// ParseMFTEntry parses a raw record. The buffer is fixed up in place
// and owned by the returned entry. entry_id is the slot index of the
// record in the table.
//
// Returns UnusedSlotError for zeroed records, InvalidSignatureError
// if the FILE magic is missing and MalformedHeaderError when the size
// fields are inconsistent. None of these are fatal to a scan.
func ParseMFTEntry(buffer []byte, entry_id int64, sector_size int64) (
	*MFT_ENTRY, error) {
	offset := entry_id * int64(len(buffer))

	if isZero(buffer) {
		return nil, newParseError(UnusedSlotError, entry_id, offset,
			"zeroed record")
	}

	cursor := NewByteCursor(buffer)
	magic, err := cursor.BytesAt(0, 4)
	if err != nil {
		return nil, newParseError(MalformedHeaderError, entry_id, offset,
			"record of %d bytes is too short", len(buffer))
	}

	if string(magic) != MFT_ENTRY_MAGIC {
		return nil, newParseError(InvalidSignatureError, entry_id, offset,
			"signature %q", magic)
	}

	if len(buffer) < MFT_ENTRY_HEADER_SIZE {
		return nil, newParseError(MalformedHeaderError, entry_id, offset,
			"record of %d bytes is too short", len(buffer))
	}

	self := &MFT_ENTRY{
		buffer:   buffer,
		entry_id: entry_id,
		offset:   offset,
		magic:    string(magic),
	}

	fields := &fieldReader{cursor: cursor}
	self.fixup_offset = fields.u16(0x04)
	self.fixup_count = fields.u16(0x06)

	// Fixups must be applied before any other field is read.
	self.fixup, err = ApplyFixups(buffer, self.fixup_offset,
		self.fixup_count, sector_size)
	if err != nil {
		return nil, withEntry(err, entry_id)
	}

	self.logfile_sequence_number = fields.u64(0x08)
	self.sequence_value = fields.u16(0x10)
	self.link_count = fields.u16(0x12)
	self.attribute_offset = fields.u16(0x14)
	self.flags = MFTEntryFlags(fields.u16(0x16))
	self.mft_entry_size = fields.u32(0x18)
	self.mft_entry_allocated = fields.u32(0x1C)
	self.base_record_reference = fields.u64(0x20)
	self.next_attribute_id = fields.u16(0x28)

	// The fixup array follows the header so its position tells us
	// which header version this is.
	if self.fixup_offset >= MFT_ENTRY_HEADER_SIZE_31 {
		self.record_number = fields.u32(0x2C)
		self.has_record_number = true
	}

	if fields.err != nil {
		return nil, newParseError(MalformedHeaderError, entry_id, offset,
			"%v", fields.err)
	}

	if self.mft_entry_size > self.mft_entry_allocated {
		return nil, newParseError(MalformedHeaderError, entry_id, offset,
			"used size %#x exceeds allocated size %#x",
			self.mft_entry_size, self.mft_entry_allocated)
	}

	if int64(self.mft_entry_allocated) > int64(len(buffer)) {
		return nil, newParseError(MalformedHeaderError, entry_id, offset,
			"allocated size %#x exceeds record size %#x",
			self.mft_entry_allocated, len(buffer))
	}

	if self.attribute_offset < MFT_ENTRY_HEADER_SIZE ||
		uint32(self.attribute_offset) > self.mft_entry_size {
		return nil, newParseError(MalformedHeaderError, entry_id, offset,
			"first attribute offset %#x outside used size %#x",
			self.attribute_offset, self.mft_entry_size)
	}

	return self, nil
}

// Attributes returns a lazy iterator over the attributes in on disk
// order.
func (self *MFT_ENTRY) Attributes() *AttributeIterator {
	return newAttributeIterator(self)
}

// EnumerateAttributes collects all the attributes which decode
// without error. Does not follow $ATTRIBUTE_LIST references into
// other records.
func (self *MFT_ENTRY) EnumerateAttributes() []*NTFS_ATTRIBUTE {
	result := make([]*NTFS_ATTRIBUTE, 0, 16)

	it := self.Attributes()
	for {
		attr, err := it.Next()
		if err != nil {
			if it.Done() {
				break
			}
			continue
		}
		result = append(result, attr)
	}

	return result
}

// Extract the $STANDARD_INFORMATION attribute from the MFT entry.
func (self *MFT_ENTRY) StandardInformation() (*STANDARD_INFORMATION, error) {
	for _, attr := range self.EnumerateAttributes() {
		if attr.Type() == ATTR_TYPE_STANDARD_INFORMATION && attr.IsResident() {
			return DecodeSTANDARD_INFORMATION(attr.Resident.Data())
		}
	}

	return nil, newParseError(NotFoundError, self.entry_id, self.offset,
		"$STANDARD_INFORMATION not found")
}

// Extract the $FILE_NAME attributes from the MFT entry. There may be
// several (e.g. a DOS and a Win32 name, or hard links).
func (self *MFT_ENTRY) FileName() []*FILE_NAME {
	result := []*FILE_NAME{}
	for _, attr := range self.EnumerateAttributes() {
		if attr.Type() == ATTR_TYPE_FILE_NAME && attr.IsResident() {
			res, err := DecodeFILE_NAME(attr.Resident.Data())
			if err == nil {
				result = append(result, res)
			}
		}
	}
	return result
}

// Retrieve the attribute specified by type and id. If id is negative
// return the first attribute of this type. If stream is not empty
// the attribute name must match it too.
func (self *MFT_ENTRY) GetAttribute(
	attr_type AttributeType, id int64, stream string) (*NTFS_ATTRIBUTE, error) {
	for _, attr := range self.EnumerateAttributes() {
		if attr.Type() != attr_type {
			continue
		}

		if id >= 0 && int64(attr.Attribute_id()) != id {
			continue
		}

		if stream != "" && stream != attr.Name() {
			continue
		}
		return attr, nil
	}

	return nil, newParseError(NotFoundError, self.entry_id, self.offset,
		"attribute %v id %d not found", attr_type, id)
}

func (self *MFT_ENTRY) IsDir() bool {
	if self.flags.IsSet(MFT_ENTRY_DIRECTORY) {
		return true
	}

	for _, attr := range self.EnumerateAttributes() {
		switch attr.Type() {
		case ATTR_TYPE_INDEX_ROOT, ATTR_TYPE_INDEX_ALLOCATION:
			return true
		}
	}
	return false
}

func (self *MFT_ENTRY) Display() string {
	result := []string{self.DebugString()}

	result = append(result, "Attribute:")
	it := self.Attributes()
	for {
		attr, err := it.Next()
		if it.Done() {
			break
		}
		if err != nil {
			result = append(result, fmt.Sprintf("Error: %v", err))
			continue
		}
		result = append(result, attr.PrintStats())
	}

	return fmt.Sprintf("[MFT_ENTRY] %d\n", self.entry_id) +
		strings.Join(result, "\n")
}
