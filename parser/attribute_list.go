package parser

import (
	"fmt"

	"github.com/Velocidex/ordereddict"
)

const ATTRIBUTE_LIST_ENTRY_HEADER_SIZE = 0x1A

// ATTRIBUTE_LIST_ENTRY points at an attribute which may live in
// another (extension) record of the same file.
type ATTRIBUTE_LIST_ENTRY struct {
	attr_type      AttributeType
	length         uint16
	name_length    uint8
	name_offset    uint8
	starting_vcn   uint64
	base_reference FileReference
	attribute_id   uint16
	name           string
}

func (self *ATTRIBUTE_LIST_ENTRY) Type() AttributeType {
	return self.attr_type
}

func (self *ATTRIBUTE_LIST_ENTRY) Length() uint16 {
	return self.length
}

func (self *ATTRIBUTE_LIST_ENTRY) StartingVCN() uint64 {
	return self.starting_vcn
}

// The record holding the attribute.
func (self *ATTRIBUTE_LIST_ENTRY) MftReference() FileReference {
	return self.base_reference
}

func (self *ATTRIBUTE_LIST_ENTRY) Attribute_id() uint16 {
	return self.attribute_id
}

func (self *ATTRIBUTE_LIST_ENTRY) Name() string {
	return self.name
}

func (self *ATTRIBUTE_LIST_ENTRY) String() string {
	return fmt.Sprintf("%v-%d %q @ %v VCN %d", self.attr_type,
		self.attribute_id, self.name, self.base_reference, self.starting_vcn)
}

type ATTRIBUTE_LIST struct {
	entries []*ATTRIBUTE_LIST_ENTRY
}

func (self *ATTRIBUTE_LIST) Entries() []*ATTRIBUTE_LIST_ENTRY {
	return self.entries
}

// DecodeATTRIBUTE_LIST decodes a resident $ATTRIBUTE_LIST. Zero
// padding at the end of the content is ignored.
func DecodeATTRIBUTE_LIST(data []byte) (*ATTRIBUTE_LIST, error) {
	self := &ATTRIBUTE_LIST{}
	cursor := NewByteCursor(data)

	for offset := int64(0); offset < cursor.Len(); {
		header, err := cursor.Sub(offset, ATTRIBUTE_LIST_ENTRY_HEADER_SIZE)
		if err != nil {
			tail, _ := cursor.BytesAt(offset, cursor.Len()-offset)
			if isZero(tail) {
				break
			}
			return nil, newParseError(MalformedContentError, -1, offset,
				"truncated $ATTRIBUTE_LIST entry")
		}

		fields := &fieldReader{cursor: header}
		entry := &ATTRIBUTE_LIST_ENTRY{
			attr_type:      AttributeType(fields.u32(0x00)),
			length:         fields.u16(0x04),
			name_length:    fields.u8(0x06),
			name_offset:    fields.u8(0x07),
			starting_vcn:   fields.u64(0x08),
			base_reference: NewFileReference(fields.u64(0x10)),
			attribute_id:   fields.u16(0x18),
		}

		if entry.attr_type == 0 && entry.length == 0 {
			break
		}

		if entry.length < ATTRIBUTE_LIST_ENTRY_HEADER_SIZE {
			return nil, newParseError(MalformedContentError, -1, offset,
				"$ATTRIBUTE_LIST entry length %#x is invalid", entry.length)
		}

		record, err := cursor.Sub(offset, int64(entry.length))
		if err != nil {
			return nil, newParseError(MalformedContentError, -1, offset,
				"$ATTRIBUTE_LIST entry length %#x exceeds content", entry.length)
		}

		if entry.name_length > 0 {
			entry.name, err = readUTF16(record, int64(entry.name_offset),
				int64(entry.name_length))
			if err != nil {
				return nil, newParseError(MalformedContentError, -1, offset,
					"$ATTRIBUTE_LIST entry name outside entry")
			}
		}

		self.entries = append(self.entries, entry)
		offset += int64(entry.length)
	}

	return self, nil
}

func (self *ATTRIBUTE_LIST) Dict() *ordereddict.Dict {
	entries := []*ordereddict.Dict{}
	for _, e := range self.entries {
		entries = append(entries, ordereddict.NewDict().
			Set("Type", e.attr_type.Name()).
			Set("Id", e.attribute_id).
			Set("Name", e.name).
			Set("StartingVCN", e.starting_vcn).
			Set("MftReference", e.base_reference.String()))
	}
	return ordereddict.NewDict().Set("Entries", entries)
}
