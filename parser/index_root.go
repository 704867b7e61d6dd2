package parser

import (
	"github.com/Velocidex/ordereddict"
)

const (
	INDEX_ROOT_HEADER_SIZE   = 0x10
	INDEX_NODE_HEADER_SIZE   = 0x10
	INDEX_ENTRY_HEADER_SIZE  = 0x10
	INDEX_NODE_LARGE_INDEX   = 0x01
	INDEX_ENTRY_HAS_SUBNODE  = 0x01
	INDEX_ENTRY_LAST_IN_NODE = 0x02
)

// INDEX_RECORD_ENTRY is one entry of a directory index node. For
// $I30 indexes the key is a $FILE_NAME.
type INDEX_RECORD_ENTRY struct {
	mft_reference FileReference
	length        uint16
	key_length    uint16
	flags         uint32
	key           []byte
	file          *FILE_NAME
	subnode_vcn   uint64
}

func (self *INDEX_RECORD_ENTRY) MftReference() FileReference {
	return self.mft_reference
}

func (self *INDEX_RECORD_ENTRY) Flags() uint32 {
	return self.flags
}

func (self *INDEX_RECORD_ENTRY) IsLast() bool {
	return self.flags&INDEX_ENTRY_LAST_IN_NODE != 0
}

func (self *INDEX_RECORD_ENTRY) HasSubnode() bool {
	return self.flags&INDEX_ENTRY_HAS_SUBNODE != 0
}

// The VCN of the child node in $INDEX_ALLOCATION.
func (self *INDEX_RECORD_ENTRY) SubnodeVCN() uint64 {
	return self.subnode_vcn
}

func (self *INDEX_RECORD_ENTRY) Key() []byte {
	return self.key
}

// The $FILE_NAME key, nil for other index types or the last entry.
func (self *INDEX_RECORD_ENTRY) File() *FILE_NAME {
	return self.file
}

type INDEX_ROOT struct {
	attr_type                 AttributeType
	collation_rule            uint32
	index_record_size         uint32
	clusters_per_index_record uint8

	entries_offset uint32
	index_length   uint32
	allocated_size uint32
	node_flags     uint8

	entries []*INDEX_RECORD_ENTRY
}

// DecodeINDEX_ROOT decodes an $INDEX_ROOT and the index entries
// stored in it. Entries of a $FILE_NAME index have their key decoded.
func DecodeINDEX_ROOT(data []byte) (*INDEX_ROOT, error) {
	cursor := NewByteCursor(data)
	if cursor.Len() < INDEX_ROOT_HEADER_SIZE+INDEX_NODE_HEADER_SIZE {
		return nil, newParseError(MalformedContentError, -1, -1,
			"$INDEX_ROOT of %d bytes is too short", len(data))
	}

	fields := &fieldReader{cursor: cursor}
	self := &INDEX_ROOT{
		attr_type:                 AttributeType(fields.u32(0x00)),
		collation_rule:            fields.u32(0x04),
		index_record_size:         fields.u32(0x08),
		clusters_per_index_record: fields.u8(0x0C),

		// Node header offsets are relative to the node header.
		entries_offset: fields.u32(0x10),
		index_length:   fields.u32(0x14),
		allocated_size: fields.u32(0x18),
		node_flags:     fields.u8(0x1C),
	}
	if fields.err != nil {
		return nil, fields.err
	}

	node, err := cursor.Sub(INDEX_ROOT_HEADER_SIZE, int64(self.index_length))
	if err != nil {
		return nil, newParseError(MalformedContentError, -1, INDEX_ROOT_HEADER_SIZE,
			"index length %#x exceeds $INDEX_ROOT", self.index_length)
	}

	for offset := int64(self.entries_offset); offset < node.Len(); {
		header, err := node.Sub(offset, INDEX_ENTRY_HEADER_SIZE)
		if err != nil {
			return nil, newParseError(MalformedContentError, -1,
				INDEX_ROOT_HEADER_SIZE+offset, "truncated index entry")
		}

		fields := &fieldReader{cursor: header}
		entry := &INDEX_RECORD_ENTRY{
			mft_reference: NewFileReference(fields.u64(0x00)),
			length:        fields.u16(0x08),
			key_length:    fields.u16(0x0A),
			flags:         fields.u32(0x0C),
		}

		if entry.length < INDEX_ENTRY_HEADER_SIZE || entry.length%8 != 0 {
			return nil, newParseError(MalformedContentError, -1,
				INDEX_ROOT_HEADER_SIZE+offset,
				"index entry length %#x is invalid", entry.length)
		}

		record, err := node.Sub(offset, int64(entry.length))
		if err != nil {
			return nil, newParseError(MalformedContentError, -1,
				INDEX_ROOT_HEADER_SIZE+offset,
				"index entry length %#x exceeds node", entry.length)
		}

		if entry.key_length > 0 {
			entry.key, err = record.BytesAt(INDEX_ENTRY_HEADER_SIZE,
				int64(entry.key_length))
			if err != nil {
				return nil, newParseError(MalformedContentError, -1,
					INDEX_ROOT_HEADER_SIZE+offset,
					"index key of %#x bytes exceeds entry", entry.key_length)
			}

			if self.attr_type == ATTR_TYPE_FILE_NAME {
				entry.file, err = DecodeFILE_NAME(entry.key)
				if err != nil {
					return nil, err
				}
			}
		}

		if entry.HasSubnode() {
			entry.subnode_vcn, err = record.Uint64At(record.Len() - 8)
			if err != nil {
				return nil, newParseError(MalformedContentError, -1,
					INDEX_ROOT_HEADER_SIZE+offset, "missing subnode VCN")
			}
		}

		self.entries = append(self.entries, entry)
		if entry.IsLast() {
			break
		}
		offset += int64(entry.length)
	}

	return self, nil
}

// The attribute type which is indexed, $FILE_NAME for directories.
func (self *INDEX_ROOT) Type() AttributeType {
	return self.attr_type
}

func (self *INDEX_ROOT) Collation_rule() uint32 {
	return self.collation_rule
}

func (self *INDEX_ROOT) Index_record_size() uint32 {
	return self.index_record_size
}

func (self *INDEX_ROOT) Clusters_per_index_record() uint8 {
	return self.clusters_per_index_record
}

// IsLarge is true when the index spills into $INDEX_ALLOCATION.
func (self *INDEX_ROOT) IsLarge() bool {
	return self.node_flags&INDEX_NODE_LARGE_INDEX != 0
}

func (self *INDEX_ROOT) Entries() []*INDEX_RECORD_ENTRY {
	return self.entries
}

// Files lists the decoded $FILE_NAME keys.
func (self *INDEX_ROOT) Files() []*FILE_NAME {
	result := []*FILE_NAME{}
	for _, e := range self.entries {
		if e.file != nil {
			result = append(result, e.file)
		}
	}
	return result
}

func (self *INDEX_ROOT) Dict() *ordereddict.Dict {
	entries := []*ordereddict.Dict{}
	for _, e := range self.entries {
		item := ordereddict.NewDict().
			Set("MftReference", e.mft_reference.String()).
			Set("Flags", e.flags)
		if e.file != nil {
			item.Set("Name", e.file.Name()).
				Set("NameType", e.file.NameType().Name())
		}
		if e.HasSubnode() {
			item.Set("SubnodeVCN", e.subnode_vcn)
		}
		entries = append(entries, item)
	}

	return ordereddict.NewDict().
		Set("Type", self.attr_type.Name()).
		Set("CollationRule", self.collation_rule).
		Set("IndexRecordSize", self.index_record_size).
		Set("IsLarge", self.IsLarge()).
		Set("Entries", entries)
}
