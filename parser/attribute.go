package parser

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const (
	ATTRIBUTE_HEADER_SIZE              = 0x10
	RESIDENT_ATTRIBUTE_HEADER_SIZE     = 0x18
	NON_RESIDENT_ATTRIBUTE_HEADER_SIZE = 0x40

	// Compressed non-resident attributes carry an extra total
	// allocated field.
	COMPRESSED_ATTRIBUTE_HEADER_SIZE = 0x48

	// Attributes are quad word aligned inside a record.
	ATTRIBUTE_ALIGNMENT = 8
)

// ResidentContent is an (offset, length) view of the content of a
// resident attribute inside the record buffer.
type ResidentContent struct {
	// Offset of the content from the start of the record.
	Offset      int64
	Length      uint32
	IndexedFlag uint8

	data []byte
}

func (self *ResidentContent) Data() []byte {
	return self.data
}

// NonResidentContent describes an attribute whose data lives outside
// the MFT. Only the run list is exposed.
type NonResidentContent struct {
	StartVCN            uint64
	LastVCN             uint64
	RunlistOffset       uint16
	CompressionUnitSize uint16
	AllocatedSize       uint64
	RealSize            uint64
	InitializedSize     uint64

	// Only present for compressed attributes.
	TotalAllocated uint64

	runlist []byte
}

// The raw encoded run list.
func (self *NonResidentContent) RunlistBytes() []byte {
	return self.runlist
}

// DataRuns decodes the run list.
func (self *NonResidentContent) DataRuns() ([]DataRun, error) {
	return DecodeDataRuns(self.runlist)
}

// ClusterCount sums the run lengths. Returns 0 if the run list does
// not decode.
func (self *NonResidentContent) ClusterCount() uint64 {
	runs, err := self.DataRuns()
	if err != nil {
		return 0
	}
	return ClusterCount(runs)
}

// Number of VCNs this attribute instance covers.
func (self *NonResidentContent) VCNCount() uint64 {
	if self.LastVCN < self.StartVCN {
		return 0
	}
	return self.LastVCN - self.StartVCN + 1
}

// AttributeIterator walks the attribute stream of an entry lazily.
// Next() returns one attribute or one per attribute error at a
// time, and io.EOF when the stream is exhausted.
type AttributeIterator struct {
	entry  *MFT_ENTRY
	region *ByteCursor
	offset int64

	// A fault made the remaining offsets untrustworthy. The next
	// call ends the sequence.
	stopped bool
	done    bool
}

func newAttributeIterator(entry *MFT_ENTRY) *AttributeIterator {
	// The stream ends at the used size of the record.
	return &AttributeIterator{
		entry:  entry,
		region: NewByteCursor(entry.buffer[:entry.mft_entry_size]),
		offset: int64(entry.attribute_offset),
	}
}

// Done is true once Next() has returned io.EOF.
func (self *AttributeIterator) Done() bool {
	return self.done
}

func (self *AttributeIterator) finish() (*NTFS_ATTRIBUTE, error) {
	self.done = true
	return nil, io.EOF
}

func (self *AttributeIterator) Next() (*NTFS_ATTRIBUTE, error) {
	if self.stopped || self.done {
		return self.finish()
	}

	// Reached the used size boundary without an end marker.
	if self.offset >= self.region.Len() {
		return self.finish()
	}

	attr_type, err := self.region.Uint32At(self.offset)
	if err != nil {
		self.stopped = true
		return nil, newParseError(MalformedAttributeError,
			self.entry.entry_id, self.offset,
			"truncated attribute at end of record")
	}

	if AttributeType(attr_type) == ATTR_TYPE_END {
		return self.finish()
	}

	attr, length, err := parseAttribute(self.entry, self.region, self.offset)
	if length == 0 {
		// The length can not be trusted so nothing after this
		// attribute can be located.
		self.stopped = true
		return nil, err
	}

	self.offset += length
	if err != nil {
		return nil, err
	}
	return attr, nil
}

// Parse the attribute at offset. The returned length is 0 if the
// attribute's own length is invalid, in which case the stream can
// not continue.
func parseAttribute(entry *MFT_ENTRY, region *ByteCursor, offset int64) (
	*NTFS_ATTRIBUTE, int64, error) {
	entry_id := entry.entry_id

	header, err := region.Sub(offset, ATTRIBUTE_HEADER_SIZE)
	if err != nil {
		return nil, 0, newParseError(MalformedAttributeError, entry_id, offset,
			"truncated attribute header")
	}

	fields := &fieldReader{cursor: header}
	attr_type := AttributeType(fields.u32(0))
	length := fields.u32(4)

	if length == 0 {
		return nil, 0, newParseError(MalformedAttributeError, entry_id, offset,
			"attribute %v has zero length", attr_type)
	}

	if length%ATTRIBUTE_ALIGNMENT != 0 {
		return nil, 0, newParseError(MalformedAttributeError, entry_id, offset,
			"attribute %v length %#x is not aligned", attr_type, length)
	}

	// Every field of the attribute is read through this cursor so
	// nothing can leak into the next attribute.
	cursor, err := region.Sub(offset, int64(length))
	if err != nil {
		return nil, 0, newParseError(MalformedAttributeError, entry_id, offset,
			"attribute %v length %#x exceeds used size of record",
			attr_type, length)
	}

	fields = &fieldReader{cursor: cursor}
	self := &NTFS_ATTRIBUTE{
		buffer:       entry.buffer,
		Offset:       offset,
		entry_id:     entry_id,
		attr_type:    attr_type,
		length:       length,
		non_resident: fields.u8(8) != 0,
		name_length:  fields.u8(9),
		name_offset:  fields.u16(10),
		flags:        AttributeFlags(fields.u16(12)),
		attribute_id: fields.u16(14),
	}

	if self.name_length > 0 {
		self.name, err = readUTF16(cursor, int64(self.name_offset),
			int64(self.name_length))
		if err != nil {
			return nil, int64(length), newParseError(
				MalformedAttributeError, entry_id, offset,
				"attribute %v name outside attribute", attr_type)
		}
	}

	if self.non_resident {
		err = self.parseNonResident(cursor)
	} else {
		err = self.parseResident(cursor)
	}
	if err != nil {
		return nil, int64(length), err
	}

	return self, int64(length), nil
}

func (self *NTFS_ATTRIBUTE) parseResident(cursor *ByteCursor) error {
	if cursor.Len() < RESIDENT_ATTRIBUTE_HEADER_SIZE {
		return newParseError(MalformedAttributeError, self.entry_id, self.Offset,
			"resident attribute %v too short for its header", self.attr_type)
	}

	fields := &fieldReader{cursor: cursor}
	content_length := fields.u32(0x10)
	content_offset := fields.u16(0x14)
	indexed := fields.u8(0x16)

	if content_offset < RESIDENT_ATTRIBUTE_HEADER_SIZE {
		return newParseError(MalformedContentError, self.entry_id, self.Offset,
			"resident content offset %#x overlaps the attribute header",
			content_offset)
	}

	data, err := cursor.BytesAt(int64(content_offset), int64(content_length))
	if err != nil {
		return newParseError(MalformedContentError, self.entry_id, self.Offset,
			"resident content of %#x bytes at %#x exceeds attribute length %#x",
			content_length, content_offset, self.length)
	}

	self.Resident = &ResidentContent{
		Offset:      self.Offset + int64(content_offset),
		Length:      content_length,
		IndexedFlag: indexed,
		data:        data,
	}
	return nil
}

func (self *NTFS_ATTRIBUTE) parseNonResident(cursor *ByteCursor) error {
	if cursor.Len() < NON_RESIDENT_ATTRIBUTE_HEADER_SIZE {
		return newParseError(MalformedAttributeError, self.entry_id, self.Offset,
			"non-resident attribute %v too short for its header", self.attr_type)
	}

	fields := &fieldReader{cursor: cursor}
	result := &NonResidentContent{
		StartVCN:            fields.u64(0x10),
		LastVCN:             fields.u64(0x18),
		RunlistOffset:       fields.u16(0x20),
		CompressionUnitSize: fields.u16(0x22),
		AllocatedSize:       fields.u64(0x28),
		RealSize:            fields.u64(0x30),
		InitializedSize:     fields.u64(0x38),
	}

	if result.CompressionUnitSize != 0 &&
		cursor.Len() >= COMPRESSED_ATTRIBUTE_HEADER_SIZE {
		result.TotalAllocated = fields.u64(0x40)
	}

	// The run list extends to the end of the attribute.
	runlist_offset := int64(result.RunlistOffset)
	result.runlist = fields.bytes(runlist_offset, cursor.Len()-runlist_offset)
	if fields.err != nil {
		return newParseError(MalformedAttributeError, self.entry_id, self.Offset,
			"run list offset %#x outside attribute %v", runlist_offset, self.attr_type)
	}

	self.NonResident = result
	return nil
}

func (self *NTFS_ATTRIBUTE) PrintStats() string {
	result := []string{self.DebugString()}

	var b []byte
	if self.Resident != nil {
		b = self.Resident.Data()
	} else {
		b = self.NonResident.RunlistBytes()
		runs, err := self.NonResident.DataRuns()
		if err != nil {
			result = append(result, fmt.Sprintf("Runlist error: %v", err))
		}
		result = append(result, fmt.Sprintf("Runlist: %v", runs))
	}

	if len(b) > 100 {
		b = b[:100]
	}

	result = append(result, fmt.Sprintf("Data: \n%s", hex.Dump(b)))
	return strings.Join(result, "\n")
}
