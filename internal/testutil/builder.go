// Package testutil synthesizes MFT records for tests. Records are
// built field by field and then protected with an update sequence
// array exactly as NTFS writes them to disk.
package testutil

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/text/encoding/unicode"
)

const (
	RecordSize  = 1024
	SectorSize  = 512
	FixupOffset = 0x30

	DefaultUSN = 0x0102

	filetimeEpochDelta = 11644473600
)

var le = binary.LittleEndian

func align8(v int) int {
	return (v + 7) &^ 7
}

// UTF16 encodes a name the way NTFS stores it.
func UTF16(name string) []byte {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	result, err := encoder.Bytes([]byte(name))
	if err != nil {
		panic(err)
	}
	return result
}

// Filetime converts a time to FILETIME ticks.
func Filetime(t time.Time) uint64 {
	return uint64(t.Unix()+filetimeEpochDelta)*10000000 +
		uint64(t.Nanosecond()/100)
}

// Record builds one MFT record.
type Record struct {
	Size       int
	SectorSize int
	USN        uint16

	LSN           uint64
	Sequence      uint16
	LinkCount     uint16
	Flags         uint16
	BaseReference uint64
	NextAttrId    uint16
	RecordNumber  uint32

	attributes [][]byte
}

func NewRecord(record_number uint32) *Record {
	return &Record{
		Size:         RecordSize,
		SectorSize:   SectorSize,
		USN:          DefaultUSN,
		Sequence:     1,
		LinkCount:    1,
		Flags:        0x1,
		RecordNumber: record_number,
	}
}

func (self *Record) AddAttribute(attr []byte) *Record {
	self.attributes = append(self.attributes, attr)
	self.NextAttrId++
	return self
}

func (self *Record) FixupCount() int {
	return self.Size/self.SectorSize + 1
}

// FirstAttributeOffset is right after the fixup array.
func (self *Record) FirstAttributeOffset() int {
	return align8(FixupOffset + 2*self.FixupCount())
}

// AttributeOffset is the record offset of the idx'th attribute.
func (self *Record) AttributeOffset(idx int) int {
	offset := self.FirstAttributeOffset()
	for i := 0; i < idx; i++ {
		offset += len(self.attributes[i])
	}
	return offset
}

// UsedSize includes the end marker.
func (self *Record) UsedSize() int {
	return self.AttributeOffset(len(self.attributes)) + 8
}

// Bytes lays out the record and applies the update sequence array.
func (self *Record) Bytes() []byte {
	buf := make([]byte, self.Size)
	used := self.UsedSize()
	if used > self.Size {
		panic(fmt.Sprintf("attributes of %d bytes do not fit a %d byte record",
			used, self.Size))
	}

	copy(buf, "FILE")
	le.PutUint16(buf[0x04:], FixupOffset)
	le.PutUint16(buf[0x06:], uint16(self.FixupCount()))
	le.PutUint64(buf[0x08:], self.LSN)
	le.PutUint16(buf[0x10:], self.Sequence)
	le.PutUint16(buf[0x12:], self.LinkCount)
	le.PutUint16(buf[0x14:], uint16(self.FirstAttributeOffset()))
	le.PutUint16(buf[0x16:], self.Flags)
	le.PutUint32(buf[0x18:], uint32(used))
	le.PutUint32(buf[0x1C:], uint32(self.Size))
	le.PutUint64(buf[0x20:], self.BaseReference)
	le.PutUint16(buf[0x28:], self.NextAttrId)
	le.PutUint32(buf[0x2C:], self.RecordNumber)

	offset := self.FirstAttributeOffset()
	for _, attr := range self.attributes {
		copy(buf[offset:], attr)
		offset += len(attr)
	}
	le.PutUint32(buf[offset:], 0xFFFFFFFF)

	ProtectRecord(buf, self.USN, self.SectorSize)
	return buf
}

// ProtectRecord moves the last two bytes of every sector into the
// fixup array and replaces them with the USN. The fixup array must
// already be described by the header.
func ProtectRecord(buf []byte, usn uint16, sector_size int) {
	fixup_offset := int(le.Uint16(buf[0x04:]))
	fixup_count := int(le.Uint16(buf[0x06:]))

	le.PutUint16(buf[fixup_offset:], usn)
	for i := 1; i < fixup_count; i++ {
		pos := i*sector_size - 2
		copy(buf[fixup_offset+2*i:], buf[pos:pos+2])
		le.PutUint16(buf[pos:], usn)
	}
}

// CorruptSector overwrites the USN at the end of a sector (1 based)
// as a torn write would.
func CorruptSector(buf []byte, sector int, sector_size int) {
	pos := sector*sector_size - 2
	buf[pos] ^= 0xFF
	buf[pos+1] ^= 0xFF
}

// ResidentAttribute encodes an attribute with its content inline.
func ResidentAttribute(attr_type uint32, id uint16, name string, content []byte) []byte {
	encoded_name := UTF16(name)
	content_offset := align8(0x18 + len(encoded_name))
	length := align8(content_offset + len(content))

	buf := make([]byte, length)
	le.PutUint32(buf[0x00:], attr_type)
	le.PutUint32(buf[0x04:], uint32(length))
	buf[0x08] = 0
	buf[0x09] = uint8(len(encoded_name) / 2)
	le.PutUint16(buf[0x0A:], 0x18)
	le.PutUint16(buf[0x0E:], id)
	le.PutUint32(buf[0x10:], uint32(len(content)))
	le.PutUint16(buf[0x14:], uint16(content_offset))

	copy(buf[0x18:], encoded_name)
	copy(buf[content_offset:], content)
	return buf
}

type NonResident struct {
	StartVCN        uint64
	LastVCN         uint64
	CompressionUnit uint16
	AllocatedSize   uint64
	RealSize        uint64
	InitializedSize uint64
	Runs            []byte
}

// NonResidentAttribute encodes an attribute whose data is described
// by a run list.
func NonResidentAttribute(attr_type uint32, id uint16, name string, nr NonResident) []byte {
	encoded_name := UTF16(name)
	runlist_offset := align8(0x40 + len(encoded_name))
	length := align8(runlist_offset + len(nr.Runs))

	buf := make([]byte, length)
	le.PutUint32(buf[0x00:], attr_type)
	le.PutUint32(buf[0x04:], uint32(length))
	buf[0x08] = 1
	buf[0x09] = uint8(len(encoded_name) / 2)
	le.PutUint16(buf[0x0A:], 0x40)
	le.PutUint16(buf[0x0E:], id)
	le.PutUint64(buf[0x10:], nr.StartVCN)
	le.PutUint64(buf[0x18:], nr.LastVCN)
	le.PutUint16(buf[0x20:], uint16(runlist_offset))
	le.PutUint16(buf[0x22:], nr.CompressionUnit)
	le.PutUint64(buf[0x28:], nr.AllocatedSize)
	le.PutUint64(buf[0x30:], nr.RealSize)
	le.PutUint64(buf[0x38:], nr.InitializedSize)

	copy(buf[0x40:], encoded_name)
	copy(buf[runlist_offset:], nr.Runs)
	return buf
}

// Run is one extent to encode. Offset is relative to the previous
// run and ignored for sparse runs.
type Run struct {
	Length uint64
	Offset int64
	Sparse bool
}

func unsignedSize(v uint64) int {
	size := 1
	for v > 0xFF {
		v >>= 8
		size++
	}
	return size
}

func signedSize(v int64) int {
	size := 1
	for v < -0x80 || v > 0x7F {
		v >>= 8
		size++
	}
	return size
}

// EncodeRuns encodes a run list with the minimal field sizes and the
// terminating zero byte.
func EncodeRuns(runs ...Run) []byte {
	result := []byte{}
	for _, run := range runs {
		length_size := unsignedSize(run.Length)
		offset_size := 0
		if !run.Sparse {
			offset_size = signedSize(run.Offset)
		}

		result = append(result, byte(offset_size<<4|length_size))

		field := make([]byte, 8)
		le.PutUint64(field, run.Length)
		result = append(result, field[:length_size]...)

		le.PutUint64(field, uint64(run.Offset))
		result = append(result, field[:offset_size]...)
	}
	return append(result, 0)
}

// Timestamps in FILETIME ticks: created, modified, mft modified,
// accessed.
type Times [4]uint64

func SameTimes(t time.Time) Times {
	ft := Filetime(t)
	return Times{ft, ft, ft, ft}
}

// StandardInformation encodes $STANDARD_INFORMATION content. The
// short form is the NTFS 1.2 layout.
func StandardInformation(times Times, flags uint32, extended bool) []byte {
	size := 0x30
	if extended {
		size = 0x48
	}

	buf := make([]byte, size)
	for i, t := range times {
		le.PutUint64(buf[i*8:], t)
	}
	le.PutUint32(buf[0x20:], flags)

	if extended {
		le.PutUint32(buf[0x30:], 0)     // owner
		le.PutUint32(buf[0x34:], 0x100) // security id
		le.PutUint64(buf[0x38:], 0)     // quota
		le.PutUint64(buf[0x40:], 0x2000)
	}
	return buf
}

type FileName struct {
	Parent        uint64
	Times         Times
	AllocatedSize uint64
	RealSize      uint64
	Flags         uint32
	Namespace     uint8
	Name          string
}

// Reference packs an entry number and sequence number.
func Reference(entry uint64, sequence uint16) uint64 {
	return uint64(sequence)<<48 | entry
}

func (self FileName) Bytes() []byte {
	name := UTF16(self.Name)
	buf := make([]byte, 0x42+len(name))
	le.PutUint64(buf[0x00:], self.Parent)
	for i, t := range self.Times {
		le.PutUint64(buf[0x08+i*8:], t)
	}
	le.PutUint64(buf[0x28:], self.AllocatedSize)
	le.PutUint64(buf[0x30:], self.RealSize)
	le.PutUint32(buf[0x38:], self.Flags)
	buf[0x40] = uint8(len(name) / 2)
	buf[0x41] = self.Namespace
	copy(buf[0x42:], name)
	return buf
}

// IndexEntry encodes an index node entry with an optional key. The
// last entry carries no key.
func IndexEntry(reference uint64, key []byte, last bool) []byte {
	length := align8(0x10 + len(key))
	buf := make([]byte, length)
	le.PutUint64(buf[0x00:], reference)
	le.PutUint16(buf[0x08:], uint16(length))
	le.PutUint16(buf[0x0A:], uint16(len(key)))
	if last {
		le.PutUint32(buf[0x0C:], 0x2)
	}
	copy(buf[0x10:], key)
	return buf
}

// IndexRoot encodes a small $I30 index root holding entries.
func IndexRoot(entries ...[]byte) []byte {
	node := []byte{}
	for _, e := range entries {
		node = append(node, e...)
	}

	buf := make([]byte, 0x20+len(node))
	le.PutUint32(buf[0x00:], 0x30) // indexes $FILE_NAME
	le.PutUint32(buf[0x04:], 1)    // COLLATION_FILENAME
	le.PutUint32(buf[0x08:], 4096)
	buf[0x0C] = 1

	le.PutUint32(buf[0x10:], 0x10)
	le.PutUint32(buf[0x14:], uint32(0x10+len(node)))
	le.PutUint32(buf[0x18:], uint32(0x10+len(node)))
	copy(buf[0x20:], node)
	return buf
}

// ObjectId encodes a $OBJECT_ID of one GUID per argument.
func ObjectId(guids ...[16]byte) []byte {
	result := []byte{}
	for _, g := range guids {
		result = append(result, g[:]...)
	}
	return result
}

// ZeroRecord is an unused slot.
func ZeroRecord() []byte {
	return make([]byte, RecordSize)
}

// GarbageRecord has no FILE signature.
func GarbageRecord(fill byte) []byte {
	buf := make([]byte, RecordSize)
	for i := range buf {
		buf[i] = fill
	}
	copy(buf, "BAAD")
	return buf
}

// Table concatenates records into an MFT.
func Table(records ...[]byte) []byte {
	result := []byte{}
	for _, r := range records {
		result = append(result, r...)
	}
	return result
}
