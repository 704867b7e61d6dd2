package parser

import (
	"encoding/binary"
)

// ByteCursor is a bounds checked reader over a byte buffer. Every
// field extraction in this package goes through a cursor so a
// corrupted length or offset can never read past the end of the
// record.
//
// Sequential reads advance the position, the *At() variants do not.
type ByteCursor struct {
	buffer []byte
	offset int64
}

func NewByteCursor(buffer []byte) *ByteCursor {
	return &ByteCursor{buffer: buffer}
}

func (self *ByteCursor) Len() int64 {
	return int64(len(self.buffer))
}

func (self *ByteCursor) Tell() int64 {
	return self.offset
}

func (self *ByteCursor) Remaining() int64 {
	if self.offset >= int64(len(self.buffer)) {
		return 0
	}
	return int64(len(self.buffer)) - self.offset
}

// Seek sets the absolute position. Seeking to the end is allowed,
// seeking past it is not.
func (self *ByteCursor) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(self.buffer)) {
		return newParseError(OutOfBoundsError, -1, offset,
			"seek past end of %d byte buffer", len(self.buffer))
	}
	self.offset = offset
	return nil
}

// BytesAt returns a view of n bytes at offset. The view aliases the
// underlying buffer.
func (self *ByteCursor) BytesAt(offset int64, n int64) ([]byte, error) {
	if offset < 0 || n < 0 || offset > int64(len(self.buffer)) ||
		n > int64(len(self.buffer))-offset {
		return nil, newParseError(OutOfBoundsError, -1, offset,
			"read of %d bytes exceeds %d byte buffer", n, len(self.buffer))
	}
	return self.buffer[offset : offset+n], nil
}

func (self *ByteCursor) Read(n int64) ([]byte, error) {
	result, err := self.BytesAt(self.offset, n)
	if err != nil {
		return nil, err
	}
	self.offset += n
	return result, nil
}

// Sub returns a new cursor over n bytes at offset. Offsets inside
// the new cursor are relative to offset.
func (self *ByteCursor) Sub(offset int64, n int64) (*ByteCursor, error) {
	buffer, err := self.BytesAt(offset, n)
	if err != nil {
		return nil, err
	}
	return NewByteCursor(buffer), nil
}

func (self *ByteCursor) Uint8At(offset int64) (uint8, error) {
	b, err := self.BytesAt(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (self *ByteCursor) Uint16At(offset int64) (uint16, error) {
	b, err := self.BytesAt(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (self *ByteCursor) Uint32At(offset int64) (uint32, error) {
	b, err := self.BytesAt(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (self *ByteCursor) Uint64At(offset int64) (uint64, error) {
	b, err := self.BytesAt(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (self *ByteCursor) Uint8() (uint8, error) {
	result, err := self.Uint8At(self.offset)
	if err == nil {
		self.offset++
	}
	return result, err
}

func (self *ByteCursor) Uint16() (uint16, error) {
	result, err := self.Uint16At(self.offset)
	if err == nil {
		self.offset += 2
	}
	return result, err
}

func (self *ByteCursor) Uint32() (uint32, error) {
	result, err := self.Uint32At(self.offset)
	if err == nil {
		self.offset += 4
	}
	return result, err
}

func (self *ByteCursor) Uint64() (uint64, error) {
	result, err := self.Uint64At(self.offset)
	if err == nil {
		self.offset += 8
	}
	return result, err
}

// fieldReader reads a run of fixed offset fields and remembers the
// first failure so decoders do not need an error check per field.
type fieldReader struct {
	cursor *ByteCursor
	err    error
}

func (self *fieldReader) u8(offset int64) uint8 {
	if self.err != nil {
		return 0
	}
	v, err := self.cursor.Uint8At(offset)
	self.err = err
	return v
}

func (self *fieldReader) u16(offset int64) uint16 {
	if self.err != nil {
		return 0
	}
	v, err := self.cursor.Uint16At(offset)
	self.err = err
	return v
}

func (self *fieldReader) u32(offset int64) uint32 {
	if self.err != nil {
		return 0
	}
	v, err := self.cursor.Uint32At(offset)
	self.err = err
	return v
}

func (self *fieldReader) u64(offset int64) uint64 {
	if self.err != nil {
		return 0
	}
	v, err := self.cursor.Uint64At(offset)
	self.err = err
	return v
}

func (self *fieldReader) bytes(offset, length int64) []byte {
	if self.err != nil {
		return nil
	}
	v, err := self.cursor.BytesAt(offset, length)
	self.err = err
	return v
}
