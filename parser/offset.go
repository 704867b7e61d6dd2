package parser

import "io"

// OffsetReader exposes a region of a larger image, e.g. an MFT found
// by carving, as a reader starting at 0.
type OffsetReader struct {
	Offset int64
	Reader io.ReaderAt
}

func (self *OffsetReader) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, io.EOF
	}
	return self.Reader.ReadAt(buf, offset+self.Offset)
}

// Size of the region given the size of the underlying image.
func (self *OffsetReader) Size(image_size int64) int64 {
	if image_size <= self.Offset {
		return 0
	}
	return image_size - self.Offset
}
