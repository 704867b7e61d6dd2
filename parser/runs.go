package parser

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataRun is one extent of a non-resident attribute.
type DataRun struct {
	// Length of the run in clusters.
	Length uint64

	// Signed distance in clusters from the previous run's start. 0
	// for sparse runs.
	RelativeLCNOffset int64

	// Absolute start cluster reconstructed from the relative
	// offsets. Meaningless for sparse runs.
	LCN int64

	// First VCN of the run relative to the attribute's start VCN.
	VCN uint64

	// Sparse runs have no clusters on disk.
	IsSparse bool
}

func (self DataRun) String() string {
	if self.IsSparse {
		return fmt.Sprintf("{VCN %d Sparse Length %d}", self.VCN, self.Length)
	}
	return fmt.Sprintf("{VCN %d LCN %d (%+d) Length %d}",
		self.VCN, self.LCN, self.RelativeLCNOffset, self.Length)
}

// DecodeDataRuns decodes an encoded run list. Each run starts with a
// header byte: the low nibble is the size of the length field and
// the high nibble the size of the signed offset field. A zero header
// byte (or the end of the buffer) terminates the list.
func DecodeDataRuns(buffer []byte) ([]DataRun, error) {
	result := []DataRun{}

	length_buffer := make([]byte, 8)
	offset_buffer := make([]byte, 8)

	lcn := int64(0)
	vcn := uint64(0)

	for offset := 0; offset < len(buffer); {
		// Consume the first byte off the stream.
		idx := buffer[offset]
		if idx == 0 {
			break
		}

		length_size := int(idx & 0xF)
		run_offset_size := int(idx >> 4)
		if length_size == 0 || length_size > 8 || run_offset_size > 8 {
			return result, newParseError(MalformedContentError, -1, int64(offset),
				"invalid run header %#x", idx)
		}
		offset += 1

		if offset+length_size+run_offset_size > len(buffer) {
			return result, newParseError(MalformedContentError, -1, int64(offset),
				"run of %d bytes truncated", length_size+run_offset_size)
		}

		// Pad out to 8 bytes
		for i := 0; i < 8; i++ {
			if i < length_size {
				length_buffer[i] = buffer[offset]
				offset++
			} else {
				length_buffer[i] = 0
			}
		}

		// Sign extend if the last byte is larger than 0x80.
		var sign byte = 0x00
		for i := 0; i < 8; i++ {
			if i == run_offset_size-1 &&
				buffer[offset]&0x80 != 0 {
				sign = 0xFF
			}

			if i < run_offset_size {
				offset_buffer[i] = buffer[offset]
				offset++
			} else {
				offset_buffer[i] = sign
			}
		}

		run_length := binary.LittleEndian.Uint64(length_buffer)

		// A zero length run also ends the list.
		if run_length == 0 {
			break
		}

		run := DataRun{
			Length: run_length,
			VCN:    vcn,
		}

		if run_offset_size == 0 {
			run.IsSparse = true

		} else {
			relative := int64(binary.LittleEndian.Uint64(offset_buffer))
			if relative > 0 && lcn > math.MaxInt64-relative {
				return result, newParseError(MalformedContentError, -1, int64(offset),
					"run offset %d overflows", relative)
			}

			lcn += relative
			if lcn < 0 {
				return result, newParseError(MalformedContentError, -1, int64(offset),
					"run offset %d gives negative LCN %d", relative, lcn)
			}

			run.RelativeLCNOffset = relative
			run.LCN = lcn
		}

		result = append(result, run)
		vcn += run_length
	}

	return result, nil
}

// Total clusters described by the runs.
func ClusterCount(runs []DataRun) uint64 {
	result := uint64(0)
	for _, r := range runs {
		result += r.Length
	}
	return result
}
