package parser

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ParseUTF16String decodes little endian UTF-16 without a BOM. NTFS
// names are not guaranteed to be valid UTF-16 (unpaired surrogates
// are legal on disk), invalid sequences decode to U+FFFD.
func ParseUTF16String(buffer []byte) string {
	if len(buffer)%2 != 0 {
		buffer = buffer[:len(buffer)-1]
	}

	// NewDecoder() is stateful so each call gets its own.
	result, err := utf16Decoder.NewDecoder().Bytes(buffer)
	if err != nil {
		return ""
	}
	return string(result)
}

// Read a UTF-16 string of length code units at offset.
func readUTF16(cursor *ByteCursor, offset int64, length int64) (string, error) {
	buffer, err := cursor.BytesAt(offset, length*2)
	if err != nil {
		return "", err
	}
	return ParseUTF16String(buffer), nil
}

func CapInt64(v int64, max int64) int64 {
	if v > max {
		return max
	}
	return v
}

func isZero(buffer []byte) bool {
	for _, b := range buffer {
		if b != 0 {
			return false
		}
	}
	return true
}
