package parser

// NTFS protects multi sector records by replacing the last two bytes
// of every sector with an update sequence number (USN). The real
// bytes are stored in the fixup array in the record header, right
// after the USN itself:
//
//	fixup_offset: USN | sector 1 bytes | sector 2 bytes | ...
//
// fixup_count includes the USN so a 1024 byte record with 512 byte
// sectors has a count of 3.

// FixupResult describes a fixup pass over a record.
type FixupResult struct {
	// Number of sector ends restored.
	Applied int

	// Sector ends which did not carry the USN. The original bytes
	// were still written back.
	Mismatched []int

	// The fixup array described more sectors than the record holds.
	Truncated bool

	// The fixup array described fewer sectors than the record
	// holds. The remaining sector ends were never restored.
	Short bool
}

func (self FixupResult) IsCorrupt() bool {
	return len(self.Mismatched) > 0 || self.Truncated || self.Short
}

// ApplyFixups repairs buffer in place. A mismatching sector does not
// stop the process - the record is reported as corrupt but is still
// fixed up so the rest of the table scan can use it. Only a fixup
// array which lies outside the record is an error.
func ApplyFixups(buffer []byte, fixup_offset, fixup_count uint16,
	sector_size int64) (FixupResult, error) {
	result := FixupResult{}

	var sectors int64
	if sector_size > 0 {
		sectors = int64(len(buffer)) / sector_size
	}

	// The USN takes the first slot of the array.
	if int64(fixup_count)-1 < sectors {
		result.Short = true
	}

	if fixup_count == 0 {
		return result, nil
	}

	if sector_size <= 0 {
		return result, newParseError(MalformedHeaderError, -1, int64(fixup_offset),
			"invalid sector size %d", sector_size)
	}

	cursor := NewByteCursor(buffer)
	fixup_table, err := cursor.BytesAt(int64(fixup_offset), int64(fixup_count)*2)
	if err != nil {
		return result, newParseError(MalformedHeaderError, -1, int64(fixup_offset),
			"fixup array of %d entries does not fit in record", fixup_count)
	}

	// Copy the table because restoring sector ends may overwrite
	// the table itself if it is corrupted into a sector end.
	fixup_table = append([]byte{}, fixup_table...)
	fixup_magic := fixup_table[0:2]

	for idx := 1; idx < int(fixup_count); idx++ {
		sector_end := int64(idx)*sector_size - 2
		if sector_end+2 > int64(len(buffer)) {
			result.Truncated = true
			break
		}

		if buffer[sector_end] != fixup_magic[0] ||
			buffer[sector_end+1] != fixup_magic[1] {
			result.Mismatched = append(result.Mismatched, idx-1)
		}

		// Apply the fixup
		buffer[sector_end] = fixup_table[2*idx]
		buffer[sector_end+1] = fixup_table[2*idx+1]
		result.Applied++
	}

	return result, nil
}
