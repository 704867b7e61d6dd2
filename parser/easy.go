package parser

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseMFTId parses an inode string of the form entry[-type[-id]].
// The attribute type defaults to $DATA and the id to -1 (any).
func ParseMFTId(mft_id string) (mft_idx int64, attr int64, id int64, err error) {
	components := []int64{}
	components_str := strings.Split(mft_id, "-")
	for _, component_str := range components_str {
		x, err := strconv.ParseInt(component_str, 0, 64)
		if err != nil || x < 0 {
			return 0, 0, 0, errors.New("Incorrect format for MFTId: e.g. 5-128-1")
		}

		components = append(components, x)
	}

	switch len(components) {
	case 1:
		return components[0], int64(ATTR_TYPE_DATA), -1, nil
	case 2:
		return components[0], components[1], -1, nil
	case 3:
		return components[0], components[1], components[2], nil
	default:
		return 0, 0, 0, errors.New("Incorrect format for MFTId: e.g. 5-128-1")
	}
}

// MFTHighlight is a flat summary of one entry, one row per entry and
// an extra row per alternate data stream.
type MFTHighlight struct {
	EntryNumber          int64
	Inode                string
	SequenceNumber       uint16
	InUse                bool
	ParentEntryNumber    uint64
	ParentSequenceNumber uint16
	FileNames            []string
	_FileNameTypes       []string
	FileSize             int64
	ReferenceCount       int64
	IsDir                bool
	HasADS               bool
	SI_Lt_FN             bool
	USecZeros            bool
	Copied               bool
	SIFlags              string
	Created0x10          time.Time
	Created0x30          time.Time
	LastModified0x10     time.Time
	LastModified0x30     time.Time
	LastRecordChange0x10 time.Time
	LastRecordChange0x30 time.Time
	LastAccess0x10       time.Time
	LastAccess0x30       time.Time

	LogFileSeqNum uint64

	mft_entry *MFT_ENTRY
	ads_name  string
}

func (self *MFTHighlight) Copy() *MFTHighlight {
	result := *self
	return &result
}

func (self *MFTHighlight) Entry() *MFT_ENTRY {
	return self.mft_entry
}

// The alternate data stream this row describes, if any.
func (self *MFTHighlight) ADSName() string {
	return self.ads_name
}

func (self *MFTHighlight) FileNameTypes() string {
	return strings.Join(self._FileNameTypes, ",")
}

// FileName prefers the long name over the DOS short name.
func (self *MFTHighlight) FileName() string {
	short_name := ""
	for idx, name := range self.FileNames {
		name_type := self._FileNameTypes[idx]
		switch name_type {
		case "Win32", "DOS+Win32", "POSIX":
			return name
		default:
			short_name = name
		}
	}

	return short_name
}

// NewMFTHighlight summarizes an entry. Entries without a
// $STANDARD_INFORMATION or a $FILE_NAME give nil.
func NewMFTHighlight(mft_entry *MFT_ENTRY) (*MFTHighlight, []*MFTHighlight) {
	var file_names []*FILE_NAME
	var file_name_types []string
	var file_name_strings []string

	var si *STANDARD_INFORMATION
	var size int64
	ads := []string{}
	ads_sizes := []int64{}
	si_flags := ""

	for _, attr := range mft_entry.EnumerateAttributes() {
		switch attr.Type() {
		case ATTR_TYPE_DATA:
			// Check if the stream has ADS
			attr_name := attr.Name()
			if attr_name != "" {
				ads = append(ads, attr_name)
				ads_sizes = append(ads_sizes, attr.DataSize())
			} else if size == 0 {
				size = attr.DataSize()
			}

		case ATTR_TYPE_FILE_NAME:
			content, err := attr.Content()
			if err != nil {
				continue
			}
			res, ok := content.(*FILE_NAME)
			if !ok {
				continue
			}
			file_names = append(file_names, res)
			file_name_types = append(file_name_types, res.NameType().Name())
			file_name_strings = append(file_name_strings, res.Name())

		case ATTR_TYPE_STANDARD_INFORMATION:
			content, err := attr.Content()
			if err != nil {
				continue
			}
			res, ok := content.(*STANDARD_INFORMATION)
			if !ok {
				continue
			}
			si = res
			si_flags = si.Flags().DebugString()
		}
	}

	if len(file_names) == 0 || si == nil {
		return nil, nil
	}

	mft_id := mft_entry.EntryId()
	row := &MFTHighlight{
		EntryNumber:          mft_id,
		Inode:                strconv.FormatInt(mft_id, 10),
		SequenceNumber:       mft_entry.Sequence_value(),
		InUse:                mft_entry.Flags().IsSet(MFT_ENTRY_ALLOCATED),
		ParentEntryNumber:    file_names[0].MftReference(),
		ParentSequenceNumber: file_names[0].Seq_num(),
		FileNames:            file_name_strings,
		_FileNameTypes:       file_name_types,
		FileSize:             size,
		ReferenceCount:       int64(mft_entry.Link_count()),
		IsDir:                mft_entry.Flags().IsSet(MFT_ENTRY_DIRECTORY),
		HasADS:               len(ads) > 0,
		SIFlags:              si_flags,
		Created0x10:          timeOrZero(si.Create_time()),
		Created0x30:          timeOrZero(file_names[0].Created()),
		LastModified0x10:     timeOrZero(si.File_altered_time()),
		LastModified0x30:     timeOrZero(file_names[0].File_modified()),
		LastRecordChange0x10: timeOrZero(si.Mft_altered_time()),
		LastRecordChange0x30: timeOrZero(file_names[0].Mft_modified()),
		LastAccess0x10:       timeOrZero(si.File_accessed_time()),
		LastAccess0x30:       timeOrZero(file_names[0].File_accessed()),
		LogFileSeqNum:        mft_entry.Logfile_sequence_number(),

		mft_entry: mft_entry,
	}

	row.SI_Lt_FN = row.Created0x10.Before(row.Created0x30)
	row.USecZeros = row.Created0x10.Unix()*1000000000 ==
		row.Created0x10.UnixNano() ||
		row.LastModified0x10.Unix()*1000000000 == row.LastModified0x10.UnixNano()
	row.Copied = row.Created0x10.After(row.LastModified0x10)

	// Duplicate ADS names so we can easily search on them.
	ads_rows := make([]*MFTHighlight, 0, len(ads))
	for idx, ads_name := range ads {
		new_row := row.Copy()

		// Convert all the names to have an ADS at the end (long
		// name + ":" + ads, short name + ":" + ads etc).
		file_names := []string{}
		for _, name := range new_row.FileNames {
			file_names = append(file_names, name+":"+ads_name)
		}
		new_row.FileNames = file_names
		new_row.IsDir = false
		new_row.ads_name = ads_name
		new_row.FileSize = ads_sizes[idx]
		new_row.Inode += ":" + ads_name
		ads_rows = append(ads_rows, new_row)
	}

	return row, ads_rows
}

// ParseMFTFile streams summary rows for every entry in the MFT. The
// channel is closed at the end of the table, on an IO error or when
// ctx is done.
func ParseMFTFile(
	ctx context.Context,
	reader io.ReaderAt,
	size int64,
	options Options) chan *MFTHighlight {
	output := make(chan *MFTHighlight)

	go func() {
		defer close(output)

		parser := NewMFTParser(reader, size, options)
		defer parser.Close()

		it := parser.Entries()
		for {
			mft_entry, err := it.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				continue
			}

			row, ads_rows := NewMFTHighlight(mft_entry)
			if row == nil {
				continue
			}

			for _, r := range append([]*MFTHighlight{row}, ads_rows...) {
				// Check for cancellations.
				if ctx.Err() != nil {
					return
				}

				select {
				case <-ctx.Done():
					return

				case output <- r:
				}
			}
		}
	}()

	return output
}
