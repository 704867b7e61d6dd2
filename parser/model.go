package parser

import (
	"time"
)

// This file defines a model for MFT entry.

type TimeStamps struct {
	CreateTime       time.Time
	FileModifiedTime time.Time
	MFTModifiedTime  time.Time
	AccessedTime     time.Time
}

type FilenameInfo struct {
	Times         TimeStamps
	Type          string
	Name          string
	ParentEntryId uint64
	ParentSeq     uint16
}

type Attribute struct {
	Type     string
	TypeId   uint64
	Id       uint64
	Inode    string
	Size     int64
	Name     string
	Resident bool
}

// Describe a single MFT entry.
type NTFSFileInformation struct {
	MFTID          int64
	SequenceNumber uint16
	Size           int64
	Allocated      bool
	IsDir          bool
	Corrupt        bool
	SI_Times       *TimeStamps

	// If multiple filenames are given, we list them here.
	Filenames []*FilenameInfo

	Attributes []*Attribute

	// Attributes which failed to decode.
	Errors []string
}

// Out of range timestamps are reported as the zero time.
func timeOrZero(t WinFileTime) time.Time {
	result, err := t.Time()
	if err != nil {
		return time.Time{}
	}
	return result
}

func ModelMFTEntry(mft_entry *MFT_ENTRY) (*NTFSFileInformation, error) {
	mft_id := mft_entry.EntryId()

	result := &NTFSFileInformation{
		MFTID:          mft_id,
		SequenceNumber: mft_entry.Sequence_value(),
		Allocated:      mft_entry.Flags().IsSet(MFT_ENTRY_ALLOCATED),
		IsDir:          mft_entry.IsDir(),
		Corrupt:        mft_entry.IsCorrupt(),
	}

	formatter := &InodeFormatter{}

	it := mft_entry.Attributes()
	for {
		attr, err := it.Next()
		if it.Done() {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		attr_type := attr.Type()
		attr_id := attr.Attribute_id()

		switch attr_type {
		case ATTR_TYPE_DATA:
			if result.Size == 0 && attr.Name() == "" {
				result.Size = attr.DataSize()
			}

		case ATTR_TYPE_STANDARD_INFORMATION:
			content, err := attr.Content()
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				break
			}

			si, ok := content.(*STANDARD_INFORMATION)
			if ok && result.SI_Times == nil {
				result.SI_Times = &TimeStamps{
					CreateTime:       timeOrZero(si.Create_time()),
					FileModifiedTime: timeOrZero(si.File_altered_time()),
					MFTModifiedTime:  timeOrZero(si.Mft_altered_time()),
					AccessedTime:     timeOrZero(si.File_accessed_time()),
				}
			}

		case ATTR_TYPE_FILE_NAME:
			content, err := attr.Content()
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				break
			}

			filename, ok := content.(*FILE_NAME)
			if ok {
				result.Filenames = append(result.Filenames, &FilenameInfo{
					Times: TimeStamps{
						CreateTime:       timeOrZero(filename.Created()),
						FileModifiedTime: timeOrZero(filename.File_modified()),
						MFTModifiedTime:  timeOrZero(filename.Mft_modified()),
						AccessedTime:     timeOrZero(filename.File_accessed()),
					},
					Type:          filename.NameType().Name(),
					Name:          filename.Name(),
					ParentEntryId: filename.MftReference(),
					ParentSeq:     filename.Seq_num(),
				})
			}
		}

		result.Attributes = append(result.Attributes, &Attribute{
			Type:     attr_type.Name(),
			TypeId:   uint64(attr_type),
			Inode:    formatter.Inode(mft_id, attr_type, attr_id, attr.Name()),
			Size:     attr.DataSize(),
			Id:       uint64(attr_id),
			Name:     attr.Name(),
			Resident: attr.IsResident(),
		})
	}

	return result, nil
}
