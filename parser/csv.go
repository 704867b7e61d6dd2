package parser

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// Columns written by HighlightCSVWriter, one per MFTHighlight field.
var HighlightCSVHeader = []string{
	"EntryNumber", "Inode", "SequenceNumber", "InUse",
	"ParentEntryNumber", "ParentSequenceNumber",
	"FileName", "FileNameTypes", "FileSize", "ReferenceCount",
	"IsDir", "HasADS", "SI_Lt_FN", "USecZeros", "Copied", "SIFlags",
	"Created0x10", "Created0x30",
	"LastModified0x10", "LastModified0x30",
	"LastRecordChange0x10", "LastRecordChange0x30",
	"LastAccess0x10", "LastAccess0x30",
	"LogFileSeqNum",
}

func csvTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// CSVRow flattens the row in HighlightCSVHeader order.
func (self *MFTHighlight) CSVRow() []string {
	return []string{
		strconv.FormatInt(self.EntryNumber, 10),
		self.Inode,
		strconv.FormatUint(uint64(self.SequenceNumber), 10),
		strconv.FormatBool(self.InUse),
		strconv.FormatUint(self.ParentEntryNumber, 10),
		strconv.FormatUint(uint64(self.ParentSequenceNumber), 10),
		self.FileName(),
		self.FileNameTypes(),
		strconv.FormatInt(self.FileSize, 10),
		strconv.FormatInt(self.ReferenceCount, 10),
		strconv.FormatBool(self.IsDir),
		strconv.FormatBool(self.HasADS),
		strconv.FormatBool(self.SI_Lt_FN),
		strconv.FormatBool(self.USecZeros),
		strconv.FormatBool(self.Copied),
		self.SIFlags,
		csvTime(self.Created0x10),
		csvTime(self.Created0x30),
		csvTime(self.LastModified0x10),
		csvTime(self.LastModified0x30),
		csvTime(self.LastRecordChange0x10),
		csvTime(self.LastRecordChange0x30),
		csvTime(self.LastAccess0x10),
		csvTime(self.LastAccess0x30),
		strconv.FormatUint(self.LogFileSeqNum, 10),
	}
}

// HighlightCSVWriter writes summary rows as CSV. The header is
// written before the first row, or on Flush if there were no rows.
type HighlightCSVWriter struct {
	writer         *csv.Writer
	header_written bool
}

func NewHighlightCSVWriter(out io.Writer) *HighlightCSVWriter {
	return &HighlightCSVWriter{writer: csv.NewWriter(out)}
}

func (self *HighlightCSVWriter) writeHeader() error {
	if self.header_written {
		return nil
	}
	self.header_written = true
	return self.writer.Write(HighlightCSVHeader)
}

func (self *HighlightCSVWriter) Write(row *MFTHighlight) error {
	err := self.writeHeader()
	if err != nil {
		return err
	}
	return self.writer.Write(row.CSVRow())
}

func (self *HighlightCSVWriter) Flush() error {
	err := self.writeHeader()
	if err != nil {
		return err
	}
	self.writer.Flush()
	return self.writer.Error()
}
