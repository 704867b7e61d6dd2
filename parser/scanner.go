package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

const truncatedRecordMessage = "truncated record"

// A recordSource fills a buffer with the record at index. It returns
// io.EOF when there is no record at index and io.ErrUnexpectedEOF
// when only part of it could be read.
type recordSource interface {
	readRecord(index int64, buffer []byte) error
}

type readerAtSource struct {
	reader io.ReaderAt
	size   int64
}

func (self *readerAtSource) readRecord(index int64, buffer []byte) error {
	offset := index * int64(len(buffer))
	if offset >= self.size {
		return io.EOF
	}

	to_read := CapInt64(int64(len(buffer)), self.size-offset)
	n, err := self.reader.ReadAt(buffer[:to_read], offset)
	if int64(n) == to_read {
		err = nil
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}

	if to_read < int64(len(buffer)) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// Streams are read strictly forward.
type streamSource struct {
	reader io.Reader
	next   int64
}

func (self *streamSource) readRecord(index int64, buffer []byte) error {
	if index < self.next {
		return fmt.Errorf("can not seek backwards in stream from record %d to %d",
			self.next, index)
	}

	if index > self.next {
		skip := (index - self.next) * int64(len(buffer))
		n, err := io.CopyN(io.Discard, self.reader, skip)
		self.next += n / int64(len(buffer))
		if err != nil {
			return err
		}
	}

	_, err := io.ReadFull(self.reader, buffer)
	self.next++
	return err
}

// MFTParser reads the records of an MFT from a byte source.
type MFTParser struct {
	options Options
	source  recordSource

	// -1 for streams.
	size int64

	closer   func() error
	consumed bool
}

// NewMFTParser parses the MFT in reader, which is size bytes long.
func NewMFTParser(reader io.ReaderAt, size int64, options Options) *MFTParser {
	return &MFTParser{
		options: options.normalize(),
		source:  &readerAtSource{reader: reader, size: size},
		size:    size,
	}
}

// NewMFTParserFromStream parses an MFT of unknown length. The stream
// can be iterated only once and does not support GetEntry().
func NewMFTParserFromStream(reader io.Reader, options Options) *MFTParser {
	return &MFTParser{
		options: options.normalize(),
		source:  &streamSource{reader: reader},
		size:    -1,
	}
}

// OpenMFTFile maps an extracted $MFT file. Close() releases it.
func OpenMFTFile(path string, options Options) (*MFTParser, error) {
	_, err := os.Stat(path)
	if err != nil {
		kind := IOError
		if errors.Is(err, os.ErrNotExist) {
			kind = NotFoundError
		}
		return nil, &ParseError{
			Kind: kind, EntryId: -1, Offset: -1,
			Message: path, Cause: err,
		}
	}

	data, closer, err := mapFile(path)
	if err != nil {
		return nil, &ParseError{
			Kind: IOError, EntryId: -1, Offset: -1,
			Message: path, Cause: err,
		}
	}

	result := NewMFTParser(bytes.NewReader(data), int64(len(data)), options)
	result.closer = closer
	return result, nil
}

func (self *MFTParser) Close() error {
	if self.closer != nil {
		err := self.closer()
		self.closer = nil
		return err
	}
	return nil
}

func (self *MFTParser) Options() Options {
	return self.options
}

// EntryCount is the number of record slots including a partial last
// record, or -1 if the source is a stream.
func (self *MFTParser) EntryCount() int64 {
	if self.size < 0 {
		return -1
	}
	return (self.size + self.options.RecordSize - 1) / self.options.RecordSize
}

// GetEntry reads a single record. The error classes are the same as
// for iteration.
func (self *MFTParser) GetEntry(id int64) (*MFT_ENTRY, error) {
	if self.size < 0 {
		return nil, newParseError(IOError, id, -1,
			"stream sources do not support random access")
	}

	if id < 0 || id >= self.EntryCount() {
		return nil, newParseError(NotFoundError, id, -1,
			"entry %d outside table of %d entries", id, self.EntryCount())
	}

	buffer := make([]byte, self.options.RecordSize)
	err := self.source.readRecord(id, buffer)
	if err != nil {
		return nil, self.readError(id, err)
	}
	return ParseMFTEntry(buffer, id, self.options.SectorSize)
}

func (self *MFTParser) readError(id int64, err error) error {
	offset := id * self.options.RecordSize
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return newParseError(MalformedHeaderError, id, offset, truncatedRecordMessage)
	}
	return &ParseError{
		Kind: IOError, EntryId: id, Offset: offset,
		Message: "reading record", Cause: err,
	}
}

// Entries starts a new scan from Options.StartEntry. For streams only
// the first call yields records.
func (self *MFTParser) Entries() *EntryIterator {
	result := &EntryIterator{
		parser: self,
		next:   self.options.StartEntry,
		stats:  &ScanStats{},
		logger: self.options.Logger,
	}

	if self.size < 0 {
		if self.consumed {
			result.state = StateIOError
			result.err = newParseError(IOError, -1, -1, "stream already consumed")
			result.pending = result.err
		}
		self.consumed = true
	}

	return result
}

type IteratorState int

const (
	StateScanning IteratorState = iota
	StateExhausted
	StateIOError
)

func (self IteratorState) String() string {
	switch self {
	case StateScanning:
		return "Scanning"
	case StateExhausted:
		return "Exhausted"
	case StateIOError:
		return "IOError"
	}
	return fmt.Sprintf("IteratorState(%d)", int(self))
}

// EntryIterator yields one result per record slot. Per record errors
// are *ParseError values and the scan continues after them. An
// unreadable source is reported once with an IOError, after which
// Next() returns io.EOF and Err() holds the error.
type EntryIterator struct {
	parser *MFTParser
	next   int64
	read   int64
	state  IteratorState
	err    error
	stats  *ScanStats

	// Reported by the next call before ending the sequence.
	pending error

	logger *zap.Logger
}

func (self *EntryIterator) State() IteratorState {
	return self.state
}

// Err is the error which terminated the scan, if any.
func (self *EntryIterator) Err() error {
	return self.err
}

func (self *EntryIterator) Stats() *ScanStats {
	return self.stats
}

// NextEntryId is the slot index the next call will read.
func (self *EntryIterator) NextEntryId() int64 {
	return self.next
}

func (self *EntryIterator) Next() (*MFT_ENTRY, error) {
	if self.pending != nil {
		err := self.pending
		self.pending = nil
		return nil, err
	}

	if self.state != StateScanning {
		return nil, io.EOF
	}

	options := self.parser.options
	if options.MaxEntries > 0 && self.read >= options.MaxEntries {
		self.state = StateExhausted
		return nil, io.EOF
	}

	id := self.next
	buffer := make([]byte, options.RecordSize)
	err := self.parser.source.readRecord(id, buffer)

	// The next record is always at the next slot whatever happens to
	// this one.
	self.next++

	if err != nil {
		if errors.Is(err, io.EOF) {
			self.state = StateExhausted
			return nil, io.EOF
		}

		err = self.parser.readError(id, err)
		if errors.Is(err, IOError) {
			self.state = StateIOError
			self.err = err
			self.read++
			self.stats.addRecord(nil, err)
			self.logger.Error("MFT read failed",
				zap.Int64("entry_id", id), zap.Error(err))
			return nil, err
		}

		// A partial record ends the table.
		self.state = StateExhausted
		self.read++
		self.stats.addRecord(nil, err)
		self.logger.Debug("skipped record",
			zap.Int64("entry_id", id), zap.Error(err))
		return nil, err
	}

	self.read++
	entry, err := ParseMFTEntry(buffer, id, options.SectorSize)
	self.stats.addRecord(entry, err)

	if err != nil {
		self.logger.Debug("skipped record",
			zap.Int64("entry_id", id),
			zap.Int64("offset", id*options.RecordSize),
			zap.Error(err))
		return nil, err
	}

	if entry.IsCorrupt() {
		self.logger.Debug("fixup mismatch",
			zap.Int64("entry_id", id),
			zap.Ints("sectors", entry.Fixup().Mismatched),
			zap.Bool("truncated", entry.Fixup().Truncated),
			zap.Bool("short", entry.Fixup().Short))
	}

	return entry, nil
}
