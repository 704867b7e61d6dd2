package parser

import (
	"errors"
	"sync"

	"github.com/Velocidex/ordereddict"
)

// ScanStats counts the records an entry iterator has produced so
// far. Attributes are decoded lazily by the caller so they are not
// counted here. It is safe to read from another goroutine while the
// scan is running.
type ScanStats struct {
	mu sync.Mutex

	Records           int64
	Entries           int64
	UnusedSlots       int64
	InvalidSignatures int64
	MalformedHeaders  int64
	CorruptFixups     int64
	IOErrors          int64
	TruncatedRecords  int64
}

// Snapshot returns a copy without the lock.
func (self *ScanStats) Snapshot() ScanStats {
	self.mu.Lock()
	defer self.mu.Unlock()

	return ScanStats{
		Records:           self.Records,
		Entries:           self.Entries,
		UnusedSlots:       self.UnusedSlots,
		InvalidSignatures: self.InvalidSignatures,
		MalformedHeaders:  self.MalformedHeaders,
		CorruptFixups:     self.CorruptFixups,
		IOErrors:          self.IOErrors,
		TruncatedRecords:  self.TruncatedRecords,
	}
}

func (self *ScanStats) ToDict() *ordereddict.Dict {
	s := self.Snapshot()
	return ordereddict.NewDict().
		Set("Records", s.Records).
		Set("Entries", s.Entries).
		Set("UnusedSlots", s.UnusedSlots).
		Set("InvalidSignatures", s.InvalidSignatures).
		Set("MalformedHeaders", s.MalformedHeaders).
		Set("TruncatedRecords", s.TruncatedRecords).
		Set("CorruptFixups", s.CorruptFixups).
		Set("IOErrors", s.IOErrors)
}

func (self *ScanStats) DebugString() string {
	serialized, _ := self.ToDict().MarshalJSON()
	return string(serialized)
}

// Count a record result from the entry iterator.
func (self *ScanStats) addRecord(entry *MFT_ENTRY, err error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if errors.Is(err, IOError) {
		self.IOErrors++
		return
	}

	self.Records++

	switch {
	case err == nil:
		self.Entries++
		if entry.IsCorrupt() {
			self.CorruptFixups++
		}

	case errors.Is(err, UnusedSlotError):
		self.UnusedSlots++

	case errors.Is(err, InvalidSignatureError):
		self.InvalidSignatures++

	case errors.Is(err, MalformedHeaderError):
		self.MalformedHeaders++
		var parse_error *ParseError
		if errors.As(err, &parse_error) && parse_error.Message == truncatedRecordMessage {
			self.TruncatedRecords++
		}
	}
}
