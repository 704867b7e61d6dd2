package parser

import (
	"errors"
	"fmt"
)

// Error classes. A *ParseError matches exactly one of these with
// errors.Is().
var (
	IOError                  = errors.New("IOError")
	NotFoundError            = errors.New("NotFound")
	OutOfBoundsError         = errors.New("OutOfBounds")
	InvalidSignatureError    = errors.New("InvalidSignature")
	UnusedSlotError          = errors.New("UnusedSlot")
	MalformedHeaderError     = errors.New("MalformedHeader")
	MalformedAttributeError  = errors.New("MalformedAttribute")
	MalformedContentError    = errors.New("MalformedContent")
	TimestampOutOfRangeError = errors.New("TimestampOutOfRange")
)

// ParseError is the per item error carried in the entry and
// attribute sequences. EntryId and Offset are -1 when not known.
type ParseError struct {
	Kind    error
	EntryId int64
	Offset  int64
	Message string
	Cause   error
}

func (self *ParseError) Error() string {
	result := self.Kind.Error()
	if self.EntryId >= 0 {
		result += fmt.Sprintf(" (entry %d", self.EntryId)
		if self.Offset >= 0 {
			result += fmt.Sprintf(" @ %#x", self.Offset)
		}
		result += ")"
	}

	if self.Message != "" {
		result += ": " + self.Message
	}

	if self.Cause != nil {
		result += ": " + self.Cause.Error()
	}
	return result
}

func (self *ParseError) Is(target error) bool {
	return self.Kind == target
}

func (self *ParseError) Unwrap() error {
	return self.Cause
}

func newParseError(kind error, entry_id, offset int64,
	format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:    kind,
		EntryId: entry_id,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

// Attach an entry id and record offset to an error raised by a
// lower layer which did not know them.
func withEntry(err error, entry_id int64) error {
	var parse_error *ParseError
	if errors.As(err, &parse_error) && parse_error.EntryId < 0 {
		result := *parse_error
		result.EntryId = entry_id
		return &result
	}
	return err
}

// IsFatal returns true if the error terminates a scan. Everything
// except an unreadable source is recoverable.
func IsFatal(err error) bool {
	return errors.Is(err, IOError)
}

// IsUnusedSlot is true for records which are not real entries
// (zeroed slots or slots without the FILE signature). Callers
// normally skip these silently.
func IsUnusedSlot(err error) bool {
	return errors.Is(err, UnusedSlotError) ||
		errors.Is(err, InvalidSignatureError)
}
