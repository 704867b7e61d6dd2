package parser

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// FILETIME ticks are 100ns intervals.
	filetimeTicksPerSecond = 10000000

	// Seconds between 1601-01-01 and 1970-01-01.
	filetimeEpochDelta = 11644473600

	// RFC 3339 can not express years past this.
	maxTimestampYear = 9999
)

// FiletimeToTime converts a windows FILETIME into a UTC time. The
// conversion splits seconds and nanoseconds first so the full uint64
// range converts without overflow. Timestamps beyond year 9999 can
// not be represented and fail with TimestampOutOfRangeError.
func FiletimeToTime(filetime uint64) (time.Time, error) {
	seconds := int64(filetime/filetimeTicksPerSecond) - filetimeEpochDelta
	nanoseconds := int64(filetime%filetimeTicksPerSecond) * 100

	result := time.Unix(seconds, nanoseconds).UTC()
	if result.Year() > maxTimestampYear {
		return time.Time{}, newParseError(TimestampOutOfRangeError, -1, -1,
			"filetime %#x is in year %d", filetime, result.Year())
	}
	return result, nil
}

// A WinFileTime is a raw timestamp in windows filetime format. It
// is only converted when accessed so an out of range value only
// affects the field it is in.
type WinFileTime uint64

func (self WinFileTime) Time() (time.Time, error) {
	return FiletimeToTime(uint64(self))
}

func (self WinFileTime) String() string {
	t, err := self.Time()
	if err != nil {
		return fmt.Sprintf("%#x (out of range)", uint64(self))
	}
	return t.Format(time.RFC3339Nano)
}

func (self WinFileTime) GoString() string {
	return self.String()
}

func (self WinFileTime) MarshalJSON() ([]byte, error) {
	t, err := self.Time()
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}
