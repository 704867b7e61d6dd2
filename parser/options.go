package parser

import (
	"go.uber.org/zap"
)

const (
	DefaultRecordSize = 1024
	DefaultSectorSize = 512
)

type Options struct {
	// Size of an MFT record. 1024 on almost all volumes but 4096 on
	// drives with 4k native sectors.
	RecordSize int64

	// Fixup stride. The fixup array covers one sector each.
	SectorSize int64

	// First record to read.
	StartEntry int64

	// Stop after this many records. 0 reads to the end.
	MaxEntries int64

	// Skipped and malformed records are logged at debug level.
	Logger *zap.Logger
}

func GetDefaultOptions() Options {
	return Options{
		RecordSize: DefaultRecordSize,
		SectorSize: DefaultSectorSize,
		Logger:     DefaultLogger(),
	}
}

// normalize fills in defaults for zero fields.
func (self Options) normalize() Options {
	if self.RecordSize <= 0 {
		self.RecordSize = DefaultRecordSize
	}

	if self.SectorSize <= 0 || self.SectorSize > self.RecordSize {
		self.SectorSize = DefaultSectorSize
		if self.SectorSize > self.RecordSize {
			self.SectorSize = self.RecordSize
		}
	}

	if self.StartEntry < 0 {
		self.StartEntry = 0
	}

	if self.MaxEntries < 0 {
		self.MaxEntries = 0
	}

	if self.Logger == nil {
		self.Logger = DefaultLogger()
	}
	return self
}
