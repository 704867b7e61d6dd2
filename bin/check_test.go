package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"www.velocidex.com/golang/go-mft/internal/testutil"
	"www.velocidex.com/golang/go-mft/parser"
)

func TestCheckCountsDamagedEntriesOnce(t *testing.T) {
	table := testutil.SampleTable()
	mft := parser.NewMFTParser(bytes.NewReader(table), int64(len(table)),
		parser.GetDefaultOptions())

	warnings := []string{}
	it := mft.Entries()
	report := checkEntries(it, func(format string, a ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, a...))
	})
	assert.NoError(t, it.Err())

	// The torn record and the record with a broken attribute.
	assert.Equal(t, int64(2), report.DamagedEntries)
	assert.Equal(t, int64(1), report.AttributeErrors)

	// Plus the malformed header, never more than the records scanned.
	stats := it.Stats().Snapshot()
	damaged := stats.MalformedHeaders + report.DamagedEntries
	assert.Equal(t, int64(3), damaged)
	assert.LessOrEqual(t, damaged, stats.Records)

	assert.Equal(t, 3, len(warnings))
}

func TestCheckAttributeErrorsStayOutOfScanStats(t *testing.T) {
	table := testutil.SampleTable()
	mft := parser.NewMFTParser(bytes.NewReader(table), int64(len(table)),
		parser.GetDefaultOptions())

	it := mft.Entries()
	checkEntries(it, func(string, ...interface{}) {})

	keys := it.Stats().ToDict().Keys()
	assert.Equal(t, []string{
		"Records", "Entries", "UnusedSlots", "InvalidSignatures",
		"MalformedHeaders", "TruncatedRecords", "CorruptFixups", "IOErrors",
	}, keys)
}
