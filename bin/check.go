package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"go.uber.org/zap"
	"www.velocidex.com/golang/go-mft/parser"
)

var (
	check_command = app.Command(
		"check", "Scan the whole MFT and report damaged records.")

	check_command_file_arg = check_command.Arg(
		"file", "The $MFT file or image to inspect",
	).Required().File()

	check_command_image_offset = check_command.Flag(
		"image_offset", "The offset in the image to use.",
	).Int64()

	check_command_start_id = check_command.Flag(
		"start", "The ID to start with").Int64()

	check_command_max = check_command.Flag(
		"max", "The number of records to check").Int64()
)

// Entries and attributes found damaged by a full scan.
type checkReport struct {
	DamagedEntries  int64
	AttributeErrors int64
}

// checkEntries walks every entry and decodes every attribute. Each
// problem is passed to warn.
func checkEntries(it *parser.EntryIterator,
	warn func(format string, a ...interface{})) checkReport {
	report := checkReport{}

	for {
		mft_entry, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if !parser.IsUnusedSlot(err) {
				warn("%v\n", err)
			}
			continue
		}

		damaged := false
		if mft_entry.IsCorrupt() {
			fixup := mft_entry.Fixup()
			warn("MFTId %v: fixup mismatch in sectors %v (truncated %v short %v)\n",
				mft_entry.EntryId(), fixup.Mismatched, fixup.Truncated, fixup.Short)
			damaged = true
		}

		attrs := mft_entry.Attributes()
		for {
			attr, err := attrs.Next()
			if errors.Is(err, io.EOF) {
				break
			}

			if err == nil {
				_, err = attr.Content()
			}

			if err != nil {
				report.AttributeErrors++
				warn("%v\n", err)
				damaged = true
			}
		}

		if damaged {
			report.DamagedEntries++
		}

		if mft_entry.EntryId()%10000 == 0 {
			cli_logger.Info("checked",
				zap.Int64("entry_id", mft_entry.EntryId()))
		}
	}

	return report
}

func doCheck() {
	mft, err := getParser(*check_command_file_arg,
		*check_command_image_offset,
		*check_command_start_id, *check_command_max)
	kingpin.FatalIfError(err, "Can not open MFT")
	defer mft.Close()

	it := mft.Entries()
	report := checkEntries(it, color.Yellow)

	stats := it.Stats()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Counter", "Value"})
	counters := stats.ToDict()
	for _, key := range counters.Keys() {
		value, _ := counters.Get(key)
		table.Append([]string{key, fmt.Sprintf("%v", value)})
	}
	table.Append([]string{"DamagedEntries", fmt.Sprintf("%v", report.DamagedEntries)})
	table.Append([]string{"AttributeErrors", fmt.Sprintf("%v", report.AttributeErrors)})
	table.Render()

	if it.Err() != nil {
		color.Red("Scan aborted: %v\n", it.Err())
		os.Exit(1)
	}

	snapshot := stats.Snapshot()
	damaged := snapshot.MalformedHeaders + report.DamagedEntries
	if damaged > 0 {
		color.Yellow("%d of %d records have damage\n", damaged, snapshot.Records)
		if report.AttributeErrors > 0 {
			color.Yellow("%d attributes could not be decoded\n", report.AttributeErrors)
		}
		return
	}
	color.Green("%d records OK\n", snapshot.Records)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "check":
			doCheck()
		default:
			return false
		}
		return true
	})
}
