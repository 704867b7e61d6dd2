package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-mft/parser"
)

var (
	entries_command = app.Command(
		"entries", "List the entries of an MFT.")

	entries_command_file_arg = entries_command.Arg(
		"file", "The $MFT file or image to inspect",
	).Required().OpenFile(os.O_RDONLY, os.FileMode(0666))

	entries_command_image_offset = entries_command.Flag(
		"image_offset", "An offset into the file.",
	).Default("0").Int64()

	entries_command_start = entries_command.Flag(
		"start", "The first entry to list").Int64()

	entries_command_max = entries_command.Flag(
		"max", "The number of records to read").Int64()

	entries_command_all = entries_command.Flag(
		"all", "Also list unused and damaged slots").Bool()

	entries_command_name_filter = entries_command.Flag(
		"name_filter", "A regex to filter on file name",
	).Default(".").String()
)

func entryNames(mft_entry *parser.MFT_ENTRY) string {
	names := []string{}
	for _, file_name := range mft_entry.FileName() {
		names = append(names, file_name.Name())
	}
	return strings.Join(names, ", ")
}

func entrySize(mft_entry *parser.MFT_ENTRY) int64 {
	attr, err := mft_entry.GetAttribute(parser.ATTR_TYPE_DATA, -1, "")
	if err != nil {
		return 0
	}
	return attr.DataSize()
}

func doEntries() {
	name_filter, err := regexp.Compile(*entries_command_name_filter)
	kingpin.FatalIfError(err, "Invalid name filter")

	mft, err := getParser(*entries_command_file_arg,
		*entries_command_image_offset,
		*entries_command_start, *entries_command_max)
	kingpin.FatalIfError(err, "Can not open MFT")
	defer mft.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"MFT Id",
		"Seq",
		"Flags",
		"Attrs",
		"Size",
		"Filename",
		"Error",
	})
	defer table.Render()

	it := mft.Entries()
	for {
		id := it.NextEntryId()
		mft_entry, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if parser.IsFatal(err) || *entries_command_all {
				table.Append([]string{
					fmt.Sprintf("%v", id), "", "", "", "", "", err.Error(),
				})
			}
			continue
		}

		names := entryNames(mft_entry)
		if !name_filter.MatchString(names) {
			continue
		}

		status := ""
		if mft_entry.IsCorrupt() {
			status = "fixup mismatch"
		}

		table.Append([]string{
			fmt.Sprintf("%v", id),
			fmt.Sprintf("%v", mft_entry.Sequence_value()),
			mft_entry.Flags().DebugString(),
			fmt.Sprintf("%v", len(mft_entry.EnumerateAttributes())),
			fmt.Sprintf("%v", entrySize(mft_entry)),
			names,
			status,
		})
	}

	kingpin.FatalIfError(it.Err(), "Reading MFT")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "entries":
			doEntries()
		default:
			return false
		}
		return true
	})
}
