package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Velocidex/ordereddict"
	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-mft/parser"
)

var (
	stat_command = app.Command(
		"stat", "Inspect an MFT record.")

	stat_command_file_arg = stat_command.Arg(
		"file", "The $MFT file or image to inspect",
	).Required().File()

	stat_command_arg = stat_command.Arg(
		"mft_id", "An MFT entry e.g. 5 or 5-128-1.",
	).Default("0").String()

	stat_command_image_offset = stat_command.Flag(
		"image_offset", "The offset in the image to use.",
	).Int64()

	stat_command_debug = stat_command.Flag(
		"debug", "Dump the parsed structures.").Bool()

	stat_command_attributes = stat_command.Flag(
		"attributes", "Show a table of the attributes.").Bool()
)

// Decoded content of every attribute, including the attributes which
// fail to parse.
func attributeContents(mft_entry *parser.MFT_ENTRY) []*ordereddict.Dict {
	result := []*ordereddict.Dict{}

	it := mft_entry.Attributes()
	for {
		attr, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			result = append(result, ordereddict.NewDict().
				Set("Error", err.Error()))
			continue
		}

		row := ordereddict.NewDict().
			Set("Type", attr.Type().Name()).
			Set("Id", attr.Attribute_id()).
			Set("Name", attr.Name()).
			Set("Resident", attr.IsResident())

		content, err := attr.Content()
		if err != nil {
			row.Set("Error", err.Error())
		} else {
			row.Set("Content", content.Dict())
		}
		result = append(result, row)
	}

	return result
}

func printAttributeTable(mft_entry *parser.MFT_ENTRY) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Type", "Id", "Name", "Resident", "Size"})
	table.SetCaption(true, fmt.Sprintf(
		"Attributes of MFT entry %v", mft_entry.EntryId()))
	defer table.Render()

	for _, attr := range mft_entry.EnumerateAttributes() {
		table.Append([]string{
			attr.Type().Name(),
			fmt.Sprintf("%v", attr.Attribute_id()),
			attr.Name(),
			fmt.Sprintf("%v", attr.IsResident()),
			fmt.Sprintf("%v", attr.DataSize()),
		})
	}
}

func doSTAT() {
	mft, err := getParser(*stat_command_file_arg,
		*stat_command_image_offset, 0, 0)
	kingpin.FatalIfError(err, "Can not open MFT")
	defer mft.Close()

	mft_entry, err := getMFTEntry(mft, *stat_command_arg)
	kingpin.FatalIfError(err, "Can not open entry")

	if *stat_command_debug {
		parser.Debug(mft_entry)
	}

	if *stat_command_attributes {
		printAttributeTable(mft_entry)
		return
	}

	if *verbose_flag {
		fmt.Println(mft_entry.Display())

		serialized, err := json.MarshalIndent(
			attributeContents(mft_entry), " ", " ")
		kingpin.FatalIfError(err, "Marshal")

		fmt.Println(string(serialized))
		return
	}

	stat, err := parser.ModelMFTEntry(mft_entry)
	kingpin.FatalIfError(err, "Can not model entry")

	serialized, err := json.MarshalIndent(stat, " ", " ")
	kingpin.FatalIfError(err, "Marshal")

	fmt.Println(string(serialized))
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "stat":
			doSTAT()
		default:
			return false
		}
		return true
	})
}
