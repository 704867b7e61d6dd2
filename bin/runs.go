package main

import (
	"encoding/hex"
	"fmt"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-mft/parser"
)

var (
	runs_command = app.Command(
		"runs", "Display the data runs of an attribute.")

	runs_command_file_arg = runs_command.Arg(
		"file", "The $MFT file or image to inspect",
	).Required().File()

	runs_command_arg = runs_command.Arg(
		"mft_id", "An inode in MFT notation e.g. 43-128-0.",
	).Required().String()

	runs_command_image_offset = runs_command.Flag(
		"image_offset", "The offset in the image to use.",
	).Int64()

	runs_command_stream = runs_command.Flag(
		"stream", "The name of an alternate data stream.",
	).String()

	runs_command_raw_runs = runs_command.Flag(
		"raw_runs", "Also show raw runs.",
	).Bool()
)

func doRuns() {
	mft, err := getParser(*runs_command_file_arg,
		*runs_command_image_offset, 0, 0)
	kingpin.FatalIfError(err, "Can not open MFT")
	defer mft.Close()

	mft_idx, attr_type, attr_id, err := parser.ParseMFTId(*runs_command_arg)
	kingpin.FatalIfError(err, "Invalid MFT id")

	mft_entry, err := mft.GetEntry(mft_idx)
	kingpin.FatalIfError(err, "Can not open entry")

	attr, err := mft_entry.GetAttribute(parser.AttributeType(attr_type),
		attr_id, *runs_command_stream)
	kingpin.FatalIfError(err, "Can not find attribute")

	if attr.IsResident() {
		fmt.Printf("%v is resident (%d bytes)\n",
			*runs_command_arg, len(attr.Resident.Data()))
		return
	}

	fmt.Println(attr.PrintStats())

	if *runs_command_raw_runs {
		fmt.Println(hex.Dump(attr.NonResident.RunlistBytes()))
	}

	runs, err := attr.NonResident.DataRuns()
	for idx, r := range runs {
		fmt.Printf("%d %v\n", idx, r)
	}
	kingpin.FatalIfError(err, "Decoding runs")

	fmt.Printf("Total clusters %d\n", parser.ClusterCount(runs))
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "runs":
			doRuns()
		default:
			return false
		}
		return true
	})
}
