package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"regexp"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-mft/parser"
)

var (
	mft_command = app.Command(
		"mft", "Process a raw $MFT file into JSON or CSV rows.")

	mft_command_file_arg = mft_command.Arg(
		"file", "The $MFT file or image to process",
	).Required().File()

	mft_command_image_offset = mft_command.Flag(
		"image_offset", "The offset in the image to use.",
	).Int64()

	mft_command_start = mft_command.Flag(
		"start", "The first entry to process").Int64()

	mft_command_max = mft_command.Flag(
		"max", "The number of records to read").Int64()

	mft_command_filename_filter = mft_command.Flag(
		"filename_filter", "A regex to filter on filename",
	).Default(".").String()

	mft_command_format = mft_command.Flag(
		"format", "Output format: json or csv",
	).Default("json").Enum("json", "csv")
)

type DetailedHighlights struct {
	*parser.MFTHighlight
	FileName      string
	FileNameTypes string
}

func doMFT() {
	filename_filter, err := regexp.Compile(*mft_command_filename_filter)
	kingpin.FatalIfError(err, "Invalid filename filter")

	reader, size, err := getReader(*mft_command_file_arg,
		*mft_command_image_offset)
	kingpin.FatalIfError(err, "Can not open MFT")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var csv_writer *parser.HighlightCSVWriter
	if *mft_command_format == "csv" {
		csv_writer = parser.NewHighlightCSVWriter(os.Stdout)
	}

	for item := range parser.ParseMFTFile(ctx, reader, size,
		getOptions(*mft_command_start, *mft_command_max)) {
		if len(filename_filter.FindStringIndex(item.FileName())) == 0 {
			continue
		}

		if csv_writer != nil {
			kingpin.FatalIfError(csv_writer.Write(item), "Writing CSV")
			continue
		}

		serialized, err := json.MarshalIndent(DetailedHighlights{
			MFTHighlight:  item,
			FileName:      item.FileName(),
			FileNameTypes: item.FileNameTypes(),
		}, " ", " ")
		kingpin.FatalIfError(err, "Marshal")

		fmt.Println(string(serialized))
	}

	if csv_writer != nil {
		kingpin.FatalIfError(csv_writer.Flush(), "Writing CSV")
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "mft":
			doMFT()
		default:
			return false
		}
		return true
	})
}
