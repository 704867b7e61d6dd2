package main

import (
	"io"
	"os"

	"www.velocidex.com/golang/go-mft/parser"
)

func getOptions(start, max int64) parser.Options {
	config := getConfig()

	options := parser.GetDefaultOptions()
	options.RecordSize = config.RecordSize
	options.SectorSize = config.SectorSize
	options.StartEntry = start
	options.MaxEntries = max
	options.Logger = cli_logger
	return options
}

// An extracted $MFT is read directly. An MFT inside a larger image
// is read at an offset through the page cache.
func getReader(fd *os.File, image_offset int64) (io.ReaderAt, int64, error) {
	st, err := fd.Stat()
	if err != nil {
		return nil, 0, err
	}

	if image_offset == 0 {
		return fd, st.Size(), nil
	}

	offset_reader := &parser.OffsetReader{
		Offset: image_offset,
		Reader: fd,
	}

	config := getConfig()
	reader, err := parser.NewPagedReader(offset_reader,
		config.PageSize, config.CachePages)
	if err != nil {
		return nil, 0, err
	}

	return reader, offset_reader.Size(st.Size()), nil
}

func getParser(fd *os.File, image_offset, start, max int64) (
	*parser.MFTParser, error) {
	reader, size, err := getReader(fd, image_offset)
	if err != nil {
		return nil, err
	}

	return parser.NewMFTParser(reader, size, getOptions(start, max)), nil
}

// Access an entry by its MFT id (e.g. 1234 or 1234-128-6).
func getMFTEntry(mft *parser.MFTParser, mft_id string) (*parser.MFT_ENTRY, error) {
	mft_idx, _, _, err := parser.ParseMFTId(mft_id)
	if err != nil {
		return nil, err
	}

	return mft.GetEntry(mft_idx)
}
