package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/go-mft/internal/testutil"
)

func TestConfigDefaults(t *testing.T) {
	require.NoError(t, loadConfig(""))

	config := getConfig()
	assert.Equal(t, int64(1024), config.RecordSize)
	assert.Equal(t, int64(512), config.SectorSize)
	assert.Equal(t, "human", config.LogFormat)
}

func TestConfigFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gomft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"record_size: 4096\nsector_size: 4096\n"), 0o600))

	t.Setenv("GOMFT_LOG_FORMAT", "json")

	require.NoError(t, loadConfig(path))
	config := getConfig()
	assert.Equal(t, int64(4096), config.RecordSize)
	assert.Equal(t, int64(4096), config.SectorSize)
	assert.Equal(t, "json", config.LogFormat)

	options := getOptions(2, 3)
	assert.Equal(t, int64(4096), options.RecordSize)
	assert.Equal(t, int64(2), options.StartEntry)
	assert.Equal(t, int64(3), options.MaxEntries)

	require.NoError(t, loadConfig(""))
}

func TestConfigFlagsWin(t *testing.T) {
	*record_size_flag = 2048
	defer func() { *record_size_flag = 0 }()

	t.Setenv("GOMFT_RECORD_SIZE", "4096")
	require.NoError(t, loadConfig(""))
	assert.Equal(t, int64(2048), getConfig().RecordSize)

	require.NoError(t, loadConfig(""))
}

func TestConfigBadLogFormat(t *testing.T) {
	t.Setenv("GOMFT_LOG_FORMAT", "xml")
	assert.Error(t, loadConfig(""))
}

func TestGetParser(t *testing.T) {
	require.NoError(t, loadConfig(""))

	image := append(make([]byte, 0x2000), testutil.SampleTable()...)
	path := filepath.Join(t.TempDir(), "image.dd")
	require.NoError(t, os.WriteFile(path, image, 0o600))

	fd, err := os.Open(path)
	require.NoError(t, err)
	defer fd.Close()

	mft, err := getParser(fd, 0x2000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(testutil.SampleTableEntries), mft.EntryCount())

	mft_entry, err := getMFTEntry(mft, "3-128-3")
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", entryNames(mft_entry))
	assert.Equal(t, int64(11), entrySize(mft_entry))

	_, err = getMFTEntry(mft, "abc")
	assert.Error(t, err)
}
