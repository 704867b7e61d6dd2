package main

import (
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("gomft",
		"A tool for inspecting NTFS $MFT files.")

	verbose_flag = app.Flag(
		"verbose", "Show more detail and debug logs.").Short('v').Bool()

	log_format_flag = app.Flag(
		"log_format", "Log format: human or json.").String()

	config_flag = app.Flag(
		"config", "A config file with default settings (yaml, json or toml).").
		String()

	command_handlers []CommandHandler
)

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	err := loadConfig(*config_flag)
	kingpin.FatalIfError(err, "Can not load config")

	logger, err := newLogger(*verbose_flag, getConfig().LogFormat)
	kingpin.FatalIfError(err, "Can not create logger")
	defer logger.Sync()
	cli_logger = logger

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
