package parser

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

var (
	default_logger      *zap.Logger
	default_logger_once sync.Once
)

func Debug(arg interface{}) {
	spew.Dump(arg)
}

type Debugger interface {
	DebugString() string
}

// DebugString indents the debug representation of arg. Returns an
// empty string for values which can not describe themselves.
func DebugString(arg interface{}, indent string) string {
	debugger, ok := arg.(Debugger)
	if !ok {
		return ""
	}

	lines := strings.Split(debugger.DebugString(), "\n")
	for idx, line := range lines {
		lines[idx] = indent + line
	}
	return strings.Join(lines, "\n")
}

// DefaultLogger discards everything unless the MFT_DEBUG environment
// variable is set.
func DefaultLogger() *zap.Logger {
	default_logger_once.Do(func() {
		default_logger = zap.NewNop()

		if _, pres := os.LookupEnv("MFT_DEBUG"); pres {
			logger, err := zap.NewDevelopment()
			if err != nil {
				fmt.Fprintf(os.Stderr, "MFT_DEBUG: %v\n", err)
				return
			}
			default_logger = logger.Named("mft")
		}
	})

	return default_logger
}
