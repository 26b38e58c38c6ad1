// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects where log lines go and how much is written.
type Options struct {
	// Level is a zerolog level name such as "debug" or "warn".
	Level string
	// Output lists destinations separated by ';': "stderr", "stdout" or a
	// file path.
	Output string
	// Caller adds the source location to each line.
	Caller bool
}

// Setup installs the global logger described by opts. Open log files are
// returned so the caller can close them on exit.
func Setup(opts Options) ([]io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == "" {
		out = "stderr"
	}

	var writers []io.Writer
	var files []io.Closer
	for _, split := range strings.Split(out, ";") {
		switch split = strings.TrimSpace(split); split {
		case "":
			continue
		case "stdout":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout})
		case "stderr":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
		default:
			f, err := os.OpenFile(split, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
			if err != nil {
				for _, c := range files {
					c.Close()
				}
				return nil, fmt.Errorf("opening log file %s: %w", split, err)
			}
			files = append(files, f)
			writers = append(writers, zerolog.SyncWriter(f))
		}
	}

	builder := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if opts.Caller {
		builder = builder.Caller()
	}
	log.Logger = builder.Logger()
	return files, nil
}
