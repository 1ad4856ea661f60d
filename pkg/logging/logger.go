// Package logging configures zerolog for cv-coach.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger at the given level. JSON goes to file when one is given,
// otherwise a console writer on stderr is used.
func New(level, file string) (logger zerolog.Logger, closer func(), err error) {
	closer = func() {}

	if level == "" {
		level = "info"
	}

	var lvl zerolog.Level
	lvl, err = zerolog.ParseLevel(level)
	if err != nil {
		err = errors.Wrapf(err, "invalid log level: %s", level)
		return logger, closer, err
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if file != "" {
		err = os.MkdirAll(filepath.Dir(file), 0750)
		if err != nil {
			err = errors.Wrapf(err, "failed to create log directory for %s", file)
			return logger, closer, err
		}

		var f *os.File
		f, err = os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			err = errors.Wrapf(err, "failed to open log file: %s", file)
			return logger, closer, err
		}
		closer = func() { _ = f.Close() }
		writer = f
	}

	logger = zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl).
		Hook(ContextHook{})

	return logger, closer, err
}

// Component creates a logger tagged with a component name.
func Component(name string) (logger zerolog.Logger) {
	logger = log.With().Str("cmp", name).Logger()
	return logger
}
