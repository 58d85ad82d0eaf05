package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/learningequality/kolibri-desktop/internal/version"
)

// BaseName is the stem of the shell's log files in $KOLIBRI_HOME/logs.
const BaseName = "kolibri-desktop"

// DefaultRetention is how many rotated log files are kept.
const DefaultRetention = 30

// New builds the root logger. Console output goes through the zerolog
// console writer; the file sink, when present, receives raw JSON lines.
func New(console, file io.Writer, level zerolog.Level) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{Out: console}
	var sink io.Writer = consoleWriter
	if file != nil {
		sink = zerolog.MultiLevelWriter(consoleWriter, file)
	}
	return zerolog.New(sink).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Open builds the root logger with a rotating file sink under dir.
// The returned closer flushes the file sink at shutdown.
func Open(dir string, level zerolog.Level) (zerolog.Logger, io.Closer, error) {
	fileWriter, err := NewRotatingWriter(dir, BaseName, DefaultRetention)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return New(os.Stderr, fileWriter, level), fileWriter, nil
}

// Component returns a child logger tagged for one subsystem.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// Banner marks the start of a run so individual runs are easy to find in
// shared log files.
func Banner(log zerolog.Logger) {
	log.Info().Msg("")
	log.Info().Msg("**********************************")
	log.Info().Msg("*                                *")
	log.Info().Msg("*  Kolibri Desktop Initializing  *")
	log.Info().Msg("*                                *")
	log.Info().Msg("**********************************")
	log.Info().Msg("")
	log.Info().Str("version", version.Full()).Msg("Started at: " + time.Now().Format(time.RFC1123))
}
