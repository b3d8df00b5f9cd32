package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger keeps the printf-style API used across the services while writing
// structured JSON lines through zerolog.
type Logger struct {
	zl zerolog.Logger
}

func New() *Logger {
	return NewWithWriter(os.Stdout)
}

func NewWithWriter(w io.Writer) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return &Logger{
		zl: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// With returns a child logger that adds the given field to every line.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

// Printf and Fatalf make Logger satisfy goose.Logger.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Info(format, args...)
}

// Fatalf logs at fatal level and exits.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.zl.Fatal().Msg(fmt.Sprintf(format, args...))
}
