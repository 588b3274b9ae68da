package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the size in megabytes at which the file is rotated
	// (0 = 100 MB)
	MaxSize int
	// MaxBackups is the maximum number of backup files to keep (0 = all)
	MaxBackups int
}

// ZeroLogger implements Logger on top of zerolog
type ZeroLogger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// NewFileLogger creates a logger appending to a file, rotating it once it
// grows past MaxSize. Backups are named after their rotation time.
func NewFileLogger(config FileLoggerConfig) (*ZeroLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// lumberjack opens on first write; open now so a bad path fails here.
	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	file.Close()

	out := &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
	}

	return &ZeroLogger{
		zl:     newZerolog(out, config.Format, config.Level),
		closer: out,
	}, nil
}

// NewStreamLogger creates a logger writing to w, typically stderr.
// Closing it does not close w.
func NewStreamLogger(w io.Writer, format Format, level Level) *ZeroLogger {
	return &ZeroLogger{zl: newZerolog(w, format, level)}
}

func newZerolog(w io.Writer, format Format, level Level) zerolog.Logger {
	if format != FormatJSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
			},
		}
	}
	return zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.write(ctx, l.zl.Debug(), msg, fields)
}

// Info logs an info message
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.write(ctx, l.zl.Info(), msg, fields)
}

// Warn logs a warning message
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.write(ctx, l.zl.Warn(), msg, fields)
}

// Error logs an error message
func (l *ZeroLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.write(ctx, l.zl.Error().Err(err), msg, fields)
}

func (l *ZeroLogger) write(ctx context.Context, e *zerolog.Event, msg string, fields Fields) {
	if e == nil {
		return
	}
	if id := OperationID(ctx); id != "" {
		e = e.Str("operation_id", id)
	}
	if len(fields) > 0 {
		e = e.Fields(map[string]interface{}(fields))
	}
	e.Msg(msg)
}

// WithFields returns a logger with additional fields. The new logger
// shares the output of its parent.
func (l *ZeroLogger) WithFields(fields Fields) Logger {
	return &ZeroLogger{
		zl:     l.zl.With().Fields(map[string]interface{}(fields)).Logger(),
		closer: l.closer,
	}
}

// Close flushes and closes the logger
func (l *ZeroLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
