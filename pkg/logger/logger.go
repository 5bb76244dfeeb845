// Package logger provides structured logging utilities.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.Logger.
type Logger struct {
	*zap.Logger
}

// Format selects the log encoding.
type Format string

const (
	// FormatJSON writes one JSON object per line, for the API server.
	FormatJSON Format = "json"
	// FormatConsole writes colored human-readable lines, for terminal tools.
	FormatConsole Format = "console"
)

// New creates a JSON logger writing to stdout at the given level.
func New(level string) (*Logger, error) {
	return Build(FormatJSON, level, "stdout")
}

// NewDevelopment creates a console logger on stderr at debug level, so it does
// not interleave with a terminal client's own output on stdout.
func NewDevelopment() (*Logger, error) {
	return Build(FormatConsole, "debug", "stderr")
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Build creates a logger with the given encoding, level and output path.
func Build(format Format, level, output string) (*Logger, error) {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Encoding:         string(format),
		EncoderConfig:    encoderConfig(format),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	if format == FormatConsole {
		cfg.Development = true
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s logger: %w", format, err)
	}
	return &Logger{Logger: l}, nil
}

func encoderConfig(format Format) zapcore.EncoderConfig {
	if format == FormatConsole {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return ec
	}

	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// With creates a child logger with additional fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// WithRequest creates a child logger carrying the request's correlation id and,
// for authenticated requests, the username.
func (l *Logger) WithRequest(correlationID, username string) *Logger {
	fields := []zap.Field{zap.String("correlation_id", correlationID)}
	if username != "" {
		fields = append(fields, zap.String("username", username))
	}
	return l.With(fields...)
}

// Named creates a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
