package config

import (
	"io"
	"log/slog"

	"git.home.luguber.info/inful/docshell/internal/foundation/normalization"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewEnumNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// SlogLevel maps the configured level onto slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewEnumNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// SourcemapMode enumerates how source maps are emitted.
type SourcemapMode string

const (
	SourcemapNone     SourcemapMode = "none"
	SourcemapInline   SourcemapMode = "inline"
	SourcemapLinked   SourcemapMode = "linked"
	SourcemapExternal SourcemapMode = "external"
)

var sourcemapNormalizer = normalization.NewEnumNormalizer("sourcemap mode", map[string]SourcemapMode{
	"none":     SourcemapNone,
	"false":    SourcemapNone,
	"inline":   SourcemapInline,
	"linked":   SourcemapLinked,
	"true":     SourcemapLinked,
	"external": SourcemapExternal,
}, SourcemapNone)

func NormalizeSourcemap(raw string) SourcemapMode {
	return sourcemapNormalizer.Normalize(raw)
}

// NewLogger builds the slog handler for the monitoring section. The level
// argument wins when the caller resolved one from CLI flags.
func NewLogger(m *MonitoringConfig, level *slog.Level, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	format := LogFormatText
	if m != nil {
		lvl = m.Logging.Level.SlogLevel()
		if m.Logging.Format != "" {
			format = m.Logging.Format
		}
	}
	if level != nil {
		lvl = *level
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
