// Package logging provides the structured logger used across the node,
// miner and wallet binaries.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors zap's levels under names used throughout this repo.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config holds logger configuration.
type Config struct {
	Level   Level
	Prefix  string
	UseJSON bool
	LogFile string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:   INFO,
		Prefix:  "ledger",
		UseJSON: false,
		LogFile: "",
	}
}

// Logger wraps a zap.SugaredLogger with the component-tagging conventions
// used across this repo's binaries.
type Logger struct {
	z      *zap.SugaredLogger
	prefix string
}

// New builds a Logger from cfg, falling back to stdout if file logging
// cannot be set up.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if cfg.UseJSON {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sink := zapcore.AddSync(os.Stdout)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: failed to open %s, falling back to stdout: %v\n", cfg.LogFile, err)
		} else {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, cfg.Level.zapLevel())
	z := zap.New(core).Sugar().With("component", cfg.Prefix)
	return &Logger{z: z, prefix: cfg.Prefix}
}

// Named returns a child logger tagging a subcomponent, e.g. "node.peer".
func (l *Logger) Named(sub string) *Logger {
	return &Logger{z: l.z.Named(sub), prefix: l.prefix + "." + sub}
}

func (l *Logger) Debugw(msg string, kv ...interface{}) { l.z.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...interface{})  { l.z.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.z.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.z.Errorw(msg, kv...) }
func (l *Logger) Fatalw(msg string, kv ...interface{}) { l.z.Fatalw(msg, kv...) }

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.z.Sync() }

// Elapsed is a small helper for logging operation durations.
func Elapsed(start time.Time) float64 { return time.Since(start).Seconds() }
