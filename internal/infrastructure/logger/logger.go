package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the process logger is built
type Options struct {
	Level    string // debug, info, warn, error, fatal
	Encoding string // json or text
	Sink     string // stdout, stderr, or a file path
	Service  string // service name stamped on every entry
}

// Development returns options for local work: human-readable output,
// debug level
func Development() Options {
	return Options{
		Level:    "debug",
		Encoding: "text",
		Sink:     "stdout",
		Service:  "ledgersg",
	}
}

// Production returns options for deployed environments: JSON entries
// at info level
func Production() Options {
	return Options{
		Level:    "info",
		Encoding: "json",
		Sink:     "stdout",
		Service:  "ledgersg",
	}
}

// New builds a zap logger from the options. Unknown levels and
// unopenable sinks are errors, not silent fallbacks.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	sink, err := openSink(opts.Sink)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(buildEncoder(opts.Encoding), sink, level)
	fields := []zap.Field{}
	if opts.Service != "" {
		fields = append(fields, zap.String("service", opts.Service))
	}
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	), nil
}

// ForEnvironment builds a logger for the named environment. Anything
// other than "production" gets the development options.
func ForEnvironment(env string) (*zap.Logger, error) {
	if env == "production" {
		return New(Production())
	}
	return New(Development())
}

// ParseLevel maps a level name to its zapcore level. Matching is
// case-insensitive; unknown names are an error.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

func buildEncoder(encoding string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if encoding == "text" || encoding == "console" {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

func openSink(sink string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(sink) {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		file, err := os.OpenFile(sink, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log sink %s: %w", sink, err)
		}
		return zapcore.AddSync(file), nil
	}
}
