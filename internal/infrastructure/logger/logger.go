package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
	Service    string // attached to every entry when set
}

// DefaultConfig returns a colored console configuration for development
func DefaultConfig() *Config {
	return &Config{
		Level:      "debug",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// ProductionConfig returns a JSON configuration for log shipping
func ProductionConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// New builds a zap logger from cfg
func New(cfg *Config) (*zap.Logger, error) {
	writer, err := openWriter(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg), writer, ParseLevel(cfg.Level))
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return zap.New(core, opts...), nil
}

// NewForEnvironment picks the production or development configuration
func NewForEnvironment(env, service string) (*zap.Logger, error) {
	cfg := DefaultConfig()
	if env == "production" {
		cfg = ProductionConfig()
	}
	cfg.Service = service
	return New(cfg)
}

// ParseLevel converts a level name, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func newEncoder(cfg *Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.MessageKey = "msg"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if cfg.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openWriter(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(file), nil
}
