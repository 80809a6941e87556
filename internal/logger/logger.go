// Package logger builds the process-wide zap logger.
package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yuirsilva/deadline-daddy/internal/config"
)

// New returns a JSON logger writing to stdout and, when cfg.File is set, to a
// rotating file behind a write buffer. The returned func flushes and stops
// the buffer; call it before exit.
func New(cfg config.Log) (*zap.Logger, func(), error) {
	level := new(zapcore.Level)
	if err := level.UnmarshalText([]byte(strings.ToLower(fallback(cfg.Level, "info")))); err != nil {
		return nil, nil, err
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	stop := func() {}
	if cfg.File != "" {
		buffered := &zapcore.BufferedWriteSyncer{
			WS: zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			}),
			Size:          256 * 1024,
			FlushInterval: 5 * time.Second,
		}
		sinks = append(sinks, buffered)
		stop = func() { _ = buffered.Stop() }
	}

	core := zapcore.NewCore(encoder(), zapcore.NewMultiWriteSyncer(sinks...), level)
	log := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(log)

	return log, func() {
		_ = log.Sync()
		stop()
	}, nil
}

func encoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
