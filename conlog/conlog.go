// SPDX-License-Identifier: GPL-2.0-or-later

// Package conlog is the process wide printf style log.
package conlog

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    bool
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
	sugar  = logger.Sugar()
)

// Init replaces the current logger with one writing to stdout and, if
// cfg.File is set, to a rotating log file. An empty level means info.
func Init(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	var cores []zapcore.Core
	if cfg.Console {
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeLevel:      zapcore.CapitalColorLevelEncoder,
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl))
	}
	if cfg.File != "" {
		w := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 7),
			LocalTime:  true,
		}
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeTime:       zapcore.ISO8601TimeEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
	}
	SetLogger(zap.New(zapcore.NewTee(cores...)))
	return nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return l, errors.Wrapf(err, "log level %q", level)
	}
	return l, nil
}

// SetLogger installs l. A nil logger silences all output.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	logger = l
	sugar = l.Sugar()
}

func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Sync() {
	_ = Logger().Sync()
}

func Printf(format string, v ...interface{}) {
	get().Infof(format, v...)
}

// DPrintf only shows up with level "debug".
func DPrintf(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	get().Errorf(format, v...)
}
