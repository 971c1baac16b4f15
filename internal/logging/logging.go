// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the application logger.
//
// Logs go to a rotated file under the breath config directory rather
// than the terminal, which the interactive prompt owns. Debug mode
// additionally mirrors to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	// Dir is the directory for log files. Empty means ~/.breath/logs.
	Dir string

	// Debug lowers the level to debug and mirrors output to stderr.
	Debug bool
}

// New builds the application logger.
func New(opts Options) (*zap.Logger, error) {
	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".breath", "logs")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	fileCore := zapcore.NewCore(encoder,
		zapcore.AddSync(&lumberjack.Logger{
			Filename: filepath.Join(dir, "breath.log"),
			MaxSize:  50, // megabytes
			MaxAge:   28, // days
			Compress: true,
		}),
		level,
	)

	core := fileCore
	if opts.Debug {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		core = zapcore.NewTee(fileCore,
			zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), zap.DebugLevel))
	}

	return zap.New(core), nil
}
