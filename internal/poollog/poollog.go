// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package poollog wires the pool's structured logger, following the
// zap configuration avalanchego's node assembles: a console encoder by
// default, with an optional rotating file sink.
package poollog

import (
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileSink describes an optional rotating log file, wired through
// lumberjack the same way avalanchego's go.mod pulls it in for its own
// log rotation.
type FileSink struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a zap.Logger for the pool. If sink is nil, logs go to
// stderr only.
func New(sink *FileSink) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		zap.InfoLevel,
	)

	if sink == nil {
		return zap.New(consoleCore), nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   sink.Path,
			MaxSize:    sink.MaxSizeMB,
			MaxBackups: sink.MaxBackups,
			MaxAge:     sink.MaxAgeDays,
		}),
		zap.InfoLevel,
	)

	return zap.New(zapcore.NewTee(consoleCore, fileCore)), nil
}
