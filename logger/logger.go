// Package logger wraps the process wide zap logger used by the commands
// and the detector service.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu sync.RWMutex
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// InitProduction initialises a JSON production logger
func InitProduction() error {

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()

	if err != nil {
		return err
	}

	setLogger(l)
	return nil
}

// InitDevelopment initialises a console friendly development logger
func InitDevelopment() error {

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()

	if err != nil {
		return err
	}

	setLogger(l)
	return nil
}

// setLogger installs the logger instance and replaces the zap globals so
// zap.L() and zap.S() return the same instance
func setLogger(l *zap.Logger) {

	logMu.Lock()
	defer logMu.Unlock()

	zap.ReplaceGlobals(l)

	if log != nil {
		_ = log.Sync()
	}

	log = l
	sugar = l.Sugar()
}

// Log returns the installed *zap.Logger, or the zap global when none has
// been initialised
func Log() *zap.Logger {

	logMu.RLock()
	defer logMu.RUnlock()

	if log != nil {
		return log
	}

	return zap.L()
}

// S returns the installed *zap.SugaredLogger
func S() *zap.SugaredLogger {

	logMu.RLock()
	defer logMu.RUnlock()

	if sugar != nil {
		return sugar
	}

	return zap.S()
}

// Sync flushes buffered log entries
func Sync() {

	logMu.RLock()
	defer logMu.RUnlock()

	if log != nil {
		_ = log.Sync()
	}
}
