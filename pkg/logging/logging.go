// Package logging builds the console's logrus loggers and its
// OpenTelemetry tracer provider.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleLogger logs text to stdout.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// FileLogger logs JSON to a rotated file at logPath and to stdout. The
// returned file has to stay open while the logger is used, it backs the
// rotation lock.
func FileLogger(level logrus.Level, logPath string) (*os.File, *logrus.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	log := logrus.New()
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return file, log, nil
}

// WithRequestFields returns an entry carrying the request id, when known.
func WithRequestFields(ctx context.Context, log *logrus.Logger, requestID string) *logrus.Entry {
	entry := logrus.NewEntry(log).WithContext(ctx)
	if requestID != "" {
		entry = entry.WithField("request-id", requestID)
	}
	return entry
}
