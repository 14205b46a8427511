// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"scoreledger/internal/config"
)

// Setup sets the formatter and level, and adds a rotating file sink when
// LOG_FILE is configured. The returned closer flushes that file.
func Setup(app config.AppConfig, file config.LogConfig) (io.Closer, error) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := log.ParseLevel(app.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_LOG_LEVEL %q: %w", app.LogLevel, err)
	}
	log.SetLevel(level)

	if file.File == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(file.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir failed: %w", err)
	}
	logFile := &lumberjack.Logger{
		Filename:   file.File,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.WithField("path", logFile.Filename).Info("File logging enabled")
	return logFile, nil
}
