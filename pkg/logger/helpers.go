package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed HTTP request
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// Download outcomes reported by LogDownload
const (
	DownloadWritten = "written"
	DownloadSkipped = "skipped"
	DownloadFailed  = "failed"
)

// LogDownload logs the outcome of a single image download
func LogDownload(l Logger, version, filename, outcome string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"version":  version,
		"filename": filename,
		"outcome":  outcome,
	})

	switch {
	case err != nil:
		entry.WithError(err).Error("Download failed")
	case outcome == DownloadSkipped:
		entry.Info("File already exists")
	default:
		entry.Info("Writing file")
	}
}

// LogBatchStart logs the start of one version's crawl
func LogBatchStart(l Logger, version, listingURL string) {
	l.InfoWithFields("Batch started", map[string]interface{}{
		"version":     version,
		"listing_url": listingURL,
	})
}

// LogBatchSummary logs the tallies of one version's crawl
func LogBatchSummary(l Logger, version string, written, skipped, failed int, elapsed time.Duration) {
	l.InfoWithFields("Batch finished", map[string]interface{}{
		"version":  version,
		"written":  written,
		"skipped":  skipped,
		"failed":   failed,
		"duration": elapsed,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                                   {}
func (nopLogger) Info(string)                                    {}
func (nopLogger) Warn(string)                                    {}
func (nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger         { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger     { return n }
func (n nopLogger) WithError(error) Logger                       { return n }
func (nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (nopLogger) Zerolog() *zerolog.Logger                       { l := zerolog.Nop(); return &l }
