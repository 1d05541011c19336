// Package logger provides structured logging for the crawler.
//
// It wraps zerolog behind a small interface so components can take a Logger
// as a dependency and tests can swap in NewTestLogger or NewNopLogger.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("version", "311").Info("Batch started")
//
// Console output is human readable unless the format is "json". When a file is
// configured, records are written to both the console and the file.
package logger
