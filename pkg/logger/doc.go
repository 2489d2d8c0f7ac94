// Package logger provides structured logging for the Truth Social scraper.
//
// It wraps zerolog behind a small interface so the client core can log
// page boundaries, rate-limit sleeps and failures without depending on a
// concrete logging library. Console output goes to stderr; stdout is
// reserved for scraped results.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil { ... }
//
//	logger.GetLogger().WithField("handle", "someuser").Info("stream started")
package logger
