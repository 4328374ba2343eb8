// Package logging assembles structured slog loggers and formatting helpers used
// across the analyzer.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with run
// IDs, pipeline states, and HTTP correlation IDs. When a log directory is
// configured every record is also appended as a JSON line to
// contentanalyzer.log, whatever the console format.
package logging
