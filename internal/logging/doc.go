// Package logging builds slog loggers for the CLI and daemon. The console
// format targets terminals and log files; the JSON format is for ingestion.
package logging
