// Package logging provides structured logging utilities for the MCP server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "gmail.list")
//	logger.Info("listing emails",
//	    logging.Status("success"))
//
// Never log token material directly:
//
//	logger.Debug("token refreshed", "access_token", logging.SanitizeToken(tok.AccessToken))
//
// Logs are always written to stderr because stdout carries the stdio transport.
package logging
