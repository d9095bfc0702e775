// Package logging provides structured logging helpers on top of log/slog.
//
// Loggers are JSON by default and travel through the application either
// as explicit *slog.Logger fields or inside a context. A generation run
// stores its id in the context so every entry it produces can be
// correlated:
//
//	ctx = logging.ContextWithRunID(ctx, runID)
//	logger := logging.WithRunID(ctx, slog.Default())
//	logger.Info("run started")
package logging
