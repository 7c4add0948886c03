// Package logger provides structured logging utilities built on Go's standard slog package.
//
// Loggers are created with New and functional options:
//
//	log := logger.New(
//		logger.WithProduction("assetmail"),
//		logger.WithContextExtractors(requestIDFromContext),
//	)
//
//	log.Info("delivery sent",
//		logger.Component("delivery"),
//		logger.Mode("attachments"),
//		logger.MessageID(id),
//	)
//
// Attribute helpers return an empty slog.Attr for zero values (nil errors,
// empty identifiers), which slog drops, so callers never need nil checks.
package logger
