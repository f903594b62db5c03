// Package logger builds the service's slog.Logger.
//
// Production uses JSON output at info level, development uses text at debug.
// Context extractors add request-scoped attributes such as request_id and
// user_id to every record logged with a *Context method:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "quotekit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), gate.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "quote created")
package logger
