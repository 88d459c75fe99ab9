// Package logger builds the service's slog.Logger.
//
// The output format and level follow the deployment environment: development
// logs human-readable text at debug level, staging and production log JSON at
// info level. Request-scoped values such as the request id are injected from
// the context by extractors registered with WithContextExtractors.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "ndavault"),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), jwt.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "subscription synced", logger.UserID(userID))
package logger
