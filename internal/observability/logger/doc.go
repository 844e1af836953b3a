// Package logger provee un logger estructurado (zap) como singleton,
// con helpers de campos estándar y propagación por contexto.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "linkjohn"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("reconcile.engine"))
//	log.Info("merge decided", logger.AccountID(id), logger.EmailMasked(email))
package logger
