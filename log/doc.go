// Package log provides the leveled logging interface used across PixelGraph.
//
// Two implementations are included: DefaultLogger, built on the standard
// library logger, and GologLogger, a thin wrapper around
// github.com/kataras/golog. The command line binary uses the golog flavour;
// tests usually pass a NoOpLogger or a DefaultLogger writing to a buffer.
//
//	logger := log.NewGologLoggerWithLevel(log.LogLevelDebug)
//	logger.Info("listening on %s", addr)
//
// A package-level logger is also available for code that has no logger
// injected:
//
//	log.SetLogLevel(log.LogLevelWarn)
//	log.Warn("OPENAI_API_KEY not set, using demo mode")
package log
