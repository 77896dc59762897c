// Package log provides the logging abstraction used by lumux components.
//
// The Logger interface can be backed by any logging library. A zerolog
// adapter is provided for console output, and a no-op logger is the default
// for library users who do not opt in.
//
//	logger, err := log.NewConsoleLogger(os.Stderr, "debug")
//
// Implement Logger to route lumux logs into an existing logging setup:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
package log
