package log

// NoopLogger drops every message. It is what library users get unless they
// pass a logger.
type NoopLogger struct{}

// NewNoopLogger returns a NoopLogger.
func NewNoopLogger() *NoopLogger { return &NoopLogger{} }

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}

var (
	_ Logger = NoopLogger{}
	_ Logger = (*ZerologAdapter)(nil)
)
