// Package log holds logger helpers shared by the internal adapters.
package log

import (
	"github.com/bft-labs/lumux/internal/ports"
	pkglog "github.com/bft-labs/lumux/pkg/log"
)

// OrNoop returns l, or a logger that discards everything when l is nil.
func OrNoop(l ports.Logger) ports.Logger {
	if l == nil {
		return pkglog.NewNoopLogger()
	}
	return l
}

// componentLogger tags every entry with the component that produced it.
type componentLogger struct {
	next  ports.Logger
	field ports.Field
}

// Named returns a logger that adds component=name to every entry.
func Named(l ports.Logger, name string) ports.Logger {
	return &componentLogger{next: OrNoop(l), field: ports.String("component", name)}
}

func (c *componentLogger) with(fields []ports.Field) []ports.Field {
	out := make([]ports.Field, 0, len(fields)+1)
	out = append(out, c.field)
	return append(out, fields...)
}

// Debug logs at debug level.
func (c *componentLogger) Debug(msg string, fields ...ports.Field) { c.next.Debug(msg, c.with(fields)...) }

// Info logs at info level.
func (c *componentLogger) Info(msg string, fields ...ports.Field) { c.next.Info(msg, c.with(fields)...) }

// Warn logs at warn level.
func (c *componentLogger) Warn(msg string, fields ...ports.Field) { c.next.Warn(msg, c.with(fields)...) }

// Error logs at error level.
func (c *componentLogger) Error(msg string, fields ...ports.Field) { c.next.Error(msg, c.with(fields)...) }
