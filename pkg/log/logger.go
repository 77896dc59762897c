package log

import "time"

// Logger is the structured logger lumux components write to. Messages are
// short lowercase phrases; context goes into fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value pair attached to a message. Adapters map the
// value types produced by the constructors below to native field types and
// fall back to a generic encoding for anything else.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field             { return Field{key, value} }
func Strings(key string, value []string) Field   { return Field{key, value} }
func Int(key string, value int) Field            { return Field{key, value} }
func Int64(key string, value int64) Field        { return Field{key, value} }
func Uint8(key string, value uint8) Field        { return Field{key, value} }
func Uint64(key string, value uint64) Field      { return Field{key, value} }
func Float64(key string, value float64) Field    { return Field{key, value} }
func Bool(key string, value bool) Field          { return Field{key, value} }
func Duration(key string, d time.Duration) Field { return Field{key, d} }
func Any(key string, value any) Field            { return Field{key, value} }

// Err attaches err under the key "error".
func Err(err error) Field { return Field{"error", err} }
