package ports

import "github.com/bft-labs/lumux/pkg/log"

// Logger is the structured logger used throughout the internal packages.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for internal callers.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
