package lumux

import (
	"errors"

	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/pkg/lifecycle"
)

// Lifecycle errors.
var (
	ErrAlreadyRunning  = lifecycle.ErrAlreadyRunning
	ErrNotRunning      = lifecycle.ErrNotRunning
	ErrShutdownTimeout = lifecycle.ErrShutdownTimeout
)

// ErrInvalidConfig wraps every configuration error returned by New.
var ErrInvalidConfig = errors.New("lumux: invalid configuration")

// Errors surfaced by Start when the bridge refuses the session.
var (
	ErrAuth              = domain.ErrAuth
	ErrNotFound          = domain.ErrNotFound
	ErrBridgeUnavailable = domain.ErrBridgeUnavailable
	ErrActivation        = domain.ErrActivation
	ErrHandshake         = domain.ErrHandshake
	ErrNoChannels        = domain.ErrNoChannels
)
