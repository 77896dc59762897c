package app

import (
	"time"

	"github.com/bft-labs/lumux/internal/domain"
)

// StatusKind tags a Status.
type StatusKind string

const (
	StatusSyncing StatusKind = "syncing"
	StatusStopped StatusKind = "stopped"
	StatusError   StatusKind = "error"
)

// ReasonStreamLost is the transition reason when the loop stops itself
// after the stream dropped.
const ReasonStreamLost = "stream lost"

// Status is one entry of the outbound status stream.
type Status struct {
	Kind StatusKind

	// ZoneColors is set for StatusSyncing.
	ZoneColors map[string]domain.RGB

	// Error is set for StatusError.
	Error string

	Time time.Time
}

// StatusEmitter receives status updates. It is called from the loop
// goroutine and must not block.
type StatusEmitter interface {
	OnStatus(Status)
}

type noopStatus struct{}

func (noopStatus) OnStatus(Status) {}
