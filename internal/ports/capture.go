package ports

import (
	"context"

	"github.com/bft-labs/lumux/internal/domain"
)

// FrameSource yields captured screen frames.
// Implementations keep only the newest frame; older frames are dropped.
type FrameSource interface {
	// Capture returns the most recent frame. When no frame is available it
	// returns an error wrapping domain.ErrNoFrame; callers treat that as a
	// skipped tick, not a failure.
	Capture(ctx context.Context) (*domain.Frame, error)

	// Close releases the capture session. A later Capture reacquires it.
	Close() error
}

// DropCounter is implemented by frame sources that count frames replaced
// before anyone read them.
type DropCounter interface {
	Dropped() uint64
}
