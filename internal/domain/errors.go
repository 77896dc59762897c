package domain

import "errors"

// Domain errors represent error conditions in the lumux pipeline.
// They are wrapped by adapters and can be checked with errors.Is.
var (
	// ErrNoFrame is returned by a frame source when no frame is available
	// yet. It is a soft failure: the next tick retries.
	ErrNoFrame = errors.New("lumux: no frame available")

	// ErrNotConnected is returned when sending on a session that is not connected.
	ErrNotConnected = errors.New("lumux: stream not connected")

	// ErrInvalidZoneID is returned when an entertainment zone identifier is
	// not a 36 character UUID string.
	ErrInvalidZoneID = errors.New("lumux: invalid entertainment zone id")

	// ErrNoChannels is returned when a topology has no channels to stream to.
	ErrNoChannels = errors.New("lumux: entertainment zone has no channels")

	// ErrAuth is returned when the bridge rejects the application key.
	ErrAuth = errors.New("lumux: bridge authentication failed")

	// ErrNotFound is returned when the entertainment zone does not exist.
	ErrNotFound = errors.New("lumux: resource not found")

	// ErrBridgeUnavailable is returned for transport failures and 5xx responses.
	ErrBridgeUnavailable = errors.New("lumux: bridge unavailable")

	// ErrActivation is returned when the bridge refuses to start streaming.
	ErrActivation = errors.New("lumux: streaming activation failed")

	// ErrHandshake is returned when the encrypted session cannot be established.
	ErrHandshake = errors.New("lumux: handshake failed")
)
