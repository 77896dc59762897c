package lumux

import (
	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/ports"
	"github.com/bft-labs/lumux/pkg/lifecycle"
	"github.com/bft-labs/lumux/pkg/log"
)

// Interfaces accepted by options. Implementations may live outside this
// module.
type (
	// Logger is the structured logging interface from pkg/log.
	Logger = log.Logger

	// LogField is a structured log field.
	LogField = log.Field

	// HTTPClient sends bridge REST requests. *http.Client satisfies it.
	HTTPClient = ports.HTTPClient

	// Frame is a captured screen image.
	Frame = domain.Frame

	// FrameSource produces the most recent screen frame.
	FrameSource = ports.FrameSource

	// StreamDialer opens the encrypted transport to the bridge.
	StreamDialer = ports.StreamDialer

	// StreamCredentials are passed to a StreamDialer.
	StreamCredentials = ports.StreamCredentials

	// RetryPolicy bounds session establishment.
	RetryPolicy = lifecycle.RetryPolicy
)

// Option configures optional behavior of Lumux.
type Option func(*options)

type options struct {
	httpClient   HTTPClient
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	frameSource  FrameSource
	dialer       StreamDialer
	retry        *RetryPolicy
}

// WithHTTPClient sets the client used for bridge REST calls. If not
// provided, a client accepting the bridge's self-signed certificate is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger. If not provided, nothing is logged.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for state changes and status updates.
// Events are called synchronously from the sync loop.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Lumux starts.
// Plugins are initialized in registration order and shut down in reverse.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithFrameSource replaces screen capture.
func WithFrameSource(src FrameSource) Option {
	return func(o *options) {
		o.frameSource = src
	}
}

// WithStreamDialer replaces the transport selected by Config.Transport.
func WithStreamDialer(d StreamDialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithRetryPolicy overrides the connect retry policy. Config.ConnectAttempts
// is ignored when set.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.retry = &p
	}
}
