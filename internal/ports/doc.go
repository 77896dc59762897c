// Package ports defines the interfaces (ports) that connect the sync pipeline
// to infrastructure adapters.
//
// Ports are the boundaries between the pipeline core and the outside world.
// They state what the core needs from capture hardware, the bridge and the
// network without saying how those needs are met.
//
// # Port Interfaces
//
//   - [FrameSource]: produces the newest captured screen frame
//   - [StreamSession]: an authenticated streaming session to the bridge
//   - [StreamDialer]: opens the encrypted datagram transport of a session
//   - [BridgeAPI]: REST calls that claim and release an entertainment zone
//   - [LightController]: REST calls that set individual light state
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters, internal/huestream) implement them, which
// keeps the sync loop testable with fakes.
package ports
