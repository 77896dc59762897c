// Package lumux provides an embeddable ambient-lighting sync engine for Hue
// entertainment zones.
//
// Lumux captures the screen, reduces it to edge zone colors, converts them
// to the bridge's xy color space and streams them to an entertainment zone
// over DTLS. It can be used through the lumux CLI or embedded as a library.
//
// # Basic Usage
//
//	cfg := lumux.Config{
//	    BridgeAddress: "192.168.1.20",
//	    AppKey:        "your-application-key",
//	    ClientKey:     "0123456789abcdef0123456789abcdef",
//	    ZoneID:        "1a8d99cc-967b-44f2-9202-43f976c0fa6b",
//	}
//
//	l, err := lumux.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := l.Stop(ctx); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Settings
//
// [Config.Settings] holds the tuning values of the pipeline. Out of range
// values are clamped, never rejected. [Lumux.UpdateSettings] changes them
// while syncing; the loop applies them on its next frame. Zone layout
// changes take effect at the next Start.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to receive
// state changes and the status stream. Handlers are called synchronously
// from the sync loop and must return quickly.
//
// # Plugins
//
// Plugins are initialized on Start and shut down on Stop, in reverse order.
// A plugin that also implements [EventHandler] receives every event:
//
//	l, err := lumux.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{Path: path}),
//	    statusserver.WithStatusServer(statusserver.Config{Addr: ":8089"}),
//	)
package lumux
