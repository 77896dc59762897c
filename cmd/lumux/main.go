package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/lumux/internal/adapters/bridge"
	"github.com/bft-labs/lumux/internal/cliconfig"
	"github.com/bft-labs/lumux/pkg/lifecycle"
	pkglog "github.com/bft-labs/lumux/pkg/log"
	"github.com/bft-labs/lumux/pkg/lumux"
	"github.com/bft-labs/lumux/plugins/configwatcher"
	"github.com/bft-labs/lumux/plugins/statusserver"
)

const helpDescription = `
Mirror the edges of your screen onto a Hue entertainment zone.

Highlights:
  - Captures a display, crops letterbox bars and averages edge or grid zones.
  - Streams HueStream v2 frames over DTLS at up to 60 frames per second.
  - Configure via file, env (LUMUX_*) or flags; sync settings reload live.
  - Optional reading light once sync stops, optional local status server.

The bridge needs an application key and a client key from the entertainment
pairing flow, and an entertainment zone set up in the Hue app.
`

var exampleUsage = strings.TrimSpace(`
  lumux --bridge 192.168.1.20 --app-key <key> --client-key <hex> --zone <uuid>
  lumux --config $HOME/.lumux/config.toml --fps 30 --layout grid
  lumux topology --bridge 192.168.1.20 --app-key <key> --zone <uuid>
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

const (
	restartInitial = 2 * time.Second
	restartMax     = 30 * time.Second
	statsInterval  = 30 * time.Second
)

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var restart bool

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// load resolves the effective configuration: defaults, then the config
	// file, then LUMUX_* variables, then explicitly set flags.
	load := func(cmd *cobra.Command, validate func(*cliconfig.Config) error) (string, map[string]bool, error) {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return "", nil, fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return "", nil, err
			}
		}
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return "", nil, err
		}

		lvl, err := pkglog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return "", nil, err
		}
		log = log.Level(lvl)

		if err := validate(&cfg); err != nil {
			return "", nil, err
		}
		log.Info().Interface("config", cfg.Redacted()).Msg("configuration")
		return cfgFile, changed, nil
	}

	root := &cobra.Command{
		Use:     "lumux",
		Short:   "Sync a Hue entertainment zone with your screen",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, changed, err := load(cmd, (*cliconfig.Config).Validate)
			if err != nil {
				return err
			}
			return run(cmd.Context(), log, cfg, cfgFile, changed, restart)
		},
	}

	topology := &cobra.Command{
		Use:   "topology",
		Short: "Print the channels of the entertainment zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := load(cmd, (*cliconfig.Config).ValidateBridge); err != nil {
				return err
			}
			return printTopology(cmd.Context(), log, cfg)
		},
	}

	// Flags shared by run and topology.
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.lumux/config.toml)")
	pf.StringVar(&cfg.BridgeAddress, "bridge", cfg.BridgeAddress, "bridge IP address or host name")
	pf.StringVar(&cfg.AppKey, "app-key", cfg.AppKey, "bridge application key (hue-application-key)")
	pf.StringVar(&cfg.ZoneID, "zone", cfg.ZoneID, "entertainment configuration id")
	pf.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "timeout of bridge REST requests")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	f := root.Flags()
	f.StringVar(&cfg.ClientKey, "client-key", cfg.ClientKey, "hex encoded entertainment client key (DTLS PSK)")
	f.StringVar(&cfg.Transport, "transport", cfg.Transport, "stream transport: dtls or openssl")

	f.IntVar(&cfg.Display, "display", cfg.Display, "index of the display to capture")
	f.IntVar(&cfg.Rotation, "rotation", cfg.Rotation, "rotate captured frames by 0, 90, 180 or 270 degrees")
	f.Float64Var(&cfg.Scale, "scale", cfg.Scale, "downscale factor applied to captured frames")
	f.DurationVar(&cfg.CaptureInterval, "capture-interval", cfg.CaptureInterval, "minimum interval between captures")

	f.IntVar(&cfg.FPS, "fps", cfg.FPS, "stream rate in frames per second (1-60)")
	f.IntVar(&cfg.TransitionMS, "transition-ms", cfg.TransitionMS, "transition time of the reading light in milliseconds")
	f.Float64Var(&cfg.BrightnessScale, "brightness", cfg.BrightnessScale, "brightness multiplier (0-2)")
	f.Float64Var(&cfg.Gamma, "gamma", cfg.Gamma, "gamma applied before color conversion (0.1-3)")
	f.Float64Var(&cfg.SmoothingFactor, "smoothing", cfg.SmoothingFactor, "temporal smoothing factor (0-1)")
	f.StringVar(&cfg.Gamut, "gamut", cfg.Gamut, "color gamut of the lights: A, B or C")
	f.IntVar(&cfg.ConnectAttempts, "connect-attempts", cfg.ConnectAttempts, "connection attempts before Start fails")

	f.StringVar(&cfg.Layout, "layout", cfg.Layout, "zone layout: ring or grid")
	f.IntVar(&cfg.EdgeRows, "edge-rows", cfg.EdgeRows, "zones along the left and right edges")
	f.IntVar(&cfg.EdgeCols, "edge-cols", cfg.EdgeCols, "zones along the top and bottom edges")
	f.IntVar(&cfg.GridRows, "grid-rows", cfg.GridRows, "grid layout rows")
	f.IntVar(&cfg.GridCols, "grid-cols", cfg.GridCols, "grid layout columns")

	f.BoolVar(&cfg.BlackBarEnabled, "black-bar", cfg.BlackBarEnabled, "crop letterbox and pillarbox bars")
	f.IntVar(&cfg.BlackBarThreshold, "black-bar-threshold", cfg.BlackBarThreshold, "luminance at or below which a pixel is black")
	f.IntVar(&cfg.BlackBarDetectionRate, "black-bar-rate", cfg.BlackBarDetectionRate, "run detection every N frames")
	f.Float64Var(&cfg.BlackBarSmoothFactor, "black-bar-smooth", cfg.BlackBarSmoothFactor, "smoothing of the detected crop (0-1)")
	f.Float64Var(&cfg.BlackBarMinSizePercent, "black-bar-min-size", cfg.BlackBarMinSizePercent, "ignore bars thinner than this percentage")

	f.BoolVar(&cfg.ReadingEnabled, "reading", cfg.ReadingEnabled, "switch the zone to a reading light when sync stops")
	f.DurationVar(&cfg.ReadingDelay, "reading-delay", cfg.ReadingDelay, "delay before the reading light is applied")
	f.Float64Var(&cfg.ReadingX, "reading-x", cfg.ReadingX, "reading light CIE x")
	f.Float64Var(&cfg.ReadingY, "reading-y", cfg.ReadingY, "reading light CIE y")
	f.IntVar(&cfg.ReadingBrightness, "reading-brightness", cfg.ReadingBrightness, "reading light brightness (0-255)")
	f.StringSliceVar(&cfg.ReadingLights, "reading-lights", cfg.ReadingLights, "light ids for the reading light (default: zone members)")

	f.StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "listen address of the status server, empty to disable")
	f.BoolVar(&restart, "restart", true, "reconnect after the stream is lost")

	root.AddCommand(topology)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("lumux")
		os.Exit(1)
	}
}

func libConfig(cfg cliconfig.Config) lumux.Config {
	return lumux.Config{
		BridgeAddress:   cfg.BridgeAddress,
		AppKey:          cfg.AppKey,
		ClientKey:       cfg.ClientKey,
		ZoneID:          cfg.ZoneID,
		Transport:       lumux.Transport(cfg.Transport),
		HTTPTimeout:     cfg.HTTPTimeout,
		Display:         cfg.Display,
		Rotation:        cfg.Rotation,
		Scale:           cfg.Scale,
		CaptureInterval: cfg.CaptureInterval,
		ConnectAttempts: cfg.ConnectAttempts,
		Settings:        cfg.Settings(),
		Reading: lumux.ReadingConfig{
			Enabled: cfg.ReadingEnabled,
			Delay:   cfg.ReadingDelay,
			Color: lumux.DeviceColor{
				XY:         lumux.XY{X: cfg.ReadingX, Y: cfg.ReadingY},
				Brightness: float64(cfg.ReadingBrightness),
			},
			LightIDs: cfg.ReadingLights,
		},
	}
}

// reloadLoader re-reads the config file for the config watcher. Flags given
// on the command line keep their value across reloads.
func reloadLoader(base cliconfig.Config, changed map[string]bool) configwatcher.Loader {
	return func(path string) (lumux.Settings, error) {
		fc, err := cliconfig.LoadFileConfig(path)
		if err != nil {
			return lumux.Settings{}, err
		}
		c := base
		if err := cliconfig.ApplyFileConfig(&c, fc, changed); err != nil {
			return lumux.Settings{}, err
		}
		if err := cliconfig.ApplyEnvConfig(&c, changed); err != nil {
			return lumux.Settings{}, err
		}
		return c.Settings(), nil
	}
}

// streamWatch signals when the loop stopped itself after losing the stream.
type streamWatch struct {
	lumux.BaseEventHandler
	lost chan struct{}
}

func (w *streamWatch) OnStateChange(e lumux.StateChangeEvent) {
	if e.Current != lumux.StateStopped || e.Reason != lumux.ReasonStreamLost {
		return
	}
	select {
	case w.lost <- struct{}{}:
	default:
	}
}

func run(ctx context.Context, log zerolog.Logger, cfg cliconfig.Config, cfgFile string, changed map[string]bool, restart bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watch := &streamWatch{lost: make(chan struct{}, 1)}
	opts := []lumux.Option{
		lumux.WithLogger(pkglog.NewZerologAdapterWithLogger(log)),
		lumux.WithEventHandler(watch),
	}
	if cfgFile != "" {
		opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{
			Path:   cfgFile,
			Loader: reloadLoader(cfg, changed),
		}))
	}
	if cfg.StatusAddr != "" {
		opts = append(opts, statusserver.WithStatusServer(statusserver.Config{Addr: cfg.StatusAddr}))
	}

	l, err := lumux.New(libConfig(cfg), opts...)
	if err != nil {
		return fmt.Errorf("create lumux: %w", err)
	}

	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("start lumux: %w", err)
	}
	log.Info().Interface("mapping", l.Mapping()).Msg("streaming")

	backoff := lifecycle.NewBackoff(restartInitial, restartMax)
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("received signal, stopping...")
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
			defer cancel()
			if err := l.Stop(stopCtx); err != nil && !errors.Is(err, lumux.ErrNotRunning) {
				return fmt.Errorf("stop lumux: %w", err)
			}
			return nil

		case <-watch.lost:
			if !restart {
				_ = l.Stop(context.Background())
				return errors.New("stream lost")
			}
			for {
				log.Warn().Dur("in", backoff.Current()).Msg("stream lost, reconnecting")
				if err := backoff.Wait(ctx); err != nil {
					break
				}
				err := l.Start(ctx)
				if err == nil || errors.Is(err, lumux.ErrAlreadyRunning) {
					backoff.Reset()
					log.Info().Msg("stream restored")
					break
				}
				log.Error().Err(err).Msg("reconnect failed")
			}

		case <-ticker.C:
			s := l.Stats()
			log.Info().
				Str("state", l.Status().String()).
				Float64("fps", s.FPS).
				Uint64("frames", s.FrameCount).
				Uint64("errors", s.Errors).
				Uint64("skipped", s.Skipped).
				Dur("total", s.Stages.Total).
				Msg("stats")
		}
	}
}

func printTopology(ctx context.Context, log zerolog.Logger, cfg cliconfig.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	httpClient := bridge.DefaultHTTPClient()
	httpClient.Timeout = cfg.HTTPTimeout
	client := bridge.NewClient(cfg.BridgeAddress, cfg.AppKey, pkglog.NewZerologAdapterWithLogger(log),
		bridge.WithHTTPClient(httpClient))

	topo, err := client.EntertainmentConfiguration(ctx, cfg.ZoneID)
	if err != nil {
		return fmt.Errorf("fetch zone: %w", err)
	}

	fmt.Printf("%s (%s)\n", topo.Name, topo.ZoneID)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tX\tY\tZ\tLIGHTS")
	for _, ch := range topo.SortedChannels() {
		pos := "-\t-\t-"
		if ch.Position != nil {
			pos = fmt.Sprintf("%.2f\t%.2f\t%.2f", ch.Position.X, ch.Position.Y, ch.Position.Z)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", ch.ID, pos, strings.Join(ch.MemberLightIDs, ","))
	}
	return w.Flush()
}
