// Package main is the entry point for the gainhourd daemon.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gainhour/gainhour/internal/buildinfo"
	"github.com/gainhour/gainhour/internal/config"
	"github.com/gainhour/gainhour/internal/icons"
	"github.com/gainhour/gainhour/internal/models"
	"github.com/gainhour/gainhour/internal/presence"
	"github.com/gainhour/gainhour/internal/sensor"
	"github.com/gainhour/gainhour/internal/server"
	"github.com/gainhour/gainhour/internal/store"
	"github.com/gainhour/gainhour/internal/tracker"
	"github.com/gainhour/gainhour/internal/tray"
)

func main() {
	foreground := flag.Bool("foreground", false, "Run in foreground (no system tray)")
	port := flag.Int("port", 0, "Port to listen on (0 for dynamic allocation)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("info").Fatal().Err(err).Msg("loading config failed")
	}
	if *port != 0 {
		cfg.ListenPort = *port
	}
	log := config.NewLogger(cfg.LogLevel)

	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatal().Err(err).Msg("creating data directory failed")
	}

	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatal().Err(err).Msg("checking daemon status failed")
	}
	if running {
		log.Fatal().Int("port", info.Port).Int("pid", info.PID).Msg("daemon already running")
	}

	d, err := newDaemon(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("daemon startup failed")
	}

	if *foreground {
		log.Info().Msg("running in foreground mode (no system tray)")
		runForeground(d)
	} else {
		log.Info().Msg("running in background mode (with system tray)")
		runWithTray(d)
	}
}

type daemon struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *store.Store
	engine   *tracker.Engine
	server   *server.Server
	presence *presence.Client

	cancel     context.CancelFunc
	engineDone chan struct{}
}

// newDaemon wires the services. Ordering contract: crash recovery (and
// retention cleanup, when enabled) completes before the engine's first
// tick can run.
func newDaemon(cfg *config.Config, log zerolog.Logger) (*daemon, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = config.GlobalDBFile()
		if err != nil {
			return nil, err
		}
	}

	st, err := store.Open(dbPath, config.Component(log, "store"))
	if err != nil {
		return nil, err
	}

	if err := st.CleanupIncompleteLogs(); err != nil {
		st.Close()
		return nil, err
	}
	dailyOnly, err := st.BoolSetting(models.SettingDailyLogsOnly, false)
	if err != nil {
		st.Close()
		return nil, err
	}
	if dailyOnly {
		n, err := st.CleanupOldDescriptionLogs(models.StartOfDay(time.Now()))
		if err != nil {
			st.Close()
			return nil, err
		}
		if n > 0 {
			log.Info().Int64("deleted", n).Msg("purged description logs from before today")
		}
	}

	iconsDir, err := config.GlobalIconsDir()
	if err != nil {
		st.Close()
		return nil, err
	}
	ic, err := icons.NewCache(iconsDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	sns, err := sensor.New()
	if err != nil {
		if len(cfg.WatchProcesses) > 0 {
			log.Warn().Err(err).Msg("window sensor unavailable, falling back to process watching")
			sns = sensor.NewProcessSensor(cfg.WatchProcesses)
		} else {
			log.Warn().Err(err).Msg("window sensor unavailable, manual sessions only")
			sns = nil
		}
	}

	pc := presence.NewClient(
		presence.NewDiscord(cfg.DiscordClientID),
		config.Component(log, "presence"))
	if enabled, _ := st.BoolSetting(models.SettingDiscordEnabled, true); enabled {
		// Best effort: a missing Discord client is a degraded mode, not
		// a startup failure.
		_ = pc.Reconnect()
	}

	engine := tracker.New(st, sns, ic, pc,
		cfg.TickInterval, cfg.HeartbeatInterval,
		config.Component(log, "tracker"))

	srv := server.New(engine, st, ic, buildinfo.Version, config.Component(log, "server"))

	return &daemon{
		cfg:        cfg,
		log:        log,
		store:      st,
		engine:     engine,
		server:     srv,
		presence:   pc,
		engineDone: make(chan struct{}),
	}, nil
}

// start launches the engine and the API and records daemon.yaml for client
// discovery.
func (d *daemon) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go func() {
		defer close(d.engineDone)
		d.engine.Run(ctx)
	}()

	port, err := d.server.Start(d.cfg.ListenPort)
	if err != nil {
		return err
	}

	info := models.NewDaemonInfo("localhost", port, os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		return err
	}

	d.log.Info().Int("port", port).Int("pid", os.Getpid()).Str("version", buildinfo.Version).Msg("daemon started")
	return nil
}

// stop shuts everything down in reverse order. The engine flush closes
// every open log before the store goes away.
func (d *daemon) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		d.log.Warn().Err(err).Msg("http shutdown failed")
	}

	if d.cancel != nil {
		d.cancel()
		<-d.engineDone
	}

	d.presence.Close()

	if err := d.store.Close(); err != nil {
		d.log.Warn().Err(err).Msg("closing store failed")
	}
	if err := config.RemoveDaemonInfo(); err != nil {
		d.log.Warn().Err(err).Msg("removing daemon info failed")
	}
	d.log.Info().Msg("daemon stopped")
}

// runForeground runs without a system tray, blocking on signals.
func runForeground(d *daemon) {
	if err := d.start(); err != nil {
		d.log.Fatal().Err(err).Msg("daemon startup failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	d.log.Info().Str("signal", sig.String()).Msg("shutting down")

	d.stop()
}

// runWithTray runs with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(d *daemon) {
	onStart := func() {
		if err := d.start(); err != nil {
			d.log.Error().Err(err).Msg("daemon startup failed")
			tray.Quit()
			return
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			d.log.Info().Str("signal", sig.String()).Msg("shutting down")
			tray.Quit()
		}()
	}

	// This blocks the main goroutine until the tray exits.
	tray.Run(&trayState{d: d}, onStart, d.stop)
}

// trayState adapts the daemon to the tray's read-only view.
type trayState struct {
	d *daemon
}

func (t *trayState) Port() int {
	return t.d.server.Port()
}

func (t *trayState) TrackingLine() string {
	st := t.d.engine.Status()
	if st.Auto != nil {
		return "Tracking: " + st.Auto.Name
	}
	return "Idle"
}

func (t *trayState) ManualCount() int {
	return len(t.d.engine.Status().Manual)
}

func (t *trayState) RequestShutdown() {
	tray.Quit()
}
