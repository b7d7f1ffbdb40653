package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"thermogo/internal/alerts"
	"thermogo/internal/bus"
	"thermogo/internal/config"
	"thermogo/internal/logging"
	"thermogo/internal/monitor"
	"thermogo/internal/persistence"
	"thermogo/internal/protocol"
	"thermogo/internal/series"
	"thermogo/internal/transport"
)

// Runtime wires the connected client, the telemetry producer, and
// their collaborators for one monitoring session.
type Runtime struct {
	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB
	SampleRepo *persistence.SampleRepo

	Transport transport.Transport
	Client    *protocol.Client
	Registry  *series.Registry
	Monitor   *monitor.Service
}

// Initialize loads config, configures logging, opens telemetry
// history when recording is on, connects the transport, and builds
// the producer service. The caller runs Monitor.Run and Close.
func Initialize(parent context.Context) (*Runtime, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		cancel()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting thermogo runtime", "connector", cfg.Connection.Connector)

	rt.Bus = bus.New(logMgr.Logger("bus"))

	var recorder monitor.Recorder
	if cfg.Storage.Record {
		db, err := persistence.Open(ctx, paths.DBFile)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.DB = db
		rt.SampleRepo = persistence.NewSampleRepo(db)
		recorder = rt.SampleRepo

		cutoff := time.Now().AddDate(0, 0, -cfg.Storage.RetentionDays)
		if n, err := rt.SampleRepo.DeleteOlderThan(ctx, cutoff); err != nil {
			slog.Warn("telemetry retention cleanup", "error", err)
		} else if n > 0 {
			slog.Info("telemetry retention cleanup", "deleted", n)
		}
	}

	tr, err := NewTransportForConnection(cfg.Connection)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Transport = tr

	rt.publishConnStatus(bus.ConnectionStateConnecting, nil)
	if err := tr.Connect(ctx); err != nil {
		rt.publishConnStatus(bus.ConnectionStateDisconnected, err)
		_ = rt.Close()
		return nil, fmt.Errorf("connect %s transport: %w", tr.Name(), err)
	}
	rt.publishConnStatus(bus.ConnectionStateConnected, nil)

	rt.Client = protocol.NewClient(logMgr.Logger("protocol"), tr, protocol.WithChannels(cfg.Protocol.Channels))
	rt.Registry = BuildRegistry(cfg.Plot)
	rt.Monitor = monitor.NewService(
		logMgr.Logger("monitor"),
		rt.Bus,
		rt.Client,
		rt.Registry,
		recorder,
		cfg.Plot.Channel,
		cfg.Protocol.ReportAck,
	)

	return rt, nil
}

// StartAlerts launches the temperature watcher when alerts are
// enabled. sender may be nil to only publish bus events.
func (rt *Runtime) StartAlerts(sender alerts.Sender) {
	if !rt.Config.Alerts.Enabled {
		return
	}
	watcher := alerts.NewWatcher(rt.LogManager.Logger("alerts"), sender, rt.Config.Alerts)
	go watcher.Run(rt.Ctx, rt.Bus)
}

// Close releases the session's resources on every exit path.
func (rt *Runtime) Close() error {
	rt.cancel()

	var firstErr error
	if rt.Transport != nil {
		if err := rt.Transport.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rt.DB != nil {
		if err := rt.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rt.Bus != nil {
		rt.Bus.Close()
	}
	if rt.LogManager != nil {
		if err := rt.LogManager.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (rt *Runtime) publishConnStatus(state bus.ConnectionState, err error) {
	status := bus.ConnectionStatus{
		State:     state,
		Timestamp: time.Now(),
	}
	if rt.Transport != nil {
		status.TransportName = rt.Transport.Name()
		if resolver, ok := rt.Transport.(transport.StatusTargetResolver); ok {
			status.Target = resolver.StatusTarget()
		}
	}
	if err != nil {
		status.Err = err.Error()
	}
	rt.Bus.Publish(bus.TopicConnStatus, status)
}
