package app

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/adapters/socket"
	"github.com/lcalzada-xor/honeytrap/internal/adapters/socket/handlers"
	"github.com/lcalzada-xor/honeytrap/internal/adapters/storage"
	"github.com/lcalzada-xor/honeytrap/internal/adapters/web"
	"github.com/lcalzada-xor/honeytrap/internal/config"
	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
	"github.com/lcalzada-xor/honeytrap/internal/core/services/policy"
	"github.com/lcalzada-xor/honeytrap/internal/core/services/stealth"
	"github.com/lcalzada-xor/honeytrap/internal/telemetry"
)

// sweepInterval is how often the supervisor runs the idle-connection and
// inactive-session sweeps.
const sweepInterval = policy.InactivityLimit

// Application is the facade wiring the gateway's components together.
type Application struct {
	Config  *config.Config
	Store   *storage.SQLiteStore
	Engine  *policy.Engine
	Stealth *stealth.Supervisor
	Socket  *socket.Server
	Web     *web.Server
}

// New creates an Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}
	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	// Storage and first-startup defaults.
	store, err := storage.NewSQLiteStore(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	if err := store.Seed(); err != nil {
		store.Close()
		return fmt.Errorf("storage seed: %w", err)
	}
	app.Store = store

	// Decision engine and port stealth.
	app.Engine = policy.NewEngine(store)
	app.Stealth = stealth.NewSupervisor()

	// Message server and its command handlers.
	var tlsConf *tls.Config
	if app.Config.UseTLS {
		tlsConf, err = socket.LoadOrCreateTLSConfig(app.Config.CertDir)
		if err != nil {
			return fmt.Errorf("tls setup: %w", err)
		}
	}
	app.Socket = socket.NewServer(app.Config.Host, app.Config.ControlPort, app.Config.DataPort, tlsConf)
	handlers.New(app.Engine, store, app.Stealth).RegisterAll(app.Socket)

	// Operator console, plus the event fan-out feeding both the console
	// websocket and the data channel.
	app.Web = web.NewServer(app.Config.OpsAddr, app.Engine, store)
	app.Engine.SetNotifier(fanout{app.Web.WSManager, dataChannelNotifier{app.Socket}})

	return nil
}

// Run starts every component and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	// Reconcile RST workers with the persisted port policy before the
	// gateway starts answering.
	if servicePorts, err := app.Store.Ports(); err == nil {
		app.Stealth.SyncAll(servicePorts)
	}

	if err := app.Socket.Start(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := app.Web.Run(ctx); err != nil {
			errChan <- err
		}
	}()
	go app.superviseLoop(ctx)

	select {
	case <-ctx.Done():
	case err := <-errChan:
		app.shutdown()
		return err
	}

	app.shutdown()
	return nil
}

// superviseLoop periodically drops idle connections and flags idle sessions.
func (app *Application) superviseLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Socket.IdleSweep()
			app.Engine.InactivitySweep()
		}
	}
}

func (app *Application) shutdown() {
	app.Socket.Stop()
	app.Stealth.Stop()
	if err := app.Store.Close(); err != nil {
		slog.Error("Failed to close store", "error", err)
	}
}

// fanout multiplexes gateway events to several sinks.
type fanout []ports.Notifier

func (f fanout) Notify(event string, payload any) {
	for _, n := range f {
		n.Notify(event, payload)
	}
}

// dataChannelNotifier pushes gateway events to every data-channel client,
// framed like requests with the event name in the command field.
type dataChannelNotifier struct {
	server *socket.Server
}

func (n dataChannelNotifier) Notify(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	n.server.Broadcast(socket.ChannelData, domain.Message{
		Command:   event,
		Params:    raw,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	})
}
