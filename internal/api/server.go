package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/audit"
	"github.com/nerrad567/gray-logic-doorbell/internal/auth"
	"github.com/nerrad567/gray-logic-doorbell/internal/controller"
	"github.com/nerrad567/gray-logic-doorbell/internal/doorbell"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-doorbell/internal/notify"
	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
	"github.com/nerrad567/gray-logic-doorbell/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// statusInterval is how often the status channel is refreshed.
const statusInterval = time.Second

// MsgRebooting is notified before a restart is requested.
const MsgRebooting = "System is rebooting now..."

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.APIConfig
	WS            config.WebSocketConfig
	Logger        *logging.Logger
	Controller    *controller.Controller
	Notifications *notify.Distributor
	Settings      *settings.Manager
	Auth          *auth.Authenticator
	Audit         audit.Repository
	MQTT          *mqtt.Client // optional
	DB            *database.DB // optional, metrics only
	Version       string

	// Hostname is used when no network settings are stored.
	Hostname string

	// Simulator and Button enable the /simulator routes when set.
	Simulator *sensor.Simulator
	Button    *doorbell.SimulatedInput

	// Restart asks the process to exit so its supervisor restarts it.
	// It must not block.
	Restart func()
}

// Server is the HTTP API server for the doorbell.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg           config.APIConfig
	logger        *logging.Logger
	ctrl          *controller.Controller
	notifications *notify.Distributor
	settings      *settings.Manager
	auth          *auth.Authenticator
	audit         audit.Repository
	mqtt          *mqtt.Client
	db            *database.DB
	version       string
	hostname      string
	simulator     *sensor.Simulator
	button        *doorbell.SimulatedInput
	restart       func()
	startTime     time.Time
	server        *http.Server
	hub           *Hub
	cancel        context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, controller, notifications,
//     settings, auth, audit)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Controller == nil:
		return nil, fmt.Errorf("controller is required")
	case deps.Notifications == nil:
		return nil, fmt.Errorf("notification distributor is required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings manager is required")
	case deps.Auth == nil:
		return nil, fmt.Errorf("authenticator is required")
	case deps.Audit == nil:
		return nil, fmt.Errorf("audit repository is required")
	}

	restart := deps.Restart
	if restart == nil {
		restart = func() {}
	}

	s := &Server{
		cfg:           deps.Config,
		logger:        deps.Logger,
		ctrl:          deps.Controller,
		notifications: deps.Notifications,
		settings:      deps.Settings,
		auth:          deps.Auth,
		audit:         deps.Audit,
		mqtt:          deps.MQTT,
		db:            deps.DB,
		version:       deps.Version,
		hostname:      deps.Hostname,
		simulator:     deps.Simulator,
		button:        deps.Button,
		restart:       restart,
		startTime:     time.Now(),
		hub:           NewHub(deps.WS, deps.Logger),
	}
	return s, nil
}

// Hub returns the WebSocket hub. Notifications are routed to it once the
// server has started.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It attaches the WebSocket hub to the notification distributor, starts
// the status broadcaster, and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for background goroutines (not the listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	s.notifications.SetBroadcaster(s.hub)
	go s.statusLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It detaches the hub from the distributor and waits up to 10 seconds
// for in-flight requests to complete.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	s.notifications.SetBroadcaster(nil)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// statusLoop pushes the controller status to the status channel whenever
// it changes.
func (s *Server) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	var last controller.Status
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.ctrl.Status()
			if st != last {
				s.hub.Broadcast(ChannelStatus, st)
				last = st
			}
		}
	}
}

// requestRestart notifies subscribers and asks the process to restart.
func (s *Server) requestRestart(reason string) {
	s.logger.Info("restart requested", "reason", reason)
	s.notifications.Notify(MsgRebooting)
	s.restart()
}

// mqttConnected reports the broker connection state; false without a client.
func (s *Server) mqttConnected() bool {
	return s.mqtt != nil && s.mqtt.IsConnected()
}
