// Fingerprint Doorbell - door station core
//
// This is the main entry point for the doorbell. It boots the fingerprint
// sensor, validates its pairing, connects to the MQTT broker and serves the
// admin page while the control loop scans fingers and watches the doorbell
// button.
//
// The process never reboots the machine itself. A restart requested from
// the admin page cancels the root context; the supervisor (systemd,
// container runtime) is expected to start the process again.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-doorbell/internal/api"
	"github.com/nerrad567/gray-logic-doorbell/internal/audit"
	"github.com/nerrad567/gray-logic-doorbell/internal/auth"
	"github.com/nerrad567/gray-logic-doorbell/internal/controller"
	"github.com/nerrad567/gray-logic-doorbell/internal/doorbell"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-doorbell/internal/notify"
	"github.com/nerrad567/gray-logic-doorbell/internal/pairing"
	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
	"github.com/nerrad567/gray-logic-doorbell/internal/settings"
	"github.com/nerrad567/gray-logic-doorbell/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// restartDelay gives the admin page time to receive the reboot notice
// before the server goes away.
const restartDelay = time.Second

// Operator-facing messages sent during boot.
const (
	msgBooted          = "System booted successfully!"
	msgNoBroker        = "Error: No MQTT Broker is configured! Please go to settings and enter your server URL + user credentials."
	msgBrokerNotFound  = "MQTT Server '%s' not found. Please check your settings."
	msgBrokerRetry     = "Failed to connect to MQTT Server, rc=%v, try again in %d seconds"
	msgBrokerForbidden = "Failed to connect to MQTT Server: bad credentials or not authorized. Will not try again, please check your settings."
)

// options are the command line flags.
type options struct {
	configPath   string
	hashPassword bool
	showVersion  bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	switch {
	case opts.showVersion:
		fmt.Printf("fingerprint-doorbell %s (commit %s, built %s)\n", version, commit, date)
		return
	case opts.hashPassword:
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, getConfigPath(opts.configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line.
func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("doorbell", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (default $DOORBELL_CONFIG or "+defaultConfigPath+")")
	fs.BoolVar(&opts.hashPassword, "hash-password", false, "read a password from stdin and print its hash for security.admin_password_hash")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// getConfigPath returns the configuration file path: the --config flag,
// then the DOORBELL_CONFIG environment variable, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("DOORBELL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// hashPassword reads one line from in and writes its hash to out.
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Path of the YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown or requested restart, or error describing failure
//
//nolint:funlen,gocyclo // boot sequence reads top to bottom
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting fingerprint doorbell",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	// A restart from the admin page cancels this context after a short delay.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var restarting atomic.Bool

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Settings
	settingsManager := settings.NewManager(settings.NewStore(db.DB))
	app, err := loadAppSettings(ctx, settingsManager, cfg)
	if err != nil {
		return err
	}
	hostname, err := resolveHostname(ctx, settingsManager, cfg)
	if err != nil {
		return err
	}
	log = log.WithDevice(hostname)

	notifications := notify.New(cfg.Doorbell.LogHistorySize,
		notify.WithLogger(log.Component("notify")),
	)

	// Telemetry sinks. Audit is always on; InfluxDB is optional.
	auditRepo := audit.NewSQLiteRepository(db.DB)
	auditRecorder := audit.NewRecorder(auditRepo, log.Component("audit"))

	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB, hostname)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		influxClient = nil
		log.Info("InfluxDB disabled")
	case err != nil:
		// Telemetry is not worth refusing to open the door over.
		log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
		influxClient = nil
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Sensor
	simulator := sensor.NewSimulator(
		sensor.WithMemory(sensor.NewSQLiteMemory(db.DB)),
		sensor.WithCapacity(cfg.Sensor.Capacity),
	)
	log.Info("sensor driver selected", "driver", cfg.Sensor.Driver, "capacity", cfg.Sensor.Capacity)

	pairingOpts := []pairing.Option{
		pairing.WithLogger(log.Component("pairing")),
		pairing.WithCredentials(app.MQTTUsername, app.MQTTPassword),
		pairing.WithRecorder(auditRecorder),
	}
	if influxClient != nil {
		pairingOpts = append(pairingOpts, pairing.WithRecorder(influxClient))
	}
	validator := pairing.NewValidator(simulator, settingsManager, notifications, pairingOpts...)

	// Doorbell button and buzzer
	input, button := newDoorbellInput(cfg.Doorbell)
	buzzer := newBuzzer(cfg.Doorbell, log.Component("buzzer"))
	detectorOpts := []doorbell.Option{
		doorbell.WithLogger(log.Component("doorbell")),
		doorbell.WithRecorder(auditRecorder),
	}
	if influxClient != nil {
		detectorOpts = append(detectorOpts, doorbell.WithRecorder(influxClient))
	}
	detector := doorbell.NewDetector(input, buzzer, detectorOpts...)

	ctrlOpts := []controller.Option{
		controller.WithLogger(log.Component("controller")),
		controller.WithDoorbell(detector),
		controller.WithRecorder(auditRecorder),
	}
	if influxClient != nil {
		ctrlOpts = append(ctrlOpts, controller.WithRecorder(influxClient))
	}
	ctrl := controller.New(simulator, validator, notifications,
		controller.TimingFromConfig(cfg.Doorbell), ctrlOpts...)

	ctrl.Boot(ctx, app.SensorPIN)

	// MQTT is created up front so publishers are wired before the first
	// match; it connects in the background.
	var mqttClient *mqtt.Client
	if app.MQTTServer == "" {
		notifications.Notify(msgNoBroker)
		log.Warn("no MQTT broker configured")
	} else {
		mqttClient = mqtt.New(app.ApplyTo(cfg.MQTT, hostname))
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()

		topics := mqttClient.Topics()
		notifications.SetPublisher(mqttClient, topics.LastLogMessage())
		ctrl.SetPublisher(mqttClient, controller.Topics{
			MatchID:         topics.MatchID(),
			MatchName:       topics.MatchName(),
			MatchConfidence: topics.MatchConfidence(),
		})
		detector.SetPublisher(mqttClient, topics.Ring())
	}

	// Admin API and page
	authenticator := auth.NewAuthenticator(cfg.Security, hostname)
	if !authenticator.Enabled() {
		log.Warn("admin login disabled: set security.admin_password_hash (see --hash-password)")
	}

	deps := api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Logger:        log.Component("api"),
		Controller:    ctrl,
		Notifications: notifications,
		Settings:      settingsManager,
		Auth:          authenticator,
		Audit:         auditRepo,
		MQTT:          mqttClient,
		DB:            db,
		Version:       version,
		Hostname:      hostname,
		Simulator:     simulator,
		Button:        button,
		Restart: func() {
			if restarting.CompareAndSwap(false, true) {
				log.Info("restart requested", "delay", restartDelay)
				time.AfterFunc(restartDelay, cancel)
			}
		},
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	notifications.Notify(msgBooted)
	ctrl.SignalReady()
	buzzer.Play(doorbell.BootPattern)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(gctx)
	})
	if mqttClient != nil {
		g.Go(func() error {
			return connectMQTT(gctx, mqttClient, app.MQTTServer, notifications, ctrl, log.Component("mqtt"))
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	if err := g.Wait(); err != nil {
		return err
	}

	if restarting.Load() {
		log.Info("fingerprint doorbell stopped for restart")
	} else {
		log.Info("fingerprint doorbell stopped")
	}
	return nil
}

// loadAppSettings reads the operator's settings. On first boot the MQTT
// section of the file configuration seeds them, so a provisioned device
// connects without a visit to the admin page.
func loadAppSettings(ctx context.Context, m *settings.Manager, cfg *config.Config) (settings.AppSettings, error) {
	app, err := m.LoadApp(ctx)
	if err != nil {
		return settings.AppSettings{}, fmt.Errorf("loading app settings: %w", err)
	}
	if app.MQTTServer != "" || !cfg.MQTTEnabled() {
		return app, nil
	}

	app.MQTTServer = net.JoinHostPort(cfg.MQTT.Broker.Host, fmt.Sprint(cfg.MQTT.Broker.Port))
	app.MQTTUsername = cfg.MQTT.Auth.Username
	app.MQTTPassword = cfg.MQTT.Auth.Password
	if cfg.MQTT.RootTopic != "" {
		app.MQTTRootTopic = cfg.MQTT.RootTopic
	}
	if err := m.SaveApp(ctx, app); err != nil {
		return settings.AppSettings{}, fmt.Errorf("seeding app settings: %w", err)
	}
	return app, nil
}

// resolveHostname prefers a hostname stored from the admin page over the
// file configuration.
func resolveHostname(ctx context.Context, m *settings.Manager, cfg *config.Config) (string, error) {
	network, err := m.LoadNetwork(ctx)
	if err != nil {
		return "", fmt.Errorf("loading network settings: %w", err)
	}
	if network.Hostname != "" && network.Hostname != settings.DefaultHostname {
		return network.Hostname, nil
	}
	if cfg.Device.Hostname != "" {
		return cfg.Device.Hostname, nil
	}
	return settings.DefaultHostname, nil
}

// newDoorbellInput returns the sysfs GPIO input when a path is configured
// and a simulated button otherwise. The simulated button is also returned
// so the API can press it.
func newDoorbellInput(cfg config.DoorbellConfig) (doorbell.Input, *doorbell.SimulatedInput) {
	if cfg.InputPath != "" {
		return doorbell.NewSysfsInput(cfg.InputPath, cfg.ActiveLow), nil
	}
	button := &doorbell.SimulatedInput{}
	return button, button
}

// newBuzzer returns the PWM buzzer when a path is configured.
func newBuzzer(cfg config.DoorbellConfig, log *logging.Logger) doorbell.Buzzer {
	if cfg.BuzzerPath != "" {
		return doorbell.NewPWMBuzzer(cfg.BuzzerPath, log)
	}
	return &doorbell.SimulatedBuzzer{}
}

// connectMQTT resolves the broker, connects with retry and subscribes to
// the command topic. Failures are reported to the operator, never returned:
// the doorbell keeps working without a broker.
func connectMQTT(ctx context.Context, client *mqtt.Client, server string, notifier *notify.Distributor, ctrl *controller.Controller, log *logging.Logger) error {
	host := server
	if h, _, err := net.SplitHostPort(server); err == nil {
		host = h
	}
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("MQTT broker lookup failed", "server", server, "error", err)
		notifier.Notify(fmt.Sprintf(msgBrokerNotFound, server))
		return nil
	}

	err := client.ConnectWithRetry(ctx, func(err error, retryIn time.Duration) {
		log.Warn("MQTT connect failed", "error", err, "retry_in", retryIn)
		notifier.Notify(fmt.Sprintf(msgBrokerRetry, err, int(retryIn.Seconds())))
	})
	switch {
	case errors.Is(err, mqtt.ErrNotAuthorized):
		log.Error("MQTT broker refused credentials", "error", err)
		notifier.Notify(msgBrokerForbidden)
		return nil
	case err != nil:
		// Only cancellation ends the retry loop otherwise.
		return nil
	}

	topic := client.Topics().IgnoreTouchRing()
	if err := client.Subscribe(topic, 1, ignoreTouchRingHandler(ctrl)); err != nil {
		log.Error("subscribing failed", "topic", topic, "error", err)
	}
	return nil
}

// ignoreTouchRingHandler applies "on" and "off" from the command topic.
// Any other payload is ignored.
func ignoreTouchRingHandler(ctrl *controller.Controller) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		switch string(payload) {
		case "on":
			return ctrl.Handle(controller.SettingsChanged{IgnoreTouchRing: true})
		case "off":
			return ctrl.Handle(controller.SettingsChanged{IgnoreTouchRing: false})
		default:
			return nil
		}
	}
}

// healthCheck verifies the local infrastructure is usable. MQTT is left
// out: it connects in the background and the doorbell runs without it.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
