package settings

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
)

// Namespace names.
const (
	NamespaceApp     = "appSettings"
	NamespaceNetwork = "networkSettings"
)

// appSettings keys.
const (
	keyMQTTServer    = "mqttServer"
	keyMQTTUsername  = "mqttUsername"
	keyMQTTPassword  = "mqttPassword"
	keyMQTTRootTopic = "mqttRootTopic"
	keyNTPServer     = "ntpServer"
	keySensorPIN     = "sensorPin"
	keyPairingCode   = "pairingCode"
	keyPairingValid  = "pairingValid"

	keyHostname = "hostname"
)

// Defaults applied to absent keys.
const (
	DefaultMQTTRootTopic = "fingerprintDoorbell"
	DefaultNTPServer     = "pool.ntp.org"
	DefaultSensorPIN     = "00000000"
	DefaultHostname      = "FingerprintDoorbell"
)

// AppSettings is the appSettings namespace as a record.
type AppSettings struct {
	MQTTServer    string `json:"mqtt_server"`
	MQTTUsername  string `json:"mqtt_username"`
	MQTTPassword  string `json:"mqtt_password,omitempty"`
	MQTTRootTopic string `json:"mqtt_root_topic"`
	NTPServer     string `json:"ntp_server"`
	SensorPIN     string `json:"sensor_pin,omitempty"`
	PairingCode   string `json:"-"`
	PairingValid  bool   `json:"pairing_valid"`
}

// DefaultAppSettings returns the values used for absent keys.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		MQTTRootTopic: DefaultMQTTRootTopic,
		NTPServer:     DefaultNTPServer,
		SensorPIN:     DefaultSensorPIN,
	}
}

// ApplyTo overlays the operator's MQTT settings on the file configuration.
// Empty fields leave cfg untouched. The client ID becomes the hostname so
// the broker shows the doorbell by name.
//
// MQTTServer may carry a port ("broker.lan:1884").
func (a AppSettings) ApplyTo(cfg config.MQTTConfig, hostname string) config.MQTTConfig {
	if a.MQTTServer != "" {
		host, port := a.MQTTServer, cfg.Broker.Port
		if h, p, err := net.SplitHostPort(a.MQTTServer); err == nil {
			if n, perr := strconv.Atoi(p); perr == nil {
				host, port = h, n
			}
		}
		cfg.Broker.Host = host
		cfg.Broker.Port = port
	}
	if a.MQTTUsername != "" {
		cfg.Auth.Username = a.MQTTUsername
	}
	if a.MQTTPassword != "" {
		cfg.Auth.Password = a.MQTTPassword
	}
	if a.MQTTRootTopic != "" {
		cfg.RootTopic = a.MQTTRootTopic
	}
	if hostname != "" {
		cfg.Broker.ClientID = hostname
	}
	return cfg
}

// NetworkSettings is the networkSettings namespace as a record.
type NetworkSettings struct {
	Hostname string `json:"hostname"`
}

// PairingState is the persisted outcome of sensor pairing.
type PairingState struct {
	Code  string
	Valid bool
}

// Manager reads and writes the typed settings records.
type Manager struct {
	store *Store
}

// NewManager creates a Manager over store.
func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// LoadApp reads appSettings. Keys that cannot be read keep their default
// and the first read error is returned alongside the partial record.
func (m *Manager) LoadApp(ctx context.Context) (AppSettings, error) {
	ns := m.store.Open(NamespaceApp, ReadOnly)
	def := DefaultAppSettings()
	var errs []error

	str := func(key, fallback string) string {
		v, err := ns.Get(ctx, key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	app := AppSettings{
		MQTTServer:    str(keyMQTTServer, def.MQTTServer),
		MQTTUsername:  str(keyMQTTUsername, def.MQTTUsername),
		MQTTPassword:  str(keyMQTTPassword, def.MQTTPassword),
		MQTTRootTopic: str(keyMQTTRootTopic, def.MQTTRootTopic),
		NTPServer:     str(keyNTPServer, def.NTPServer),
		SensorPIN:     str(keySensorPIN, def.SensorPIN),
		PairingCode:   str(keyPairingCode, def.PairingCode),
	}
	valid, err := ns.GetBool(ctx, keyPairingValid, def.PairingValid)
	if err != nil {
		errs = append(errs, err)
	}
	app.PairingValid = valid

	return app, errors.Join(errs...)
}

// SaveApp writes the operator-editable appSettings keys. The pairing code
// and validity are left alone: only SetPairingState writes them, so a save
// built from an earlier LoadApp cannot undo an invalidation.
func (m *Manager) SaveApp(ctx context.Context, app AppSettings) error {
	return m.store.Open(NamespaceApp, ReadWrite).PutMany(ctx, map[string]string{
		keyMQTTServer:    strings.TrimSpace(app.MQTTServer),
		keyMQTTUsername:  app.MQTTUsername,
		keyMQTTPassword:  app.MQTTPassword,
		keyMQTTRootTopic: app.MQTTRootTopic,
		keyNTPServer:     app.NTPServer,
		keySensorPIN:     app.SensorPIN,
	})
}

// DeleteApp clears the appSettings namespace.
func (m *Manager) DeleteApp(ctx context.Context) error {
	return m.store.Open(NamespaceApp, ReadWrite).Clear(ctx)
}

// LoadNetwork reads networkSettings.
func (m *Manager) LoadNetwork(ctx context.Context) (NetworkSettings, error) {
	host, err := m.store.Open(NamespaceNetwork, ReadOnly).Get(ctx, keyHostname, DefaultHostname)
	return NetworkSettings{Hostname: host}, err
}

// SaveNetwork writes networkSettings.
func (m *Manager) SaveNetwork(ctx context.Context, network NetworkSettings) error {
	return m.store.Open(NamespaceNetwork, ReadWrite).Put(ctx, keyHostname, network.Hostname)
}

// DeleteNetwork clears the networkSettings namespace.
func (m *Manager) DeleteNetwork(ctx context.Context) error {
	return m.store.Open(NamespaceNetwork, ReadWrite).Clear(ctx)
}

// PairingState reads the persisted pairing code and validity.
func (m *Manager) PairingState(ctx context.Context) (PairingState, error) {
	ns := m.store.Open(NamespaceApp, ReadOnly)
	code, err := ns.Get(ctx, keyPairingCode, "")
	if err != nil {
		return PairingState{}, err
	}
	valid, err := ns.GetBool(ctx, keyPairingValid, false)
	if err != nil {
		return PairingState{}, err
	}
	return PairingState{Code: code, Valid: valid}, nil
}

// SetPairingState persists the pairing code and validity together.
func (m *Manager) SetPairingState(ctx context.Context, state PairingState) error {
	return m.store.Open(NamespaceApp, ReadWrite).PutMany(ctx, map[string]string{
		keyPairingCode:  state.Code,
		keyPairingValid: strconv.FormatBool(state.Valid),
	})
}
