package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the doorbell controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Doorbell  DoorbellConfig  `yaml:"doorbell"`
	Sensor    SensorConfig    `yaml:"sensor"`
}

// DeviceConfig identifies this doorbell unit on the network.
type DeviceConfig struct {
	// Hostname is the default network hostname. The persisted network
	// settings take precedence once written.
	Hostname string `yaml:"hostname"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
//
// Broker host, credentials and root topic seed the persisted app settings on
// first boot; afterwards the settings page is authoritative.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	RootTopic string              `yaml:"root_topic"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
// An empty Host disables the message bus entirely.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings for the administrative API.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`

	// AdminPasswordHash is an Argon2id PHC string. Generate one with
	// `doorbell --hash-password`.
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// DoorbellConfig contains control-loop and GPIO settings.
type DoorbellConfig struct {
	// TickInterval is the minimum time between control-loop iterations.
	TickInterval time.Duration `yaml:"tick_interval"`

	// InputPath is the sysfs value file of the doorbell button GPIO.
	// Empty selects the simulated input.
	InputPath string `yaml:"input_path"`

	// ActiveLow reports "pressed" when the input reads 0 (pull-up wiring).
	ActiveLow bool `yaml:"active_low"`

	// BuzzerPath is the sysfs PWM channel directory driving the buzzer,
	// e.g. /sys/class/pwm/pwmchip0/pwm0. Empty selects the simulated buzzer.
	BuzzerPath string `yaml:"buzzer_path"`

	// MatchCooldown pauses scanning after a match so the LED ring can finish.
	MatchCooldown time.Duration `yaml:"match_cooldown"`

	// NoMatchCooldown pauses scanning after a repeated no-match result.
	NoMatchCooldown time.Duration `yaml:"no_match_cooldown"`

	// MaintenanceTimeout bounds how long an administrative caller waits for
	// exclusive sensor access.
	MaintenanceTimeout time.Duration `yaml:"maintenance_timeout"`

	// LogHistorySize is the number of notifications kept for the live view.
	LogHistorySize int `yaml:"log_history_size"`
}

// SensorConfig selects the biometric sensor driver.
type SensorConfig struct {
	// Driver is the sensor driver name. Only "simulated" ships with the core.
	Driver string `yaml:"driver"`

	// Capacity is the number of template slots the sensor exposes.
	Capacity int `yaml:"capacity"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DOORBELL_SECTION_KEY
// For example: DOORBELL_DATABASE_PATH, DOORBELL_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Hostname: "FingerprintDoorbell",
		},
		Database: DatabaseConfig{
			Path:        "./data/doorbell.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port:     1883,
				ClientID: "fingerprint-doorbell",
			},
			RootTopic: "fingerprintDoorbell",
			QoS:       1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
		Doorbell: DoorbellConfig{
			TickInterval:       50 * time.Millisecond,
			ActiveLow:          true,
			MatchCooldown:      3 * time.Second,
			NoMatchCooldown:    time.Second,
			MaintenanceTimeout: 5 * time.Second,
			LogHistorySize:     5,
		},
		Sensor: SensorConfig{
			Driver:   "simulated",
			Capacity: 200,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOORBELL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("DOORBELL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DOORBELL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DOORBELL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("DOORBELL_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("DOORBELL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("DOORBELL_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("DOORBELL_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Security.AdminPasswordHash = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.RootTopic == "" {
		errs = append(errs, "mqtt.root_topic is required")
	} else if strings.ContainsAny(c.MQTT.RootTopic, "+#") {
		errs = append(errs, "mqtt.root_topic must not contain wildcards")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// The API grants exclusive sensor access and can re-pair the sensor,
	// so a forgeable token is a door-opening vulnerability.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set DOORBELL_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if c.Doorbell.TickInterval <= 0 {
		errs = append(errs, "doorbell.tick_interval must be positive")
	}
	if c.Doorbell.MaintenanceTimeout <= 0 {
		errs = append(errs, "doorbell.maintenance_timeout must be positive")
	}
	if c.Doorbell.LogHistorySize < 1 {
		errs = append(errs, "doorbell.log_history_size must be at least 1")
	}

	if c.Sensor.Driver != "simulated" {
		errs = append(errs, fmt.Sprintf("sensor.driver %q is not supported", c.Sensor.Driver))
	}
	if c.Sensor.Capacity < 1 {
		errs = append(errs, "sensor.capacity must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// MQTTEnabled reports whether a broker host is configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTT.Broker.Host != ""
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
