package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validJWTSecret meets the 32-character minimum requirement.
const validJWTSecret = "test-secret-key-at-least-32-chars!"

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  hostname: "front-door"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  root_topic: "frontDoor"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
doorbell:
  tick_interval: 20ms
  match_cooldown: 2s
  log_history_size: 8
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Hostname != "front-door" {
		t.Errorf("Device.Hostname = %q, want %q", cfg.Device.Hostname, "front-door")
	}
	if cfg.MQTT.RootTopic != "frontDoor" {
		t.Errorf("MQTT.RootTopic = %q, want %q", cfg.MQTT.RootTopic, "frontDoor")
	}
	if cfg.Doorbell.TickInterval != 20*time.Millisecond {
		t.Errorf("Doorbell.TickInterval = %v, want 20ms", cfg.Doorbell.TickInterval)
	}
	if cfg.Doorbell.MatchCooldown != 2*time.Second {
		t.Errorf("Doorbell.MatchCooldown = %v, want 2s", cfg.Doorbell.MatchCooldown)
	}
	if cfg.Doorbell.LogHistorySize != 8 {
		t.Errorf("Doorbell.LogHistorySize = %d, want 8", cfg.Doorbell.LogHistorySize)
	}

	// Unset values keep their defaults
	if cfg.Doorbell.NoMatchCooldown != time.Second {
		t.Errorf("Doorbell.NoMatchCooldown = %v, want 1s default", cfg.Doorbell.NoMatchCooldown)
	}
	if cfg.Doorbell.MaintenanceTimeout != 5*time.Second {
		t.Errorf("Doorbell.MaintenanceTimeout = %v, want 5s default", cfg.Doorbell.MaintenanceTimeout)
	}
	if !cfg.MQTTEnabled() {
		t.Error("MQTTEnabled() = false, want true when broker host is set")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for missing JWT secret, got nil")
	}
	if !strings.Contains(err.Error(), "security.jwt.secret") {
		t.Errorf("Load() error = %v, want mention of security.jwt.secret", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "empty root topic",
			mutate:  func(c *Config) { c.MQTT.RootTopic = "" },
			wantErr: true,
		},
		{
			name:    "wildcard root topic",
			mutate:  func(c *Config) { c.MQTT.RootTopic = "doorbell/#" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: true,
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Doorbell.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero maintenance timeout",
			mutate:  func(c *Config) { c.Doorbell.MaintenanceTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "empty log history",
			mutate:  func(c *Config) { c.Doorbell.LogHistorySize = 0 },
			wantErr: true,
		},
		{
			name:    "unknown sensor driver",
			mutate:  func(c *Config) { c.Sensor.Driver = "r503" },
			wantErr: true,
		},
		{
			name:    "zero sensor capacity",
			mutate:  func(c *Config) { c.Sensor.Capacity = 0 },
			wantErr: true,
		},
		{
			name:    "no broker is allowed",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = validJWTSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("DOORBELL_DATABASE_PATH", "/custom/path.db")
	t.Setenv("DOORBELL_MQTT_HOST", "mqtt.example.com")
	t.Setenv("DOORBELL_MQTT_USERNAME", "testuser")
	t.Setenv("DOORBELL_MQTT_PASSWORD", "testpass")
	t.Setenv("DOORBELL_API_HOST", "192.168.1.1")
	t.Setenv("DOORBELL_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("DOORBELL_JWT_SECRET", "jwt-secret")
	t.Setenv("DOORBELL_ADMIN_PASSWORD_HASH", "$argon2id$stub")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
	if cfg.Security.AdminPasswordHash != "$argon2id$stub" {
		t.Errorf("Security.AdminPasswordHash = %q, want %q", cfg.Security.AdminPasswordHash, "$argon2id$stub")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.RootTopic != "fingerprintDoorbell" {
		t.Errorf("defaultConfig MQTT.RootTopic = %q, want fingerprintDoorbell", cfg.MQTT.RootTopic)
	}
	if cfg.MQTTEnabled() {
		t.Error("defaultConfig should leave MQTT disabled until a broker is configured")
	}
	if cfg.Doorbell.LogHistorySize != 5 {
		t.Errorf("defaultConfig Doorbell.LogHistorySize = %d, want 5", cfg.Doorbell.LogHistorySize)
	}
	if cfg.Doorbell.MatchCooldown != 3*time.Second {
		t.Errorf("defaultConfig Doorbell.MatchCooldown = %v, want 3s", cfg.Doorbell.MatchCooldown)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
