package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temptick.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
device:
  id: "greenhouse-1"
settings:
  backend: "sqlite"
  path: "/var/lib/temptick/settings.db"
mqtt:
  client_id: "greenhouse"
  qos: 0
cloud:
  url: "http://influx.local:8086"
hardware:
  driver: "sim"
  sim_probes: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "greenhouse-1" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "greenhouse-1")
	}
	if cfg.Settings.Backend != "sqlite" {
		t.Errorf("Settings.Backend = %q, want sqlite", cfg.Settings.Backend)
	}
	if cfg.MQTT.QoS != 0 {
		t.Errorf("MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
	}
	if cfg.Hardware.SimProbes != 3 {
		t.Errorf("Hardware.SimProbes = %d, want 3", cfg.Hardware.SimProbes)
	}
	// Untouched sections keep their defaults.
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/temptick.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
device:
  id: ""
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() expected validation error for empty device.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"missing device id", func(c *Config) { c.Device.ID = "" }, "device.id"},
		{"zero tick interval", func(c *Config) { c.Loop.TickInterval = 0 }, "tick_interval_ms"},
		{"unknown backend", func(c *Config) { c.Settings.Backend = "eeprom" }, "settings.backend"},
		{"missing settings path", func(c *Config) { c.Settings.Path = "" }, "settings.path"},
		{"negative capacity", func(c *Config) { c.Settings.Capacity = -1 }, "settings.capacity"},
		{"qos out of range", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"status without topic", func(c *Config) { c.MQTT.Status.Topic = "" }, "mqtt.status.topic"},
		{"status disabled without topic", func(c *Config) {
			c.MQTT.Status = StatusConfig{}
		}, ""},
		{"missing cloud url", func(c *Config) { c.Cloud.URL = "" }, "cloud.url"},
		{"api port out of range", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"api disabled ignores port", func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }, ""},
		{"api queue empty", func(c *Config) { c.API.QueueSize = 0 }, "api.queue_size"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"upper-case log level", func(c *Config) { c.Logging.Level = "DEBUG" }, ""},
		{"unknown driver", func(c *Config) { c.Hardware.Driver = "i2c" }, "hardware.driver"},
		{"w1 without path", func(c *Config) { c.Hardware.W1Path = "" }, "hardware.w1_path"},
		{"too many sim probes", func(c *Config) {
			c.Hardware.Driver = "sim"
			c.Hardware.SimProbes = 11
		}, "sim_probes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_ReportsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Device.ID = ""
	cfg.MQTT.QoS = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"device.id", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"tick", cfg.TickInterval(), 100 * time.Millisecond},
		{"read", cfg.GetReadTimeout(), 10 * time.Second},
		{"write", cfg.GetWriteTimeout(), 10 * time.Second},
		{"idle", cfg.GetIdleTimeout(), 60 * time.Second},
		{"request", cfg.GetRequestTimeout(), 5 * time.Second},
		{"connect", cfg.GetConnectTimeout(), 10 * time.Second},
		{"cloud", cfg.GetCloudTimeout(), 5 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("TEMPTICK_DEVICE_ID", "env-device")
	t.Setenv("TEMPTICK_SETTINGS_BACKEND", "bolt")
	t.Setenv("TEMPTICK_SETTINGS_PATH", "/custom/settings.bolt")
	t.Setenv("TEMPTICK_MQTT_CLIENT_ID", "env-client")
	t.Setenv("TEMPTICK_CLOUD_URL", "http://cloud:8086")
	t.Setenv("TEMPTICK_API_HOST", "127.0.0.1")
	t.Setenv("TEMPTICK_API_PORT", "9090")
	t.Setenv("TEMPTICK_LOG_LEVEL", "debug")
	t.Setenv("TEMPTICK_HARDWARE_DRIVER", "sim")

	applyEnvOverrides(cfg)

	checks := []struct{ name, got, want string }{
		{"Device.ID", cfg.Device.ID, "env-device"},
		{"Settings.Backend", cfg.Settings.Backend, "bolt"},
		{"Settings.Path", cfg.Settings.Path, "/custom/settings.bolt"},
		{"MQTT.ClientID", cfg.MQTT.ClientID, "env-client"},
		{"Cloud.URL", cfg.Cloud.URL, "http://cloud:8086"},
		{"API.Host", cfg.API.Host, "127.0.0.1"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
		{"Hardware.Driver", cfg.Hardware.Driver, "sim"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("TEMPTICK_API_PORT", "not-a-port")
	applyEnvOverrides(cfg)
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("TEMPTICK_CONFIG", "")
	if got := PathFromEnv(); got != DefaultPath {
		t.Errorf("PathFromEnv() = %q, want %q", got, DefaultPath)
	}
	t.Setenv("TEMPTICK_CONFIG", "/etc/temptick.yaml")
	if got := PathFromEnv(); got != "/etc/temptick.yaml" {
		t.Errorf("PathFromEnv() = %q", got)
	}
}
