package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when TEMPTICK_CONFIG is not set.
const DefaultPath = "configs/temptick.yaml"

// Config is the root configuration structure.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Loop     LoopConfig     `yaml:"loop"`
	Settings SettingsConfig `yaml:"settings"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Cloud    CloudConfig    `yaml:"cloud"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	Hardware HardwareConfig `yaml:"hardware"`
}

// DeviceConfig identifies this device.
type DeviceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LoopConfig controls the tick loop.
type LoopConfig struct {
	// TickInterval is the pause between ticks in milliseconds.
	TickInterval int `yaml:"tick_interval_ms"`
}

// SettingsConfig selects the settings store.
type SettingsConfig struct {
	Backend  string `yaml:"backend"` // file, sqlite or bolt
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"`
}

// MQTTConfig contains client options. The broker address and credentials
// are device settings.
type MQTTConfig struct {
	ClientID       string       `yaml:"client_id"`
	QoS            int          `yaml:"qos"`
	TLS            bool         `yaml:"tls"`
	ConnectTimeout int          `yaml:"connect_timeout"`
	Status         StatusConfig `yaml:"status"`
}

// StatusConfig controls the retained online/offline status message.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`
}

// CloudConfig locates the InfluxDB instance behind the dashboard. The
// token is the device auth setting.
type CloudConfig struct {
	URL         string `yaml:"url"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
	Timeout     int    `yaml:"timeout"`
}

// APIConfig contains local HTTP API settings.
type APIConfig struct {
	Enabled        bool             `yaml:"enabled"`
	Host           string           `yaml:"host"`
	Port           int              `yaml:"port"`
	Timeouts       APITimeoutConfig `yaml:"timeouts"`
	RequestTimeout int              `yaml:"request_timeout"`
	QueueSize      int              `yaml:"queue_size"`
	WebSocket      WebSocketConfig  `yaml:"websocket"`

	// PanelDir serves the settings panel from disk instead of the
	// embedded copy when set.
	PanelDir string `yaml:"panel_dir"`
}

// WebSocketConfig contains event stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HardwareConfig selects the probe driver and I/O lines.
type HardwareConfig struct {
	Driver     string  `yaml:"driver"` // w1 or sim
	W1Path     string  `yaml:"w1_path"`
	SimProbes  int     `yaml:"sim_probes"`
	SimBase    float32 `yaml:"sim_base"`
	RelayGPIO  string  `yaml:"relay_gpio"`
	ButtonGPIO string  `yaml:"button_gpio"`
	WakeHeld   bool    `yaml:"wake_held"`
}

// PathFromEnv returns TEMPTICK_CONFIG or DefaultPath.
func PathFromEnv() string {
	if p := os.Getenv("TEMPTICK_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Environment variables follow the pattern TEMPTICK_SECTION_KEY, for
// example TEMPTICK_SETTINGS_PATH or TEMPTICK_API_PORT.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
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

func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:   "temptick-001",
			Name: "Temperature monitor",
		},
		Loop: LoopConfig{TickInterval: 100},
		Settings: SettingsConfig{
			Backend: "file",
			Path:    "./data/config.nztr",
		},
		MQTT: MQTTConfig{
			ClientID:       "temptick",
			QoS:            1,
			ConnectTimeout: 10,
			Status:         StatusConfig{Enabled: true, Topic: "/system/status"},
		},
		Cloud: CloudConfig{
			URL:         "http://localhost:8086",
			Org:         "temptick",
			Bucket:      "dashboard",
			Measurement: "virtual_port",
			Timeout:     5,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
			RequestTimeout: 5,
			QueueSize:      16,
			WebSocket: WebSocketConfig{
				MaxMessageSize: 4096,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Hardware: HardwareConfig{
			Driver:    "w1",
			W1Path:    "/sys/bus/w1/devices",
			SimProbes: 2,
			SimBase:   21,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEMPTICK_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	if v := os.Getenv("TEMPTICK_SETTINGS_BACKEND"); v != "" {
		cfg.Settings.Backend = v
	}
	if v := os.Getenv("TEMPTICK_SETTINGS_PATH"); v != "" {
		cfg.Settings.Path = v
	}

	if v := os.Getenv("TEMPTICK_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.ClientID = v
	}

	if v := os.Getenv("TEMPTICK_CLOUD_URL"); v != "" {
		cfg.Cloud.URL = v
	}

	if v := os.Getenv("TEMPTICK_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("TEMPTICK_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	if v := os.Getenv("TEMPTICK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("TEMPTICK_HARDWARE_DRIVER"); v != "" {
		cfg.Hardware.Driver = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Every validation failure joined, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	if c.Loop.TickInterval < 1 {
		errs = append(errs, "loop.tick_interval_ms must be at least 1")
	}

	if !slices.Contains([]string{"file", "sqlite", "bolt"}, c.Settings.Backend) {
		errs = append(errs, "settings.backend must be file, sqlite or bolt")
	}
	if c.Settings.Path == "" {
		errs = append(errs, "settings.path is required")
	}
	if c.Settings.Capacity < 0 {
		errs = append(errs, "settings.capacity must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Status.Enabled && c.MQTT.Status.Topic == "" {
		errs = append(errs, "mqtt.status.topic is required when status is enabled")
	}

	if c.Cloud.URL == "" {
		errs = append(errs, "cloud.url is required")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.Enabled && c.API.QueueSize < 1 {
		errs = append(errs, "api.queue_size must be at least 1")
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}

	switch c.Hardware.Driver {
	case "w1":
		if c.Hardware.W1Path == "" {
			errs = append(errs, "hardware.w1_path is required for the w1 driver")
		}
	case "sim":
		if c.Hardware.SimProbes < 0 || c.Hardware.SimProbes > 10 {
			errs = append(errs, "hardware.sim_probes must be between 0 and 10")
		}
	default:
		errs = append(errs, "hardware.driver must be w1 or sim")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// TickInterval returns the loop pause as a Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Loop.TickInterval) * time.Millisecond
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

// GetRequestTimeout returns how long an API request waits for the loop.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeout) * time.Second
}

// GetConnectTimeout returns the MQTT connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.MQTT.ConnectTimeout) * time.Second
}

// GetCloudTimeout returns the InfluxDB request timeout as a Duration.
func (c *Config) GetCloudTimeout() time.Duration {
	return time.Duration(c.Cloud.Timeout) * time.Second
}
