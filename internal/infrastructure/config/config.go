package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the root configuration for the Alpha 2 mock server and bridge.
// Values come from defaults, then the YAML file, then environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Bridge    BridgeConfig    `yaml:"bridge"`
}

// ServerConfig contains HTTP server settings for the protocol endpoints.
type ServerConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StoreConfig selects where the device document lives.
type StoreConfig struct {
	Backend  string `yaml:"backend"`   // file, sqlite, redis or memory
	DataFile string `yaml:"data_file"` // file backend
	RedisKey string `yaml:"redis_key"` // redis backend
}

// DatabaseConfig contains SQLite settings. The database holds the command
// journal and, with the sqlite backend, the device document.
type DatabaseConfig struct {
	Path        string `yaml:"path"` // empty disables the journal
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
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

// BridgeConfig contains settings for the Home Assistant bridge.
type BridgeConfig struct {
	// ControllerURL is the base URL of the Alpha 2 controller (or mock).
	ControllerURL string `yaml:"controller_url"`

	// OptionsFile holds alpha2_host, update_interval and virtual_devices.
	// It is re-read whenever its modification time changes.
	OptionsFile string `yaml:"options_file"`

	// UpdateInterval is the default sync period in seconds when the
	// options file does not set one.
	UpdateInterval int `yaml:"update_interval"`

	// RetryDelay is the pause in seconds after a failed sync cycle.
	RetryDelay int `yaml:"retry_delay"`

	// RequestTimeout bounds each outbound HTTP call, in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
}

// HomeAssistantConfig contains Home Assistant REST API settings.
type HomeAssistantConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Load reads configuration and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, when path is not empty
//  3. Environment variables (ALPHA2_*, SUPERVISOR_URL, SUPERVISOR_TOKEN)
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config matching the stock mock server.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Store: StoreConfig{
			Backend:  BackendFile,
			DataFile: "alpha2_data.json",
			RedisKey: "alpha2:device",
		},
		Database: DatabaseConfig{
			Path:        "alpha2.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "alpha2-mock",
			},
			QoS:         1,
			TopicPrefix: "alpha2",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Org:           "alpha2",
			Bucket:        "heating",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Bridge: BridgeConfig{
			ControllerURL:  "http://localhost:5000",
			OptionsFile:    "/data/options.json",
			UpdateInterval: 60,
			RetryDelay:     10,
			RequestTimeout: 10,
			HomeAssistant: HomeAssistantConfig{
				URL: "http://supervisor/core",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("ALPHA2_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ALPHA2_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			cfg.Server.Port = -1 // reported by Validate
		}
	}
	if isTrue(os.Getenv("ALPHA2_DEBUG")) {
		cfg.Logging.Level = "debug"
	}

	// Store
	if v := os.Getenv("ALPHA2_DATA_FILE"); v != "" {
		cfg.Store.DataFile = v
	}
	if v := os.Getenv("ALPHA2_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("ALPHA2_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ALPHA2_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ALPHA2_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// MQTT
	if v := os.Getenv("ALPHA2_MQTT_ENABLED"); v != "" {
		cfg.MQTT.Enabled = isTrue(v)
	}
	if v := os.Getenv("ALPHA2_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ALPHA2_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ALPHA2_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ALPHA2_INFLUXDB_ENABLED"); v != "" {
		cfg.InfluxDB.Enabled = isTrue(v)
	}
	if v := os.Getenv("ALPHA2_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Bridge
	if v := os.Getenv("ALPHA2_CONTROLLER_URL"); v != "" {
		cfg.Bridge.ControllerURL = v
	}
	if v := os.Getenv("ALPHA2_OPTIONS_FILE"); v != "" {
		cfg.Bridge.OptionsFile = v
	}
	if v := os.Getenv("SUPERVISOR_URL"); v != "" {
		cfg.Bridge.HomeAssistant.URL = v
	}
	if v := os.Getenv("SUPERVISOR_TOKEN"); v != "" {
		cfg.Bridge.HomeAssistant.Token = v
	}
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Every validation failure joined, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.DataFile == "" {
			errs = append(errs, "store.data_file is required for the file backend")
		}
	case BackendSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("store.backend %q must be one of file, sqlite, redis, memory", c.Store.Backend))
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set ALPHA2_INFLUXDB_TOKEN)")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn, or error")
	}

	if c.Bridge.UpdateInterval <= 0 {
		errs = append(errs, "bridge.update_interval must be positive")
	}
	if c.Bridge.RequestTimeout <= 0 {
		errs = append(errs, "bridge.request_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// GetUpdateInterval returns the bridge sync period as a Duration.
func (c *Config) GetUpdateInterval() time.Duration {
	return time.Duration(c.Bridge.UpdateInterval) * time.Second
}
