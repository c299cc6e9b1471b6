package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g.
// GATEKEEPER_REDIS_ADDR.
const EnvPrefix = "GATEKEEPER"

// Config is the fully resolved application configuration. It is built once at
// startup and passed by reference to every component.
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Keys     KeysConfig     `mapstructure:"keys"`
	ErrCodes ErrCodesConfig `mapstructure:"errcodes"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	MCP      MCPConfig      `mapstructure:"mcp"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// SessionConfig controls session lifetime and cache write behavior.
type SessionConfig struct {
	TTLDays      int    `mapstructure:"ttl_days"`
	Policy       string `mapstructure:"policy"`
	AtomicWrites bool   `mapstructure:"atomic_writes"`
}

// TTL returns the session lifetime as a duration.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// AuthConfig controls request gating.
type AuthConfig struct {
	EnforceLiveSession bool `mapstructure:"enforce_live_session"`
	RateLimitPerMinute int  `mapstructure:"rate_limit_per_minute"`
}

// RedisConfig configures the session cache connection pool.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DatabaseConfig configures the admin record store.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
}

// KeysConfig locates the PEM key files.
type KeysConfig struct {
	Dir string `mapstructure:"dir"`
}

// ErrCodesConfig locates the error-code message tables.
type ErrCodesConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
	Save   bool   `mapstructure:"save"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MCPConfig controls the MCP tool server.
type MCPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("data_dir", filepath.Join(home, ".gatekeeper"))

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", time.Duration(0))
	v.SetDefault("server.max_body_size", int64(1<<20))
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("session.ttl_days", 7)
	v.SetDefault("session.policy", "multi")
	v.SetDefault("session.atomic_writes", false)

	v.SetDefault("auth.enforce_live_session", false)
	v.SetDefault("auth.rate_limit_per_minute", 30)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 3*time.Second)
	v.SetDefault("redis.conn_max_idle_time", 30*time.Second)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.idle_timeout", 30*time.Second)
	v.SetDefault("database.max_lifetime", 1800*time.Second)

	v.SetDefault("keys.dir", filepath.Join("config", "key"))
	v.SetDefault("errcodes.dir", filepath.Join("config", "errcodes"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", filepath.Join("logs", "app.log"))
	v.SetDefault("log.save", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("mcp.addr", ":3001")
}

// ConfigureViper applies the file search path and environment binding used by
// every command. When file is empty, APP_ENV=pro selects config/production.yaml
// and a config/develop.yaml is used otherwise if present; failing both,
// gatekeeper.yaml is searched in ., ./config and ~/.gatekeeper.
func ConfigureViper(v *viper.Viper, file string) {
	SetDefaults(v)

	switch {
	case file != "":
		v.SetConfigFile(file)
	case os.Getenv("APP_ENV") == "pro":
		v.SetConfigFile(filepath.Join("config", "production.yaml"))
	case fileExists(filepath.Join("config", "develop.yaml")):
		v.SetConfigFile(filepath.Join("config", "develop.yaml"))
	default:
		v.SetConfigName("gatekeeper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.gatekeeper")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Session.TTLDays <= 0 {
		return fmt.Errorf("session.ttl_days must be positive, got %d", c.Session.TTLDays)
	}
	switch c.Session.Policy {
	case "multi", "single":
	default:
		return fmt.Errorf("session.policy must be multi or single, got %q", c.Session.Policy)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.Driver != DriverSQLite && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
