package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Log       LogConfig      `mapstructure:"log"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	Client    ClientConfig   `mapstructure:"client"`
	Ticker    TickerConfig   `mapstructure:"ticker"`
	Admin     AdminConfig    `mapstructure:"admin"`
	JWTSecret string         `mapstructure:"jwt_secret"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files, ":memory:" for in-memory
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ClientConfig configures the admin client used by the CLI.
type ClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Email      string        `mapstructure:"email"`
	Password   string        `mapstructure:"password"`
}

// AdminConfig is the account seeded when the users table is empty.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type TickerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	ModalInterval time.Duration `mapstructure:"modal_interval"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		// _time_format=sqlite stores timestamps in a sortable layout.
		if d.Path == ":memory:" {
			return "file:" + d.Name + "?mode=memory&cache=shared&_time_format=sqlite"
		}
		return "file:" + d.Path + "/" + d.Name + ".db?_time_format=sqlite"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.session_ttl", 12*time.Hour)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "newsdesk")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.stale_after", 10*time.Minute)
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("ticker.interval", 5*time.Second)
	v.SetDefault("ticker.modal_interval", 8*time.Second)
	v.SetDefault("admin.email", "admin@localhost")
	v.SetDefault("admin.password", "changeme")
	v.SetDefault("jwt_secret", "changeme-secret")
}

// Load reads app.yaml (optional), .env (optional) and NEWSDESK_* environment
// variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path searches
// the working directory and ./config for app.yaml.
func LoadFrom(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("newsdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
