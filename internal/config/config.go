package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend drivers.
const (
	DriverREST   = "rest"
	DriverSQL    = "sql"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	REST      RESTConfig      `mapstructure:"rest"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Provision ProvisionConfig `mapstructure:"provision"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type BackendConfig struct {
	Driver string `mapstructure:"driver"`
}

// RESTConfig points at a hosted, Appwrite-compatible backend.
type RESTConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Project    string        `mapstructure:"project"`
	APIKey     string        `mapstructure:"api_key"`
	DatabaseID string        `mapstructure:"database_id"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ProvisionConfig struct {
	// AttributeDelay pauses between a collection's attributes and its
	// indexes; hosted backends build attributes asynchronously.
	AttributeDelay time.Duration `mapstructure:"attribute_delay"`
}

// Load reads configuration from path, or from portfolio.yaml in . or
// ./config when path is empty. A missing default file is not an error.
// Environment variables override file values, e.g. PORTFOLIO_REST_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("portfolio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("backend.driver", DriverMemory)

	v.SetDefault("rest.endpoint", "")
	v.SetDefault("rest.project", "")
	v.SetDefault("rest.api_key", "")
	v.SetDefault("rest.database_id", "portfolio")
	v.SetDefault("rest.timeout", "30s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "portfolio")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")

	v.SetDefault("auth.jwt_secret", "changeme-secret")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("auth.admin_email", "admin@localhost")
	v.SetDefault("auth.admin_password_hash", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("provision.attribute_delay", "0s")
}

func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case DriverMemory:
	case DriverSQL:
		if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
			return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
		}
	case DriverREST:
		if c.REST.Endpoint == "" || c.REST.Project == "" || c.REST.DatabaseID == "" {
			return errors.New("rest backend needs rest.endpoint, rest.project and rest.database_id")
		}
	default:
		return fmt.Errorf("backend.driver must be rest, sql or memory, got %q", c.Backend.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}
