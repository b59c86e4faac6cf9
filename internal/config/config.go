package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServiceAccountEnv names the environment variable holding the service
// credential JSON.
const ServiceAccountEnv = "ACCOLADE_SERVICE_ACCOUNT_KEY"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

// ErrMissingServiceAccount is returned when ServiceAccountEnv is unset.
var ErrMissingServiceAccount = errors.New("config: " + ServiceAccountEnv + " is not set")

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Identity   IdentityConfig   `yaml:"identity"`
	LoginLimit LoginLimitConfig `yaml:"login_limit"`
	Audit      AuditConfig      `yaml:"audit"`
	CORS       CORSConfig       `yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: [] (same-origin only when empty; ["*"] for dev)
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver"`   // memory, postgres, mongodb
	URL      string `yaml:"url"`      // connection string for postgres/mongodb
	Database string `yaml:"database"` // mongodb database name
}

type IdentityConfig struct {
	TokenTTL   time.Duration `yaml:"token_ttl"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LoginLimitConfig struct {
	Attempts int           `yaml:"attempts"`
	Window   time.Duration `yaml:"window"`
}

type AuditConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// ServiceAccount is the privileged credential blob.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	SigningKey  string `json:"signing_key"`
}

// LoadDotEnv loads .env style files into the environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:   DriverMemory,
			Database: "accolade",
		},
		Identity: IdentityConfig{
			TokenTTL:   time.Hour,
			SessionTTL: 14 * 24 * time.Hour,
		},
		LoginLimit: LoginLimitConfig{
			Attempts: 5,
			Window:   15 * time.Minute,
		},
		Audit: AuditConfig{
			BatchSize:     50,
			FlushInterval: 5 * time.Second,
		},
	}
}

func expandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACCOLADE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("ACCOLADE_STORE_URL"); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv("ACCOLADE_STORE_DATABASE"); v != "" {
		cfg.Store.Database = v
	}
	if v := os.Getenv("ACCOLADE_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ACCOLADE_HOST"); v != "" {
		cfg.Server.Host = v
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.URL == "" {
			errs = append(errs, "store.url is required for postgres")
		}
	case DriverMongo:
		if c.Store.URL == "" {
			errs = append(errs, "store.url is required for mongodb")
		}
		if c.Store.Database == "" {
			errs = append(errs, "store.database is required for mongodb")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of memory, postgres, mongodb", c.Store.Driver))
	}
	if c.Identity.TokenTTL <= 0 {
		errs = append(errs, "identity.token_ttl must be positive")
	}
	if c.Identity.SessionTTL < c.Identity.TokenTTL {
		errs = append(errs, "identity.session_ttl must be at least identity.token_ttl")
	}
	if c.LoginLimit.Attempts < 1 {
		errs = append(errs, "login_limit.attempts must be at least 1")
	}
	if c.LoginLimit.Window <= 0 {
		errs = append(errs, "login_limit.window must be positive")
	}
	if c.Audit.BatchSize < 1 {
		errs = append(errs, "audit.batch_size must be at least 1")
	}
	if c.Audit.FlushInterval <= 0 {
		errs = append(errs, "audit.flush_interval must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) MigrationsSource() string {
	return "file://migrations"
}

func (c *Config) DatabaseURLForMigrate() string {
	url := c.Store.URL
	if !strings.Contains(url, "sslmode=") {
		if strings.Contains(url, "?") {
			url += "&sslmode=disable"
		} else {
			url += "?sslmode=disable"
		}
	}
	return url
}

// LoadServiceAccount reads the credential blob from ServiceAccountEnv.
func LoadServiceAccount() (*ServiceAccount, error) {
	raw := strings.TrimSpace(os.Getenv(ServiceAccountEnv))
	if raw == "" {
		return nil, ErrMissingServiceAccount
	}
	return ParseServiceAccount([]byte(raw))
}

// ParseServiceAccount decodes and checks a credential blob.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("config: %s is not valid JSON: %w", ServiceAccountEnv, err)
	}
	var missing []string
	if sa.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if sa.SigningKey == "" {
		missing = append(missing, "signing_key")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: %s is missing %s", ServiceAccountEnv, strings.Join(missing, ", "))
	}
	return &sa, nil
}
