package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/alias"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultQRURLTemplate points at the chart service the first releases used.
// {data} is replaced with the query-escaped short URL.
const DefaultQRURLTemplate = "https://chart.googleapis.com/chart?chs=220x220&cht=qr&choe=UTF-8&chl={data}"

var ErrUnknownDriver = errors.New("unknown database driver")

type Config struct {
	Env           string `yaml:"env"`
	BaseURL       string `yaml:"base_url"`
	AdminKey      string `yaml:"admin_key"`
	AliasLength   int    `yaml:"alias_length"`
	QRURLTemplate string `yaml:"qr_url_template"`
	HTTPServer    `yaml:"http_server"`
	Metrics       `yaml:"metrics"`
	Database      `yaml:"database"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Metrics configures the Prometheus listener. A zero port disables it.
type Metrics struct {
	Port int `yaml:"port"`
}

func (m *Metrics) Enabled() bool {
	return m.Port > 0
}

func (m *Metrics) Addr() string {
	return fmt.Sprintf(":%d", m.Port)
}

type Database struct {
	Driver          string        `yaml:"driver"`
	Path            string        `yaml:"path"`
	Postgres        Postgres      `yaml:"postgres"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultDatabase = Database{
	Driver:          DriverSQLite,
	Path:            "data.db",
	Postgres:        defaultPostgres,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

// DSN returns the connection string for the database/sql driver.
func (d *Database) DSN() string {
	if d.Driver == DriverPostgres {
		return d.Postgres.DSN()
	}

	return "file:" + d.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// MigrationURL returns the database URL understood by golang-migrate.
func (d *Database) MigrationURL() string {
	if d.Driver == DriverPostgres {
		return d.Postgres.DSN()
	}

	return "sqlite://" + d.Path
}

type Postgres struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"db"`
	SSLMode  string `yaml:"sslmode"`
}

var defaultPostgres = Postgres{
	Host:    "localhost",
	Port:    5432,
	SSLMode: "disable",
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the process environment, in that order of precedence.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to apply environment: %w", op, err)
	}

	if cfg.Database.Driver != DriverSQLite && cfg.Database.Driver != DriverPostgres {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, cfg.Database.Driver)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.AliasLength = alias.DefaultLength
	cfg.QRURLTemplate = DefaultQRURLTemplate
	cfg.HTTPServer = defaultHTTPServer
	cfg.Metrics = Metrics{Port: 9090}
	cfg.Database = defaultDatabase
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}

		*dst = n
		return nil
	}

	setString("ENV", &cfg.Env)
	setString("BASE_URL", &cfg.BaseURL)
	setString("ADMIN_KEY", &cfg.AdminKey)
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_PATH", &cfg.Database.Path)

	if err := setInt("PORT", &cfg.HTTPServer.Port); err != nil {
		return err
	}
	if err := setInt("METRICS_PORT", &cfg.Metrics.Port); err != nil {
		return err
	}
	if err := setInt("ALIAS_LENGTH", &cfg.AliasLength); err != nil {
		return err
	}

	return nil
}
