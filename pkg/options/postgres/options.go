// Package postgres provides PostgreSQL configuration options.
package postgres

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for PostgreSQL.
type Options struct {
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"` // Excluded from JSON serialization
	Database              string        `json:"database" mapstructure:"database"`
	SSLMode               string        `json:"ssl-mode" mapstructure:"ssl-mode"`
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
	LogLevel              int           `json:"log-level" mapstructure:"log-level"`
}

// optionsForJSON is used for JSON marshaling with password redacted.
type optionsForJSON struct {
	Host                  string        `json:"host"`
	Port                  int           `json:"port"`
	Username              string        `json:"username"`
	Password              string        `json:"password"`
	Database              string        `json:"database"`
	SSLMode               string        `json:"ssl-mode"`
	MaxIdleConnections    int           `json:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time"`
	LogLevel              int           `json:"log-level"`
}

// MarshalJSON implements json.Marshaler with password redaction.
func (o *Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(optionsForJSON{
		Host:                  o.Host,
		Port:                  o.Port,
		Username:              o.Username,
		Password:              options.Redact(o.Password),
		Database:              o.Database,
		SSLMode:               o.SSLMode,
		MaxIdleConnections:    o.MaxIdleConnections,
		MaxOpenConnections:    o.MaxOpenConnections,
		MaxConnectionLifeTime: o.MaxConnectionLifeTime,
		LogLevel:              o.LogLevel,
	})
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	return fmt.Sprintf("PostgreSQL{host=%s, port=%d, user=%s, password=%s, database=%s, sslmode=%s}",
		o.Host, o.Port, o.Username, options.Redact(o.Password), o.Database, o.SSLMode)
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                  "127.0.0.1",
		Port:                  5432,
		Username:              "postgres",
		Password:              "",
		Database:              "guard",
		SSLMode:               "disable",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
		LogLevel:              1, // Silent
	}
}

// Complete fills in any fields not set that are required to have valid data.
// The password falls back to the POSTGRES_PASSWORD environment variable.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("POSTGRES_PASSWORD")
	}

	return nil
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.Host == "" {
		errs = append(errs, fmt.Errorf("postgres.host cannot be empty"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("postgres.port must be between 1 and 65535, got: %d", o.Port))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("postgres.database cannot be empty"))
	}

	return errs
}

// AddFlags adds flags for PostgreSQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringVar(&o.Host, join+"postgres.host", o.Host, "PostgreSQL host.")
	fs.IntVar(&o.Port, join+"postgres.port", o.Port, "PostgreSQL port.")
	fs.StringVar(&o.Username, join+"postgres.username", o.Username, "PostgreSQL username.")
	fs.StringVar(&o.Password, join+"postgres.password", o.Password, "PostgreSQL password (DEPRECATED: use POSTGRES_PASSWORD env var instead).")
	fs.StringVar(&o.Database, join+"postgres.database", o.Database, "PostgreSQL database.")
	fs.StringVar(&o.SSLMode, join+"postgres.ssl-mode", o.SSLMode, "PostgreSQL SSL mode.")
	fs.IntVar(&o.MaxIdleConnections, join+"postgres.max-idle-connections", o.MaxIdleConnections, "PostgreSQL max idle connections.")
	fs.IntVar(&o.MaxOpenConnections, join+"postgres.max-open-connections", o.MaxOpenConnections, "PostgreSQL max open connections.")
	fs.DurationVar(&o.MaxConnectionLifeTime, join+"postgres.max-connection-life-time", o.MaxConnectionLifeTime, "PostgreSQL max connection life time.")
	fs.IntVar(&o.LogLevel, join+"postgres.log-level", o.LogLevel, "PostgreSQL log level.")
}
