// Package mysql provides MySQL configuration options.
package mysql

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for MySQL.
type Options struct {
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"` // Excluded from JSON serialization
	Database              string        `json:"database" mapstructure:"database"`
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
		MaxIdleConnections:    o.MaxIdleConnections,
		MaxOpenConnections:    o.MaxOpenConnections,
		MaxConnectionLifeTime: o.MaxConnectionLifeTime,
		LogLevel:              o.LogLevel,
	})
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	return fmt.Sprintf("MySQL{host=%s, port=%d, user=%s, password=%s, database=%s}",
		o.Host, o.Port, o.Username, options.Redact(o.Password), o.Database)
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                  "127.0.0.1",
		Port:                  3306,
		Username:              "root",
		Password:              "",
		Database:              "guard",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
		LogLevel:              1, // Silent
	}
}

// Complete fills in any fields not set that are required to have valid data.
// The password falls back to the MYSQL_PASSWORD environment variable.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("MYSQL_PASSWORD")
	} else if os.Getenv("MYSQL_PASSWORD") == "" {
		fmt.Fprintf(os.Stderr, "WARNING: Passing MySQL password via CLI is insecure. Use MYSQL_PASSWORD environment variable instead.\n")
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
		errs = append(errs, fmt.Errorf("mysql.host cannot be empty"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("mysql.port must be between 1 and 65535, got: %d", o.Port))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mysql.database cannot be empty"))
	}

	return errs
}

// AddFlags adds flags for MySQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringVar(&o.Host, join+"mysql.host", o.Host, "MySQL host.")
	fs.IntVar(&o.Port, join+"mysql.port", o.Port, "MySQL port.")
	fs.StringVar(&o.Username, join+"mysql.username", o.Username, "MySQL username.")
	fs.StringVar(&o.Password, join+"mysql.password", o.Password, "MySQL password (DEPRECATED: use MYSQL_PASSWORD env var instead).")
	fs.StringVar(&o.Database, join+"mysql.database", o.Database, "MySQL database.")
	fs.IntVar(&o.MaxIdleConnections, join+"mysql.max-idle-connections", o.MaxIdleConnections, "MySQL max idle connections.")
	fs.IntVar(&o.MaxOpenConnections, join+"mysql.max-open-connections", o.MaxOpenConnections, "MySQL max open connections.")
	fs.DurationVar(&o.MaxConnectionLifeTime, join+"mysql.max-connection-life-time", o.MaxConnectionLifeTime, "MySQL max connection life time.")
	fs.IntVar(&o.LogLevel, join+"mysql.log-level", o.LogLevel, "MySQL log level.")
}
