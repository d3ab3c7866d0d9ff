// Package store provides configuration options for the rule store backend.
package store

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
)

// Supported rule store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongoDB  = "mongodb"
)

// supportedBackends contains all valid backend names.
var supportedBackends = map[string]bool{
	BackendMemory:   true,
	BackendFile:     true,
	BackendSQLite:   true,
	BackendMySQL:    true,
	BackendPostgres: true,
	BackendRedis:    true,
	BackendMongoDB:  true,
}

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for the rule store.
type Options struct {
	// Backend selects where rules are persisted
	// (memory, file, sqlite, mysql, postgres, redis, mongodb).
	Backend string `json:"backend" mapstructure:"backend"`

	// FilePath is the YAML rule file for the file backend.
	FilePath string `json:"file-path" mapstructure:"file-path"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `json:"sqlite-path" mapstructure:"sqlite-path"`

	// Table is the table name used by SQL backends.
	Table string `json:"table" mapstructure:"table"`

	// Collection is the collection name used by the mongodb backend.
	Collection string `json:"collection" mapstructure:"collection"`

	// KeyPrefix namespaces keys written by the redis backend.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Watch enables live reloading when the backing data changes.
	Watch bool `json:"watch" mapstructure:"watch"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Backend:    BackendMemory,
		FilePath:   "",
		SQLitePath: "guard.db",
		Table:      "acl_rules",
		Collection: "acl_rules",
		KeyPrefix:  "guard:acl",
		Watch:      true,
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if !supportedBackends[o.Backend] {
		errs = append(errs, fmt.Errorf("store.backend must be one of memory, file, sqlite, mysql, postgres, redis, mongodb, got: %q", o.Backend))
	}
	if o.Backend == BackendFile && o.FilePath == "" {
		errs = append(errs, fmt.Errorf("store.file-path is required for the file backend"))
	}
	if o.Backend == BackendSQLite && o.SQLitePath == "" {
		errs = append(errs, fmt.Errorf("store.sqlite-path is required for the sqlite backend"))
	}

	return errs
}

// Complete fills in any fields not set that are required to have valid data.
func (o *Options) Complete() error {
	if o.Backend == "" {
		o.Backend = BackendMemory
	}
	if o.Table == "" {
		o.Table = "acl_rules"
	}
	if o.Collection == "" {
		o.Collection = "acl_rules"
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = "guard:acl"
	}
	return nil
}

// AddFlags adds flags for store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringVar(&o.Backend, join+"store.backend", o.Backend, "Rule store backend (memory, file, sqlite, mysql, postgres, redis, mongodb).")
	fs.StringVar(&o.FilePath, join+"store.file-path", o.FilePath, "YAML rule file for the file backend.")
	fs.StringVar(&o.SQLitePath, join+"store.sqlite-path", o.SQLitePath, "Database file for the sqlite backend.")
	fs.StringVar(&o.Table, join+"store.table", o.Table, "Table name for SQL backends.")
	fs.StringVar(&o.Collection, join+"store.collection", o.Collection, "Collection name for the mongodb backend.")
	fs.StringVar(&o.KeyPrefix, join+"store.key-prefix", o.KeyPrefix, "Key prefix for the redis backend.")
	fs.BoolVar(&o.Watch, join+"store.watch", o.Watch, "Reload rules when the backing data changes.")
}
