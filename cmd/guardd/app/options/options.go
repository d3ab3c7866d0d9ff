// Package options contains flags and options for initializing the guardd
// server.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	guardd "github.com/kart-io/guard/internal/guardd"
	cliflag "github.com/kart-io/guard/pkg/app/cliflag"
	etcdopts "github.com/kart-io/guard/pkg/options/etcd"
	jwtopts "github.com/kart-io/guard/pkg/options/jwt"
	logopts "github.com/kart-io/guard/pkg/options/logger"
	middlewareopts "github.com/kart-io/guard/pkg/options/middleware"
	mongoopts "github.com/kart-io/guard/pkg/options/mongodb"
	mysqlopts "github.com/kart-io/guard/pkg/options/mysql"
	pgopts "github.com/kart-io/guard/pkg/options/postgres"
	redisopts "github.com/kart-io/guard/pkg/options/redis"
	serveropts "github.com/kart-io/guard/pkg/options/server"
	storeopts "github.com/kart-io/guard/pkg/options/store"
	tracingopts "github.com/kart-io/guard/pkg/options/tracing"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// ServerOptions contains the listener configuration.
	ServerOptions *serveropts.Options `json:"server" mapstructure:"server"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// JWTOptions contains token authentication configuration.
	JWTOptions *jwtopts.Options `json:"jwt" mapstructure:"jwt"`

	// StoreOptions contains policy store configuration.
	StoreOptions *storeopts.Options `json:"store" mapstructure:"store"`

	// MySQLOptions contains MySQL configuration for the mysql backend.
	MySQLOptions *mysqlopts.Options `json:"mysql" mapstructure:"mysql"`

	// PostgresOptions contains PostgreSQL configuration for the postgres
	// backend.
	PostgresOptions *pgopts.Options `json:"postgres" mapstructure:"postgres"`

	// RedisOptions contains Redis configuration for the redis backend and
	// notifier.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// MongoOptions contains MongoDB configuration for the mongodb backend.
	MongoOptions *mongoopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// EtcdOptions contains etcd configuration for the etcd notifier.
	EtcdOptions *etcdopts.Options `json:"etcd" mapstructure:"etcd"`

	// MiddlewareOptions contains HTTP middleware configuration.
	MiddlewareOptions *middlewareopts.Options `json:"middleware" mapstructure:"middleware"`

	// TracingOptions contains distributed tracing configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// Notifier selects the change notification backend (none, redis, etcd).
	Notifier string `json:"notifier" mapstructure:"notifier"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	serverOpts := serveropts.NewOptions()
	serverOpts.HTTP.Addr = ":8440"
	serverOpts.GRPC.Addr = ":9440"

	jwtOpts := jwtopts.NewOptions()
	// Token auth is opt-in for the daemon; set jwt.key and
	// jwt.disable-auth=false to require it.
	jwtOpts.DisableAuth = true

	tracingOpts := tracingopts.NewOptions()
	tracingOpts.ServiceName = guardd.Name

	return &ServerOptions{
		ServerOptions:     serverOpts,
		LogOptions:        logopts.NewOptions(),
		JWTOptions:        jwtOpts,
		StoreOptions:      storeopts.NewOptions(),
		MySQLOptions:      mysqlopts.NewOptions(),
		PostgresOptions:   pgopts.NewOptions(),
		RedisOptions:      redisopts.NewOptions(),
		MongoOptions:      mongoopts.NewOptions(),
		EtcdOptions:       etcdopts.NewOptions(),
		MiddlewareOptions: middlewareopts.NewOptions(),
		TracingOptions:    tracingOpts,
		Notifier:          guardd.NotifierNone,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.ServerOptions.AddFlags(fss.FlagSet("server"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.JWTOptions.AddFlags(fss.FlagSet("jwt"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.MySQLOptions.AddFlags(fss.FlagSet("mysql"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.MongoOptions.AddFlags(fss.FlagSet("mongodb"))
	o.EtcdOptions.AddFlags(fss.FlagSet("etcd"))
	o.MiddlewareOptions.AddFlags(fss.FlagSet("middleware"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.StringVar(&o.Notifier, "notifier", o.Notifier, "Change notification backend (none, redis, etcd)")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.ServerOptions.Complete(); err != nil {
		return err
	}
	if err := o.LogOptions.Complete(); err != nil {
		return err
	}
	if err := o.JWTOptions.Complete(); err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	if err := o.StoreOptions.Complete(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := o.MiddlewareOptions.Complete(); err != nil {
		return fmt.Errorf("middleware: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.ServerOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.JWTOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	errs = append(errs, o.MiddlewareOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)

	// Connection options are validated only for the backends in use.
	switch o.StoreOptions.Backend {
	case storeopts.BackendMySQL:
		errs = append(errs, o.MySQLOptions.Validate()...)
	case storeopts.BackendPostgres:
		errs = append(errs, o.PostgresOptions.Validate()...)
	case storeopts.BackendMongoDB:
		errs = append(errs, o.MongoOptions.Validate()...)
	}

	switch o.Notifier {
	case guardd.NotifierNone, guardd.NotifierRedis, guardd.NotifierEtcd:
	default:
		errs = append(errs, fmt.Errorf("notifier must be one of none, redis, etcd, got: %q", o.Notifier))
	}

	if o.StoreOptions.Backend == storeopts.BackendRedis || o.Notifier == guardd.NotifierRedis {
		errs = append(errs, o.RedisOptions.Validate()...)
	}
	if o.Notifier == guardd.NotifierEtcd {
		errs = append(errs, o.EtcdOptions.Validate()...)
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a guardd.Config based on ServerOptions.
func (o *ServerOptions) Config() (*guardd.Config, error) {
	return &guardd.Config{
		ServerOptions:     o.ServerOptions,
		LogOptions:        o.LogOptions,
		JWTOptions:        o.JWTOptions,
		StoreOptions:      o.StoreOptions,
		MySQLOptions:      o.MySQLOptions,
		PostgresOptions:   o.PostgresOptions,
		RedisOptions:      o.RedisOptions,
		MongoOptions:      o.MongoOptions,
		EtcdOptions:       o.EtcdOptions,
		MiddlewareOptions: o.MiddlewareOptions,
		TracingOptions:    o.TracingOptions,
		Notifier:          o.Notifier,
	}, nil
}
