// Package guardctl implements the guard policy administration CLI: save
// and revoke rules, inspect the store, and evaluate queries the way
// guardd would.
package guardctl

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	guardapp "github.com/kart-io/guard/pkg/app"
	etcdcomp "github.com/kart-io/guard/pkg/component/etcd"
	rediscomp "github.com/kart-io/guard/pkg/component/redis"
	etcdopts "github.com/kart-io/guard/pkg/options/etcd"
	mongoopts "github.com/kart-io/guard/pkg/options/mongodb"
	mysqlopts "github.com/kart-io/guard/pkg/options/mysql"
	pgopts "github.com/kart-io/guard/pkg/options/postgres"
	redisopts "github.com/kart-io/guard/pkg/options/redis"
	storeopts "github.com/kart-io/guard/pkg/options/store"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/store/filestore"
	"github.com/kart-io/guard/pkg/store/gormstore"
	"github.com/kart-io/guard/pkg/store/mongostore"
	"github.com/kart-io/guard/pkg/store/redistore"
	"github.com/kart-io/guard/pkg/watcher"
)

// Name is the name of the CLI.
const Name = "guardctl"

// Supported change notification backends, matching guardd.
const (
	NotifierNone  = "none"
	NotifierRedis = "redis"
	NotifierEtcd  = "etcd"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

const rootLong = `guardctl administers the guard policy store: save permit and deny rules,
revoke them, inspect what is stored, and evaluate authorization queries
the way guardd renders them.

Scope arguments accept * for "any", matching rules that do not constrain
that dimension.`

// Options carries the store configuration shared by every subcommand.
// The flags match guardd, so the same arguments point both tools at the
// same store.
type Options struct {
	Store    *storeopts.Options
	MySQL    *mysqlopts.Options
	Postgres *pgopts.Options
	Redis    *redisopts.Options
	Mongo    *mongoopts.Options
	Etcd     *etcdopts.Options

	// Notifier selects where mutations are announced so running daemons
	// reload (none, redis, etcd).
	Notifier string

	// Output selects the rendering format (table, json).
	Output string
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		Store:    storeopts.NewOptions(),
		MySQL:    mysqlopts.NewOptions(),
		Postgres: pgopts.NewOptions(),
		Redis:    redisopts.NewOptions(),
		Mongo:    mongoopts.NewOptions(),
		Etcd:     etcdopts.NewOptions(),
		Notifier: NotifierNone,
		Output:   OutputTable,
	}
}

// AddFlags registers the shared flags on the given flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Store.AddFlags(fs)
	o.MySQL.AddFlags(fs)
	o.Postgres.AddFlags(fs)
	o.Redis.AddFlags(fs)
	o.Mongo.AddFlags(fs)
	o.Etcd.AddFlags(fs)

	fs.StringVar(&o.Notifier, "notifier", o.Notifier, "Announce mutations on this backend so running daemons reload (none, redis, etcd)")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format (table, json)")
}

// Complete completes the shared options.
func (o *Options) Complete() error {
	return o.Store.Complete()
}

// Validate checks the options of the selected backend and notifier.
func (o *Options) Validate() error {
	errs := o.Store.Validate()

	switch o.Store.Backend {
	case storeopts.BackendMySQL:
		errs = append(errs, o.MySQL.Validate()...)
	case storeopts.BackendPostgres:
		errs = append(errs, o.Postgres.Validate()...)
	case storeopts.BackendMongoDB:
		errs = append(errs, o.Mongo.Validate()...)
	}

	switch o.Notifier {
	case "", NotifierNone, NotifierRedis, NotifierEtcd:
	default:
		errs = append(errs, fmt.Errorf("notifier must be one of none, redis, etcd, got: %q", o.Notifier))
	}

	if o.Store.Backend == storeopts.BackendRedis || o.Notifier == NotifierRedis {
		errs = append(errs, o.Redis.Validate()...)
	}
	if o.Notifier == NotifierEtcd {
		errs = append(errs, o.Etcd.Validate()...)
	}

	if o.Output != OutputTable && o.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("output must be table or json, got: %q", o.Output))
	}

	return utilerrors.NewAggregate(errs)
}

// openStore opens the policy store selected by the options. The caller
// closes it.
func (o *Options) openStore(ctx context.Context) (store.Store, error) {
	switch o.Store.Backend {
	case storeopts.BackendMemory:
		return store.NewMemoryStore(), nil

	case storeopts.BackendFile:
		return filestore.Open(o.Store.FilePath, filestore.WithWatch(false))

	case storeopts.BackendSQLite:
		return gormstore.OpenSQLite(o.Store.SQLitePath, gormstore.WithTable(o.Store.Table))

	case storeopts.BackendMySQL:
		return gormstore.OpenMySQL(ctx, o.MySQL, gormstore.WithTable(o.Store.Table))

	case storeopts.BackendPostgres:
		return gormstore.OpenPostgres(ctx, o.Postgres, gormstore.WithTable(o.Store.Table))

	case storeopts.BackendRedis:
		return redistore.Open(ctx, o.Redis, redistore.WithKeyPrefix(o.Store.KeyPrefix))

	case storeopts.BackendMongoDB:
		return mongostore.Open(ctx, o.Mongo, mongostore.WithCollection(o.Store.Collection))

	default:
		return nil, fmt.Errorf("unsupported store backend: %q", o.Store.Backend)
	}
}

// announce tells running daemons to reload after a mutation. The redis
// store backend already publishes on its own; this covers the other
// backends when a notifier is configured.
func (o *Options) announce(ctx context.Context) error {
	switch o.Notifier {
	case "", NotifierNone:
		return nil

	case NotifierRedis:
		client, err := rediscomp.NewWithContext(ctx, o.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		w, err := watcher.NewRedisWatcher(client)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		return w.Publish(ctx, store.NewRecordID())

	case NotifierEtcd:
		client, err := etcdcomp.NewWithContext(ctx, o.Etcd)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		w, err := watcher.NewEtcdWatcher(client)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		return w.Publish(ctx, store.NewRecordID())

	default:
		return fmt.Errorf("unsupported notifier: %q", o.Notifier)
	}
}

// NewGuardCtlCommand builds the guardctl root command.
func NewGuardCtlCommand() *cobra.Command {
	opts := NewOptions()

	root := &cobra.Command{
		Use:          Name,
		Short:        "Manage guard policies",
		Long:         rootLong,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			guardapp.PrintAndExitIfRequested()
			if err := opts.Complete(); err != nil {
				return err
			}
			return opts.Validate()
		},
	}

	fs := root.PersistentFlags()
	opts.AddFlags(fs)
	guardapp.AddVersionFlags(fs)

	root.AddCommand(
		newCheckCommand(opts),
		newPermitCommand(opts),
		newDenyCommand(opts),
		newRevokeCommand(opts),
		newShowCommand(opts),
	)

	return root
}

// scopeArg maps the CLI form of a scope value to its stored form: * means
// any.
func scopeArg(s string) string {
	if s == "*" {
		return store.Wildcard
	}
	return s
}

// queryArg maps the CLI form of a scope value to its engine query form.
func queryArg(s string) any {
	if s == "" || s == "*" {
		return nil
	}
	return s
}
