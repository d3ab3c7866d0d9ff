package guardd

import (
	"context"
	"fmt"
	"io"

	"github.com/kart-io/logger"

	"github.com/kart-io/guard/pkg/acl"
	etcdcomp "github.com/kart-io/guard/pkg/component/etcd"
	rediscomp "github.com/kart-io/guard/pkg/component/redis"
	storeopts "github.com/kart-io/guard/pkg/options/store"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/store/filestore"
	"github.com/kart-io/guard/pkg/store/gormstore"
	"github.com/kart-io/guard/pkg/store/mongostore"
	"github.com/kart-io/guard/pkg/store/redistore"
	"github.com/kart-io/guard/pkg/watcher"
)

// Supported change notification backends.
const (
	NotifierNone  = "none"
	NotifierRedis = "redis"
	NotifierEtcd  = "etcd"
)

// newNotifier builds the change notification watcher selected by the
// options. It returns nil when notifications are disabled, plus a closer
// for the underlying client connection.
func (cfg *Config) newNotifier(ctx context.Context) (watcher.Watcher, io.Closer, error) {
	switch cfg.Notifier {
	case "", NotifierNone:
		return nil, nil, nil

	case NotifierRedis:
		client, err := rediscomp.NewWithContext(ctx, cfg.RedisOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect notifier redis: %w", err)
		}
		w, err := watcher.NewRedisWatcher(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return w, client, nil

	case NotifierEtcd:
		client, err := etcdcomp.NewWithContext(ctx, cfg.EtcdOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect notifier etcd: %w", err)
		}
		w, err := watcher.NewEtcdWatcher(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return w, client, nil

	default:
		return nil, nil, fmt.Errorf("unsupported notifier: %q", cfg.Notifier)
	}
}

// newStore opens the policy store selected by the options. When a notifier
// watcher is active, store-side announcements are turned off so the
// reloader stays the single announcer.
func (cfg *Config) newStore(ctx context.Context, notifier watcher.Watcher) (store.Store, error) {
	o := cfg.StoreOptions

	switch o.Backend {
	case storeopts.BackendMemory:
		return store.NewMemoryStore(), nil

	case storeopts.BackendFile:
		return filestore.Open(o.FilePath, filestore.WithWatch(o.Watch))

	case storeopts.BackendSQLite:
		return gormstore.OpenSQLite(o.SQLitePath, gormstore.WithTable(o.Table))

	case storeopts.BackendMySQL:
		return gormstore.OpenMySQL(ctx, cfg.MySQLOptions, gormstore.WithTable(o.Table))

	case storeopts.BackendPostgres:
		return gormstore.OpenPostgres(ctx, cfg.PostgresOptions, gormstore.WithTable(o.Table))

	case storeopts.BackendRedis:
		opts := []redistore.Option{redistore.WithKeyPrefix(o.KeyPrefix)}
		if notifier != nil {
			opts = append(opts, redistore.WithoutPublish())
		}
		return redistore.Open(ctx, cfg.RedisOptions, opts...)

	case storeopts.BackendMongoDB:
		return mongostore.Open(ctx, cfg.MongoOptions, mongostore.WithCollection(o.Collection))

	default:
		return nil, fmt.Errorf("unsupported store backend: %q", o.Backend)
	}
}

// localRefresher reloads the live list from the store after a local
// mutation. It serves deployments without a notifier, where other
// instances refresh on their own schedule.
type localRefresher struct {
	store store.Store
	list  *acl.List
}

// Notify reads the store and atomically swaps the list contents.
func (r *localRefresher) Notify(ctx context.Context) error {
	loaded, err := store.Load(ctx, r.store, store.Wildcard)
	if err != nil {
		return err
	}
	r.list.SetEntries(loaded.Entries())
	return nil
}

// hookFileReload swaps the live list whenever the policy file changes on
// disk. Only the file backend reloads this way; the other backends go
// through the reloader.
func hookFileReload(st store.Store, list *acl.List) {
	fs, ok := st.(*filestore.Store)
	if !ok {
		return
	}
	fs.OnReload(func(records []*store.Record) {
		loaded, err := store.BuildList(records)
		if err != nil {
			logger.Errorw("Policy file reload rejected", "path", fs.Path(), "error", err)
			return
		}
		list.SetEntries(loaded.Entries())
		logger.Infow("Policy file reloaded", "path", fs.Path(), "entries", list.Len())
	})
}
