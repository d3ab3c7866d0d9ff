// Package storage provides a unified interface for policy store backends.
//
// It defines the abstractions every backend client follows, so the server
// can treat Redis, MySQL, PostgreSQL, MongoDB, and etcd uniformly:
//   - Client: base interface (name, ping, close, health)
//   - Factory: builds a connected client from bound configuration
//   - Manager: registry, concurrent health checking, and shutdown
//   - StorageError: code-based errors that survive enrichment
//
// # Quick start
//
//	client, err := redis.New(redisopts.NewOptions())
//	if err != nil {
//	    log.Fatalf("failed to connect: %v", err)
//	}
//
//	mgr := storage.NewManager()
//	mgr.MustRegister("redis-policy", client)
//	defer mgr.CloseAll()
//
//	statuses := mgr.HealthCheckAll(ctx)
package storage
