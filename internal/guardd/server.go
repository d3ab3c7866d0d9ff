// Package guardd implements the guard decision service: a policy store, a
// live access control list kept in sync by watchers, and HTTP plus gRPC
// surfaces answering authorization queries.
package guardd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kart-io/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/guard/internal/guardd/handler"
	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/app"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/middleware"
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
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/token"
	"github.com/kart-io/guard/pkg/tracing"
	"github.com/kart-io/guard/pkg/watcher"
)

// Name is the name of the application.
const Name = "guardd"

// Config contains application-related configurations.
type Config struct {
	ServerOptions     *serveropts.Options
	LogOptions        *logopts.Options
	JWTOptions        *jwtopts.Options
	StoreOptions      *storeopts.Options
	MySQLOptions      *mysqlopts.Options
	PostgresOptions   *pgopts.Options
	RedisOptions      *redisopts.Options
	MongoOptions      *mongoopts.Options
	EtcdOptions       *etcdopts.Options
	MiddlewareOptions *middlewareopts.Options
	TracingOptions    *tracingopts.Options
	Notifier          string
}

// Server represents the guard decision server.
type Server struct {
	cfg            *Config
	httpServer     *http.Server
	grpcServer     *grpc.Server
	store          store.Store
	notifier       watcher.Watcher
	notifierClient io.Closer
	tracing        *tracing.Provider
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner()

	// 1. Initialize the logger
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting guard decision service...", "version", app.GetVersion())

	// 2. Initialize tracing
	provider, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 3. Connect the change notifier, if configured
	notifier, notifierClient, err := cfg.newNotifier(ctx)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		logger.Infow("Change notifier connected", "backend", cfg.Notifier)
	}

	// 4. Open the policy store
	st, err := cfg.newStore(ctx, notifier)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy store: %w", err)
	}
	logger.Infow("Policy store opened", "backend", cfg.StoreOptions.Backend)

	// 5. Load the live list and wire refresh
	list := acl.NewList()
	var refresh handler.Refresher
	if notifier != nil {
		reloader, err := watcher.NewReloader(notifier, st, list)
		if err != nil {
			return nil, fmt.Errorf("failed to start policy reloader: %w", err)
		}
		refresh = reloader
	} else {
		local := &localRefresher{store: st, list: list}
		if err := local.Notify(ctx); err != nil {
			return nil, fmt.Errorf("failed to load policies: %w", err)
		}
		refresh = local
	}
	hookFileReload(st, list)
	logger.Infow("Policies loaded", "entries", list.Len())

	// 6. Initialize token authentication
	tokenManager, err := token.New(cfg.JWTOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	// 7. Build the authorizer
	var authorizer authz.Authorizer = authz.NewListAuthorizer(list)
	if cfg.TracingOptions.Enabled() {
		authorizer = authz.NewTracingAuthorizer(authorizer)
	}

	server := &Server{
		cfg:            cfg,
		store:          st,
		notifier:       notifier,
		notifierClient: notifierClient,
		tracing:        provider,
	}

	// 8. Build the listeners
	if cfg.ServerOptions.EnableHTTP() {
		engine := cfg.installRoutes(authorizer, st, refresh, tokenManager)
		server.httpServer = &http.Server{
			Addr:         cfg.ServerOptions.HTTP.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ServerOptions.HTTP.ReadTimeout,
			WriteTimeout: cfg.ServerOptions.HTTP.WriteTimeout,
			IdleTimeout:  cfg.ServerOptions.HTTP.IdleTimeout,
		}
	}
	if cfg.ServerOptions.EnableGRPC() {
		server.grpcServer = cfg.newGRPCServer(tokenManager, authorizer)
	}

	logger.Info("Guard decision service is ready")
	return server, nil
}

// newGRPCServer builds the gRPC listener: standard health service and
// optional reflection, guarded by the token and authorizer interceptors.
func (cfg *Config) newGRPCServer(tokenManager *token.Manager, authorizer authz.Authorizer) *grpc.Server {
	g := cfg.ServerOptions.GRPC

	skip := middleware.WithSkipMethods(
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
		"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo",
		"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo",
	)

	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(g.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(g.MaxSendMsgSize),
		grpc.ChainUnaryInterceptor(
			timeoutUnaryInterceptor(g.Timeout),
			middleware.UnaryServerInterceptor(tokenManager, authorizer, skip),
		),
		grpc.ChainStreamInterceptor(
			middleware.StreamServerInterceptor(tokenManager, authorizer, skip),
		),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(Name, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	if g.EnableReflection {
		reflection.Register(srv)
	}

	return srv
}

// timeoutUnaryInterceptor bounds each unary call by the configured server
// timeout.
func timeoutUnaryInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, h grpc.UnaryHandler) (interface{}, error) {
		if d <= 0 {
			return h(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return h(ctx, req)
	}
}

// Run starts the listeners and blocks until the context is cancelled or a
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if s.httpServer != nil {
		go func() {
			logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
			if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", s.cfg.ServerOptions.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			logger.Infow("gRPC server listening", "addr", s.cfg.ServerOptions.GRPC.Addr)
			if err := s.grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		return s.shutdown()
	case err := <-errCh:
		_ = s.shutdown()
		return err
	}
}

// shutdown stops the listeners within the configured timeout and releases
// the store, notifier, and tracing resources.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ServerOptions.ShutdownTimeout)
	defer cancel()

	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if s.grpcServer != nil {
		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.grpcServer.Stop()
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier close: %w", err))
		}
	}
	if s.notifierClient != nil {
		if err := s.notifierClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier client close: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}
	if err := s.tracing.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}

	logger.Info("Server stopped")
	return utilerrors.NewAggregate(errs)
}

func printBanner() {
	fmt.Printf("Starting %s...\n", Name)
}
