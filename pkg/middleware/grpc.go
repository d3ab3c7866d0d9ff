package middleware

import (
	"context"
	"strings"

	"github.com/kart-io/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/token"
)

// MethodMapper derives the securable and action from a gRPC full method
// name such as "/guard.v1.PolicyService/ListPolicies".
type MethodMapper func(fullMethod string) (securable, action string)

// DefaultMethodMapper uses the unqualified service name as the securable
// and the method name as the action, both lowercased:
// /guard.v1.PolicyService/ListPolicies yields ("policyservice",
// "listpolicies").
func DefaultMethodMapper(fullMethod string) (string, string) {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	service, method, ok := strings.Cut(trimmed, "/")
	if !ok {
		return strings.ToLower(trimmed), ""
	}
	if i := strings.LastIndexByte(service, '.'); i >= 0 {
		service = service[i+1:]
	}
	return strings.ToLower(service), strings.ToLower(method)
}

// GrpcOption configures the gRPC interceptors.
type GrpcOption func(*grpcOptions)

type grpcOptions struct {
	mapper      MethodMapper
	skipMethods map[string]bool
}

// WithMethodMapper replaces the default securable/action mapping.
func WithMethodMapper(mapper MethodMapper) GrpcOption {
	return func(o *grpcOptions) {
		if mapper != nil {
			o.mapper = mapper
		}
	}
}

// WithSkipMethods sets full method names that bypass enforcement, such
// as health checks.
func WithSkipMethods(methods ...string) GrpcOption {
	return func(o *grpcOptions) {
		for _, m := range methods {
			o.skipMethods[m] = true
		}
	}
}

func newGrpcOptions(opts []GrpcOption) *grpcOptions {
	o := &grpcOptions{
		mapper:      DefaultMethodMapper,
		skipMethods: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UnaryServerInterceptor authenticates the call from its authorization
// metadata and enforces the decision for the mapped securable and
// action. When the token manager is disabled, calls pass through
// unguarded. The handler context carries the principal.
func UnaryServerInterceptor(m *token.Manager, authorizer authz.Authorizer, opts ...GrpcOption) grpc.UnaryServerInterceptor {
	o := newGrpcOptions(opts)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if o.skipMethods[info.FullMethod] || m.Disabled() {
			return handler(ctx, req)
		}
		ctx, err := enforceRPC(ctx, m, authorizer, o.mapper, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the stream counterpart of
// UnaryServerInterceptor.
func StreamServerInterceptor(m *token.Manager, authorizer authz.Authorizer, opts ...GrpcOption) grpc.StreamServerInterceptor {
	o := newGrpcOptions(opts)

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if o.skipMethods[info.FullMethod] || m.Disabled() {
			return handler(srv, ss)
		}
		ctx, err := enforceRPC(ss.Context(), m, authorizer, o.mapper, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

// enforceRPC authenticates and authorizes one call, returning the
// context enriched with the principal.
func enforceRPC(ctx context.Context, m *token.Manager, authorizer authz.Authorizer, mapper MethodMapper, fullMethod string) (context.Context, error) {
	if authorizer == nil {
		return nil, status.Error(codes.Internal, "authorizer not configured")
	}

	raw, err := token.FromMetadata(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	principal, err := m.Parse(raw)
	if err != nil {
		return nil, grpcError(err)
	}

	securable, action := mapper(fullMethod)
	d, err := authorizer.AuthorizeAll(ctx, acl.MultiQuery{
		Principals: principal.Principals(),
		Actions:    []any{action},
		Securable:  securable,
	})
	if err != nil {
		return nil, grpcError(err)
	}
	if !d.Allowed {
		logger.Warnw("RPC denied",
			"subject", principal.Subject,
			"securable", securable,
			"action", action,
			"reason", d.Reason,
			"full_method", fullMethod)
		return nil, status.Errorf(codes.PermissionDenied,
			"access denied: principal=%s, securable=%s, action=%s",
			principal.Subject, securable, action)
	}

	return token.WithPrincipal(ctx, principal), nil
}

func grpcError(err error) error {
	errno := errors.FromError(err)
	return status.Error(errno.GRPCStatus(), errno.MessageEN)
}

// wrappedStream overrides the stream context with the principal-bearing
// one.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
