package token

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/kart-io/guard/pkg/errors"
)

const mdAuthorization = "authorization"

// FromMetadata extracts the bearer token from incoming gRPC metadata.
func FromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.ErrUnauthorized.WithMessage("missing request metadata")
	}
	values := md.Get(mdAuthorization)
	if len(values) == 0 {
		return "", errors.ErrUnauthorized.WithMessage("missing authorization metadata")
	}

	raw := strings.TrimSpace(values[0])
	if strings.HasPrefix(raw, "Bearer ") {
		raw = strings.TrimPrefix(raw, "Bearer ")
	}
	if raw == "" {
		return "", errors.ErrUnauthorized.WithMessage("empty authorization metadata")
	}
	return raw, nil
}

// AppendToOutgoingContext attaches the token as bearer authorization
// metadata for a gRPC client call.
func AppendToOutgoingContext(ctx context.Context, tokenString string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, mdAuthorization, "Bearer "+tokenString)
}
