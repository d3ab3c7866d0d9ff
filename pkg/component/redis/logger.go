package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/logger"
)

// loggingAdapter routes go-redis internal log output through the unified logger.
type loggingAdapter struct{}

// Printf implements the go-redis internal logging interface.
func (loggingAdapter) Printf(ctx context.Context, format string, v ...interface{}) {
	logger.Global().WithCtx(ctx).Infof(format, v...)
}

func init() {
	goredis.SetLogger(loggingAdapter{})
}
