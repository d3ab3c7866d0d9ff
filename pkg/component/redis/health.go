package redis

import (
	"context"
	"time"

	"github.com/kart-io/guard/pkg/component/storage"
)

// CheckHealth performs a health check with latency measurement.
func (c *Client) CheckHealth(ctx context.Context) storage.HealthStatus {
	status := storage.HealthStatus{
		Name:    c.Name(),
		Healthy: false,
	}

	start := time.Now()

	if err := c.Ping(ctx); err != nil {
		status.Latency = time.Since(start)
		status.Error = err
		return status
	}

	status.Latency = time.Since(start)
	status.Healthy = true

	return status
}

// IsHealthy reports whether Redis responds to a ping within the timeout.
func (c *Client) IsHealthy(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Ping(ctx) == nil
}

// PoolStats describes connection pool usage.
type PoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total-conns"`
	IdleConns  uint32 `json:"idle-conns"`
	StaleConns uint32 `json:"stale-conns"`
}

// Stats returns connection pool statistics.
func (c *Client) Stats() PoolStats {
	s := c.client.PoolStats()
	return PoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
		StaleConns: s.StaleConns,
	}
}
