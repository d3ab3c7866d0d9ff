package etcd

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/guard/pkg/component/storage"
)

// CheckHealth performs a health check on the etcd cluster, measuring latency
// and verifying that the cluster has reachable members.
func (c *Client) CheckHealth(ctx context.Context) storage.HealthStatus {
	status := storage.HealthStatus{
		Name:    c.Name(),
		Healthy: false,
	}

	start := time.Now()

	if err := c.Ping(ctx); err != nil {
		status.Latency = time.Since(start)
		status.Error = fmt.Errorf("connectivity check failed: %w", err)
		return status
	}

	if err := c.checkClusterHealth(ctx); err != nil {
		status.Latency = time.Since(start)
		status.Error = fmt.Errorf("cluster health check failed: %w", err)
		return status
	}

	status.Latency = time.Since(start)
	status.Healthy = true

	return status
}

// checkClusterHealth verifies the etcd cluster has at least one member.
func (c *Client) checkClusterHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	membersResp, err := c.client.MemberList(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cluster members: %w", err)
	}

	if len(membersResp.Members) == 0 {
		return fmt.Errorf("cluster has no members")
	}

	return nil
}
