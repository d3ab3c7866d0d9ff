package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/store"
)

// HealthHandler reports liveness and store reachability.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Healthz pings the policy store and reports the record count.
func (h *HealthHandler) Healthz(c *gin.Context) {
	n, err := h.store.Count(c.Request.Context())
	if err != nil {
		writeError(c, errors.ErrStoreUnavailable.WithCause(err))
		return
	}

	writeData(c, gin.H{"status": "ok", "policies": n})
}
