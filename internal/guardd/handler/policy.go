package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/utils/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// Refresher propagates a policy mutation into the live decision list, and
// to other instances when a notifier is configured.
type Refresher interface {
	Notify(ctx context.Context) error
}

// PolicyHandler manages persisted policy records.
type PolicyHandler struct {
	store   store.Store
	refresh Refresher
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(s store.Store, refresh Refresher) *PolicyHandler {
	return &PolicyHandler{store: s, refresh: refresh}
}

// CreatePolicyRequest is the request body for saving a policy record.
// Empty scope fields mean the rule does not constrain that dimension.
type CreatePolicyRequest struct {
	// Effect is permit or deny.
	Effect string `json:"effect" validate:"required,effect"`

	// Principal the rule applies to.
	Principal string `json:"principal" validate:"scoperef"`

	// Securable the rule covers.
	Securable string `json:"securable" validate:"scoperef"`

	// Action the rule covers.
	Action string `json:"action" validate:"omitempty,actionname"`
}

// Create saves a record and refreshes the live list.
func (h *PolicyHandler) Create(c *gin.Context) {
	var req CreatePolicyRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}

	rec := &store.Record{
		Effect:    store.Effect(req.Effect),
		Principal: req.Principal,
		Securable: req.Securable,
		Action:    req.Action,
	}
	if err := h.store.Save(c.Request.Context(), rec); err != nil {
		writeError(c, err)
		return
	}

	h.notify(c, rec.ID)
	writeData(c, rec)
}

// List returns policy records, optionally scoped to one securable, one
// page at a time.
func (h *PolicyHandler) List(c *gin.Context) {
	securable := c.Query("securable")
	page, pageSize := pagination(c)
	offset := (page - 1) * pageSize

	var (
		total   int64
		records []*store.Record
		err     error
	)
	if pager, ok := h.store.(store.Pager); ok {
		total, records, err = pager.Page(c.Request.Context(), securable, offset, pageSize)
	} else {
		var all []*store.Record
		if all, err = h.store.List(c.Request.Context(), securable); err == nil {
			total, records = store.PageRecords(all, offset, pageSize)
		}
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Page(records, total, page, pageSize))
}

// Delete removes a record by ID and refreshes the live list.
func (h *PolicyHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, errors.ErrInvalidParam.WithMessage("policy id is required"))
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.notify(c, id)
	writeData(c, gin.H{"id": id})
}

// notify refreshes the live list after a store write. The store is the
// source of truth; a failed refresh is logged and the write still counts,
// since watchers converge on the next notification.
func (h *PolicyHandler) notify(c *gin.Context, id string) {
	if h.refresh == nil {
		return
	}
	if err := h.refresh.Notify(c.Request.Context()); err != nil {
		logger.Errorw("Policy refresh failed", "id", id, "error", err)
	}
}

func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
