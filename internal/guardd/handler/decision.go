package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/authz"
)

// DecisionHandler answers authorization queries.
type DecisionHandler struct {
	authorizer authz.Authorizer
}

// NewDecisionHandler creates a new DecisionHandler.
func NewDecisionHandler(authorizer authz.Authorizer) *DecisionHandler {
	return &DecisionHandler{authorizer: authorizer}
}

// CheckRequest is the request body for a single decision.
type CheckRequest struct {
	// Principal is the subject the decision is rendered for.
	Principal string `json:"principal" validate:"required,scoperef"`

	// Securable is the object being accessed. Empty leaves the dimension
	// unconstrained, so only rules without a securable scope apply.
	Securable string `json:"securable" validate:"scoperef"`

	// Action is the operation on the securable.
	Action string `json:"action" validate:"required,actionname"`
}

// Check renders a decision for a single query.
func (h *DecisionHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}

	d, err := h.authorizer.Authorize(c.Request.Context(), acl.Query{
		Principal: req.Principal,
		Securable: scope(req.Securable),
		Action:    req.Action,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, d)
}

// BatchCheckRequest is the request body for an aggregate decision over
// several principals and actions at once.
type BatchCheckRequest struct {
	// Principals name the subject and any roles it carries.
	Principals []string `json:"principals" validate:"required,min=1,dive,required,scoperef"`

	// Securable is the object being accessed. Empty leaves the dimension
	// unconstrained.
	Securable string `json:"securable" validate:"scoperef"`

	// Actions are the operations that must all be permitted.
	Actions []string `json:"actions" validate:"required,min=1,dive,required,actionname"`
}

/// CheckBatch renders one decision over the principals and actions: every
// action must be permitted to at least one principal and no pair may be
// denied.
func (h *DecisionHandler) CheckBatch(c *gin.Context) {
	var req BatchCheckRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}

	d, err := h.authorizer.AuthorizeAll(c.Request.Context(), acl.MultiQuery{
		Principals: anySlice(req.Principals),
		Securable:  scope(req.Securable),
		Actions:    anySlice(req.Actions),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, d)
}
