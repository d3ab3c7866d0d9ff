// Package handler implements the guardd HTTP API: decision queries,
// store-backed policy management, and health.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/utils/response"
	"github.com/kart-io/guard/pkg/validator"
)

// bind decodes the JSON body into req and validates its struct tags.
func bind(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return errors.ErrBadRequest.WithCause(err)
	}
	if err := validator.Struct(req); err != nil {
		return errors.ErrValidationFailed.WithMessage(err.Error())
	}
	return nil
}

// scope maps the wire form of an unconstrained field to the engine form.
func scope(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func writeData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response.Success(data))
}

func writeError(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.JSON(errno.HTTPStatus(), response.Err(errno))
}
