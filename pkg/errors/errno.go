// Package errors provides the structured error code system used across guard.
//
// Every error surfaced by guard carries a globally unique numeric code, an
// HTTP status, and a gRPC status, so transport layers can map failures
// without inspecting message text.
//
// Error Code Format: AABBCCC
//
//	AA  (00-99): Module code - identifies the originating module
//	BB  (00-99): Category code - identifies the error category
//	CCC (000-999): Sequence number within the module and category
//
// Usage:
//
//	// Using predefined errors
//	return errors.ErrInvalidStrategy.WithMessage("strategy is nil")
//
//	// Wrapping underlying errors
//	return errors.ErrStoreUnavailable.WithCause(err)
//
//	// Extending the code space from an embedding service
//	var ErrQuotaExceeded = errors.NewBuilder(30, errors.CategoryRateLimit, 0).
//	    HTTP(http.StatusTooManyRequests).
//	    GRPC(codes.ResourceExhausted).
//	    Message("Quota exceeded", "配额已用尽").
//	    MustBuild()
package errors

import (
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc/codes"
)

// Errno is a structured error with a stable code and transport mappings.
type Errno struct {
	// Code is the unique error code.
	Code int `json:"code"`

	// HTTP is the HTTP status code to return.
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code.
	GRPCCode codes.Code `json:"-"`

	// MessageEN is the English error message.
	MessageEN string `json:"message"`

	// MessageZH is the Chinese error message.
	MessageZH string `json:"message_zh,omitempty"`

	// cause is the underlying error.
	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Is matches errors by code, so errors.Is works across WithMessage and
// WithCause copies of the same registered Errno.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of the Errno carrying the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	c := e.clone()
	c.cause = cause
	return c
}

// WithMessage returns a copy of the Errno with a custom English message.
func (e *Errno) WithMessage(msg string) *Errno {
	c := e.clone()
	c.MessageEN = msg
	return c
}

// WithMessagef returns a copy of the Errno with a formatted English message.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message returns the message for the requested language tag.
func (e *Errno) Message(lang string) string {
	switch lang {
	case "zh", "zh-CN", "zh_CN":
		if e.MessageZH != "" {
			return e.MessageZH
		}
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status code, defaulting to 500.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code, defaulting to Internal.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Format implements fmt.Formatter. %+v includes transport codes and cause.
func (e *Errno) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "errno %d [HTTP %d, gRPC %s]: %s", e.Code, e.HTTPStatus(), e.GRPCStatus().String(), e.MessageEN)
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\ncaused by: %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

func (e *Errno) clone() *Errno {
	return &Errno{
		Code:      e.Code,
		HTTP:      e.HTTP,
		GRPCCode:  e.GRPCCode,
		MessageEN: e.MessageEN,
		MessageZH: e.MessageZH,
		cause:     e.cause,
	}
}

// registry stores all registered error codes for uniqueness validation.
var (
	registry   = make(map[int]*Errno)
	registryMu sync.RWMutex
)

// Register registers an Errno and validates code uniqueness.
// Panics if the code is already registered.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := registry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.MessageEN))
	}
	registry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for the given code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[code]
	return e, ok
}

// FromError converts any error to an Errno.
// Errno values pass through unchanged, including wrapped ones; anything else
// becomes ErrInternal with the original as cause.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Errno); ok {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode reports whether err is an Errno with the given code.
func IsCode(err error, code int) bool {
	if e, ok := err.(*Errno); ok {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code, or -1 when err is not an Errno.
func GetCode(err error) int {
	if e, ok := err.(*Errno); ok {
		return e.Code
	}
	return -1
}
