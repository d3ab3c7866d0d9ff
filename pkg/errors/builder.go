package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// ErrnoBuilder assembles and registers an Errno with a fluent API.
// Services embedding guard use it to claim their own module code space:
//
//	const ModuleBilling = 30
//
//	var ErrInvoiceLocked = errors.NewBuilder(ModuleBilling, errors.CategoryConflict, 0).
//	    HTTP(http.StatusConflict).
//	    GRPC(codes.FailedPrecondition).
//	    Message("Invoice is locked", "账单已锁定").
//	    MustBuild()
type ErrnoBuilder struct {
	module    int
	category  int
	sequence  int
	http      int
	grpc      codes.Code
	messageEN string
	messageZH string
}

// NewBuilder creates a builder for the given module, category, and sequence.
func NewBuilder(module, category, sequence int) *ErrnoBuilder {
	return &ErrnoBuilder{
		module:   module,
		category: category,
		sequence: sequence,
		http:     http.StatusInternalServerError,
		grpc:     codes.Internal,
	}
}

// HTTP sets the HTTP status code.
func (b *ErrnoBuilder) HTTP(status int) *ErrnoBuilder {
	b.http = status
	return b
}

// GRPC sets the gRPC status code.
func (b *ErrnoBuilder) GRPC(code codes.Code) *ErrnoBuilder {
	b.grpc = code
	return b
}

// Message sets the English and Chinese messages.
func (b *ErrnoBuilder) Message(en, zh string) *ErrnoBuilder {
	b.messageEN = en
	b.messageZH = zh
	return b
}

// Build creates and registers the Errno.
// Fails when the English message is empty or the code is already taken.
func (b *ErrnoBuilder) Build() (*Errno, error) {
	if b.messageEN == "" {
		return nil, fmt.Errorf("english message is required")
	}

	e := &Errno{
		Code:      MakeCode(b.module, b.category, b.sequence),
		HTTP:      b.http,
		GRPCCode:  b.grpc,
		MessageEN: b.messageEN,
		MessageZH: b.messageZH,
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := registry[e.Code]; ok {
		return nil, fmt.Errorf("errno code %d already registered: %s", e.Code, existing.MessageEN)
	}
	registry[e.Code] = e
	return e, nil
}

// MustBuild creates and registers the Errno, panicking on failure.
func (b *ErrnoBuilder) MustBuild() *Errno {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// NewRequestErr registers a request/validation error (HTTP 400).
func NewRequestErr(module, sequence int, en, zh string) *Errno {
	return NewBuilder(module, CategoryRequest, sequence).
		HTTP(http.StatusBadRequest).
		GRPC(codes.InvalidArgument).
		Message(en, zh).
		MustBuild()
}

// NewPermissionErr registers an authorization error (HTTP 403).
func NewPermissionErr(module, sequence int, en, zh string) *Errno {
	return NewBuilder(module, CategoryPermission, sequence).
		HTTP(http.StatusForbidden).
		GRPC(codes.PermissionDenied).
		Message(en, zh).
		MustBuild()
}

// NewNotFoundErr registers a resource not found error (HTTP 404).
func NewNotFoundErr(module, sequence int, en, zh string) *Errno {
	return NewBuilder(module, CategoryResource, sequence).
		HTTP(http.StatusNotFound).
		GRPC(codes.NotFound).
		Message(en, zh).
		MustBuild()
}

// NewConflictErr registers a conflict error (HTTP 409).
func NewConflictErr(module, sequence int, en, zh string) *Errno {
	return NewBuilder(module, CategoryConflict, sequence).
		HTTP(http.StatusConflict).
		GRPC(codes.AlreadyExists).
		Message(en, zh).
		MustBuild()
}

// NewDatabaseErr registers a storage error (HTTP 500).
func NewDatabaseErr(module, sequence int, en, zh string) *Errno {
	return NewBuilder(module, CategoryDatabase, sequence).
		HTTP(http.StatusInternalServerError).
		GRPC(codes.Internal).
		Message(en, zh).
		MustBuild()
}

// NewInternalErr registers an internal error (HTTP 500).
func NewInternalErr(module, sequence int, en, zh string) *Errno {
	return NewBuilder(module, CategoryInternal, sequence).
		HTTP(http.StatusInternalServerError).
		GRPC(codes.Internal).
		Message(en, zh).
		MustBuild()
}
