package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// ErrnoBuilder provides a fluent API for building error codes.
//
// Example:
//
//	var ErrOrderGatewayDown = errors.NewBuilder(errors.ServiceBootstrap, errors.CategoryInternal, 9).
//	    HTTP(http.StatusServiceUnavailable).
//	    GRPC(codes.Unavailable).
//	    Message("Order gateway unavailable", "订单网关不可用").
//	    MustBuild()
type ErrnoBuilder struct {
	service   int
	category  int
	sequence  int
	http      int
	grpc      codes.Code
	messageEN string
	messageZH string
}

// NewBuilder creates a new ErrnoBuilder with the given service, category, and sequence.
func NewBuilder(service, category, sequence int) *ErrnoBuilder {
	return &ErrnoBuilder{
		service:  service,
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

// Message sets both English and Chinese messages.
func (b *ErrnoBuilder) Message(en, zh string) *ErrnoBuilder {
	b.messageEN = en
	b.messageZH = zh
	return b
}

// Build validates the builder and returns an unregistered Errno.
func (b *ErrnoBuilder) Build() (*Errno, error) {
	parts := []struct {
		name     string
		val, max int
	}{
		{"service", b.service, 99},
		{"category", b.category, 99},
		{"sequence", b.sequence, 999},
	}
	for _, p := range parts {
		if p.val < 0 || p.val > p.max {
			return nil, fmt.Errorf("%s code %d out of range [0, %d]", p.name, p.val, p.max)
		}
	}
	if b.messageEN == "" {
		return nil, fmt.Errorf("errno %d: english message is required", MakeCode(b.service, b.category, b.sequence))
	}
	return &Errno{
		Code:      MakeCode(b.service, b.category, b.sequence),
		HTTP:      b.http,
		GRPCCode:  b.grpc,
		MessageEN: b.messageEN,
		MessageZH: b.messageZH,
	}, nil
}

// MustBuild builds and registers the Errno, panicking on any error.
func (b *ErrnoBuilder) MustBuild() *Errno {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return Register(e)
}

// NewConfigError creates a builder for configuration errors. They surface
// as FailedPrecondition because the process cannot start until the file is
// fixed.
func NewConfigError(service, sequence int) *ErrnoBuilder {
	return NewBuilder(service, CategoryConfig, sequence).
		HTTP(http.StatusInternalServerError).
		GRPC(codes.FailedPrecondition)
}

// NewInternalError creates a builder for internal errors (HTTP 500).
func NewInternalError(service, sequence int) *ErrnoBuilder {
	return NewBuilder(service, CategoryInternal, sequence).
		HTTP(http.StatusInternalServerError).
		GRPC(codes.Internal)
}

// NewTimeoutError creates a builder for readiness and shutdown deadlines.
func NewTimeoutError(service, sequence int) *ErrnoBuilder {
	return NewBuilder(service, CategoryTimeout, sequence).
		HTTP(http.StatusGatewayTimeout).
		GRPC(codes.DeadlineExceeded)
}
