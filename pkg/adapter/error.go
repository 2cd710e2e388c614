package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies adapter failures.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindConfiguration
	KindUnsupportedProvider
	KindUnsupportedOperation
)

// Sentinels usable with errors.Is against any *AdapterError of the matching kind.
var (
	ErrUpstream             = errors.New("upstream error")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrUnsupportedProvider  = errors.New("unsupported provider")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindUnsupportedProvider:
		return "unsupported_provider"
	case KindUnsupportedOperation:
		return "unsupported_operation"
	default:
		return "upstream"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConfiguration:
		return ErrConfiguration
	case KindUnsupportedProvider:
		return ErrUnsupportedProvider
	case KindUnsupportedOperation:
		return ErrUnsupportedOperation
	default:
		return ErrUpstream
	}
}

// AdapterError wraps provider errors with status metadata.
type AdapterError struct {
	Kind      Kind
	Provider  string
	Status    int
	Body      string
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s adapter error (status=%d)", e.Provider, e.Status)
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *AdapterError) Is(target error) bool {
	if e == nil {
		return false
	}
	return target == e.Kind.sentinel()
}

// NewError builds an AdapterError of the given kind with a formatted message.
func NewError(kind Kind, provider, format string, args ...any) *AdapterError {
	return newError(kind, provider, format, args...)
}

func newError(kind Kind, provider, format string, args ...any) *AdapterError {
	msg := fmt.Sprintf(format, args...)
	if provider != "" {
		msg = provider + ": " + msg
	}
	return &AdapterError{Kind: kind, Provider: provider, Err: errors.New(msg)}
}

func unsupported(provider, what string) *AdapterError {
	return newError(KindUnsupportedOperation, provider, "%s is not supported", what)
}

// upstreamStatusError reports a non-success response from the provider.
func upstreamStatusError(provider string, status int, body []byte) *AdapterError {
	return &AdapterError{
		Kind:     KindUpstream,
		Provider: provider,
		Status:   status,
		Body:     string(body),
		Err:      fmt.Errorf("%s API error (%d): %s", provider, status, body),
	}
}

// upstreamTransportError reports a failure before a response was received.
func upstreamTransportError(provider string, err error) *AdapterError {
	return &AdapterError{
		Kind:      KindUpstream,
		Provider:  provider,
		Temporary: true,
		Err:       fmt.Errorf("%s request failed: %w", provider, err),
	}
}

// upstreamDecodeError reports a success response whose body has an unexpected shape.
func upstreamDecodeError(provider string, err error) *AdapterError {
	return &AdapterError{
		Kind:     KindUpstream,
		Provider: provider,
		Err:      fmt.Errorf("%s: failed to parse response: %w", provider, err),
	}
}

// KindOf returns the kind of an adapter error and whether err carried one.
func KindOf(err error) (Kind, bool) {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Kind, true
	}
	return KindUpstream, false
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		if adapterErr.Kind != KindUpstream {
			return false
		}
		if adapterErr.Temporary {
			return true
		}
		if adapterErr.Status == 429 || (adapterErr.Status >= 500 && adapterErr.Status <= 599) {
			return true
		}
	}
	return false
}
