package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrAuth            = errors.New("llm authentication failed")
	ErrRateLimit       = errors.New("llm rate limited")
	ErrTransient       = errors.New("llm transient failure")
	ErrInvalidResponse = errors.New("llm invalid response")
)

var errEmpty = errors.New("empty completion")

type Kind int

const (
	KindInvalidResponse Kind = iota
	KindAuth
	KindRateLimit
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindTransient:
		return "transient"
	}
	return "invalid_response"
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindRateLimit:
		return ErrRateLimit
	case KindTransient:
		return ErrTransient
	}
	return ErrInvalidResponse
}

// Error is a classified backend failure
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

// KindOf returns the kind of a classified error; unclassified errors count as invalid responses
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalidResponse
}

// kindForStatus maps an HTTP status from a provider API to an error kind
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusRequestTimeout, status == 529, status >= 500:
		return KindTransient
	}
	return KindInvalidResponse
}

// isTransport reports errors raised below the HTTP layer
func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify wraps err from provider given the HTTP status it reported, if any.
// Cancellation is passed through unchanged.
func classify(provider string, status int, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if status != 0 {
		return &Error{Kind: kindForStatus(status), Provider: provider, StatusCode: status, Err: err}
	}
	if isTransport(err) {
		return &Error{Kind: KindTransient, Provider: provider, Err: err}
	}
	return &Error{Kind: KindInvalidResponse, Provider: provider, Err: err}
}

// classifyMessage guesses the kind from an error string, for backends that
// do not expose status codes
func classifyMessage(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if isTransport(err) {
		return &Error{Kind: KindTransient, Provider: provider, Err: err}
	}
	msg := strings.ToLower(err.Error())
	kind := KindInvalidResponse
	switch {
	case containsAny(msg, "401", "403", "unauthorized", "forbidden", "invalid api key", "invalid x-api-key", "authentication"):
		kind = KindAuth
	case containsAny(msg, "429", "rate limit", "rate_limit", "too many requests", "quota"):
		kind = KindRateLimit
	case containsAny(msg, "500", "502", "503", "504", "529", "overloaded", "timeout", "connection refused", "connection reset", "unavailable", "eof"):
		kind = KindTransient
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
