package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind separates failures the caller reacts to differently.
type Kind int

const (
	// KindService is any failure that is neither configuration nor transient.
	KindService Kind = iota
	// KindConfig means the credential is missing or rejected. Retrying will not help.
	KindConfig
	// KindTransient covers network errors, timeouts, rate limits and 5xx responses.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransient:
		return "transient"
	default:
		return "service"
	}
}

var (
	ErrMissingAPIKey = errors.New("api key is not configured")
	ErrEmptyResponse = errors.New("empty response from model")
)

type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (http %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err. Errors that are not *Error count as KindService.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return KindService
}

func configError(provider string, err error) *Error {
	return &Error{Kind: KindConfig, Provider: provider, Err: err}
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindConfig
	case code == http.StatusRequestTimeout,
		code == http.StatusTooManyRequests,
		code >= http.StatusInternalServerError:
		return KindTransient
	default:
		return KindService
	}
}

func statusError(provider string, code int, err error) *Error {
	return &Error{Kind: kindForStatus(code), Provider: provider, StatusCode: code, Err: err}
}

// wrapError classifies errors that carry no HTTP status.
func wrapError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var aiErr *Error
	if errors.As(err, &aiErr) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: KindTransient, Provider: provider, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransient, Provider: provider, Err: err}
	}

	return &Error{Kind: KindService, Provider: provider, Err: err}
}
