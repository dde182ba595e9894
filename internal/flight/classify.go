package flight

import (
	"context"
	"errors"
	"net/http"
)

// ClassifyStatusCode maps a non-2xx provider response to a ProviderError so
// the cascade can pattern-match on the kind.
func ClassifyStatusCode(provider string, code int) *ProviderError {
	var kind ErrorKind
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = Unauthorized
	case code == http.StatusTooManyRequests:
		kind = RateLimited
	case code == http.StatusNotFound:
		kind = NoData
	default:
		kind = ServerError
	}
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: code}
}

// ClassifyTransport wraps a transport-level failure (deadline exceeded,
// connection reset, DNS). Caller cancellation is passed through untouched so
// the cascade can tell a dead client from a slow provider.
func ClassifyTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ProviderError{Provider: provider, Kind: Timeout, Err: err}
}
