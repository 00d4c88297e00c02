package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

var (
	ErrNotAuthenticated = errors.New("provider: missing access token")
	ErrUnavailable      = errors.New("provider: unavailable")
	ErrExchange         = errors.New("provider: token exchange failed")
	ErrUnknownProvider  = errors.New("provider: unknown provider")
	ErrNotConfigured    = errors.New("provider: not configured")
)

// APIError is a non-success answer from a provider endpoint.
type APIError struct {
	Provider model.Provider
	Op       string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Op, e.Status, e.Message)
}

// isTransport reports failures where the provider never answered.
func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func unavailable(name model.Provider, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, name, op, err)
}

func exchangeFailed(name model.Provider, err error) error {
	if isTransport(err) {
		return unavailable(name, "token exchange", err)
	}
	return fmt.Errorf("%w: %s: %v", ErrExchange, name, err)
}
