package service

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/provider"
)

// providerError maps a provider failure to the client-facing error. Transport
// failures always become ProviderUnavailable; anything the provider actually
// answered goes through fallback.
func providerError(err error, fallback func(error) *apperrors.AppError) error {
	switch {
	case errors.Is(err, provider.ErrNotAuthenticated):
		return apperrors.NotAuthenticated()
	case errors.Is(err, provider.ErrUnavailable):
		return apperrors.ProviderUnavailable(err)
	case errors.Is(err, provider.ErrExchange):
		return apperrors.AuthExchange(err)
	}
	return fallback(err)
}

// readFailure is the fallback for catalog reads. A rejected bearer token means
// the session is no longer usable.
func readFailure(name model.Provider) func(error) *apperrors.AppError {
	return func(err error) *apperrors.AppError {
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return apperrors.NotAuthenticated()
		}
		return apperrors.External(string(name), err)
	}
}

func registryError(name model.Provider, err error) error {
	if errors.Is(err, provider.ErrNotConfigured) {
		return apperrors.ProviderNotConfigured(string(name))
	}
	return apperrors.InvalidInput("provider", fmt.Sprintf("unknown provider %q", name))
}
