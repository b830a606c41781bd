package service

import (
	"errors"
	"fmt"
	"net/http"

	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	commonerrors "github.com/AlibekovAA/refresh-token-service/internal/common/errors"
)

// handleStoreError maps store failures onto the service taxonomy. Domain
// errors pass through untouched.
func handleStoreError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
		return ErrNotFound.WithCause(err)
	}
	if commonerrors.IsDomainError(err) {
		return err
	}
	return commonerrors.ErrInternalError.WithCause(fmt.Errorf("%s: %w", operation, err))
}

func missingField(field string) error {
	return ErrValidation.WithMessage(fmt.Sprintf("%s is missing from request", field))
}

func newInternalError(code, message string, cause error) commonerrors.DomainError {
	err := commonerrors.NewDomainError(
		code,
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		message,
	)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
