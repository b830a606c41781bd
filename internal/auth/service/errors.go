package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/refresh-token-service/internal/common/errors"
)

var (
	ErrConfiguration = commonerrors.NewDomainError(
		"REFRESH_TOKEN_CONFIGURATION",
		commonerrors.CategoryConfiguration,
		http.StatusInternalServerError,
		"refresh token configuration is invalid",
	)

	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)

	ErrNotAuthenticated = commonerrors.NewDomainError(
		"NOT_AUTHENTICATED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"not authenticated",
	)

	ErrInvalidToken = commonerrors.ErrInvalidToken

	ErrNotFound = commonerrors.NewDomainError(
		"REFRESH_TOKEN_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"refresh token not found",
	)

	ErrMissingUserID = commonerrors.NewDomainError(
		"MISSING_USER_ID",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"could not find user id in authentication result",
	)

	ErrHookMisuse = commonerrors.NewDomainError(
		"HOOK_MISUSE",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"hook registered on the wrong method or phase",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)
