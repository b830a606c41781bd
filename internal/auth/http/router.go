package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlibekovAA/refresh-token-service/internal/auth/service"
	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	commonhttp "github.com/AlibekovAA/refresh-token-service/internal/common/http"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

type authenticationRequest struct {
	Strategy    string `json:"strategy" validate:"required,max=32"`
	Username    string `json:"username,omitempty" validate:"omitempty,max=64"`
	Password    string `json:"password,omitempty" validate:"omitempty,max=128"`
	AccessToken string `json:"accessToken,omitempty" validate:"omitempty,max=4096"`
	DeviceID    string `json:"deviceId,omitempty" validate:"omitempty,max=128"`
	Location    string `json:"location,omitempty" validate:"omitempty,max=256"`
}

func (r authenticationRequest) toAuthRequest() service.AuthRequest {
	req := service.AuthRequest{"strategy": r.Strategy}
	for key, value := range map[string]string{
		"username":    r.Username,
		"password":    r.Password,
		"accessToken": r.AccessToken,
		"deviceId":    r.DeviceID,
		"location":    r.Location,
	} {
		if value != "" {
			req[key] = value
		}
	}
	return req
}

type Deps struct {
	Auth   *service.AuthenticationService
	Tokens *service.RefreshTokenService
	Health map[string]commonhttp.Pinger
	Log    *logger.Logger
}

type Handler struct {
	auth           *service.AuthenticationService
	tokens         *service.RefreshTokenService
	errors         *commonhttp.ErrorHandler
	authLimiter    *commonhttp.RateLimiter
	refreshLimiter *commonhttp.RateLimiter
	mux            *http.ServeMux
	log            *logger.Logger
}

func NewHandler(deps Deps) *Handler {
	h := &Handler{
		auth:   deps.Auth,
		tokens: deps.Tokens,
		errors: commonhttp.NewErrorHandler(deps.Log),
		authLimiter: commonhttp.NewRateLimiter(
			"authentication",
			constants.RateLimitAuthRequestsPerSecond,
			constants.RateLimitAuthBurst,
			constants.RateLimitCleanupInterval,
		),
		refreshLimiter: commonhttp.NewRateLimiter(
			"refresh",
			constants.RateLimitRefreshRequestsPerSecond,
			constants.RateLimitRefreshBurst,
			constants.RateLimitCleanupInterval,
		),
		mux: http.NewServeMux(),
		log: deps.Log,
	}

	h.mux.HandleFunc("GET /health", commonhttp.HealthHandler(deps.Log, deps.Health))
	h.mux.Handle("GET /metrics", promhttp.Handler())

	h.mux.Handle("POST /api/auth/authentication", h.authLimiter.Middleware(http.HandlerFunc(h.authenticate)))

	h.mux.Handle("POST /api/auth/refresh-tokens", h.refreshLimiter.Middleware(http.HandlerFunc(h.refresh)))
	h.mux.HandleFunc("GET /api/auth/refresh-tokens", h.list)
	h.mux.HandleFunc("PATCH /api/auth/refresh-tokens", h.revoke)
	h.mux.HandleFunc("PATCH /api/auth/refresh-tokens/{id}", h.revoke)
	h.mux.HandleFunc("DELETE /api/auth/refresh-tokens/{id}", h.logout)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Close stops the rate limiter cleanup loops.
func (h *Handler) Close() {
	h.authLimiter.Stop()
	h.refreshLimiter.Stop()
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticationRequest
	if !commonhttp.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.auth.Create(r.Context(), req.toAuthRequest(), service.Params{External: true})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	result, err := h.tokens.Create(r.Context(), data, h.params(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.tokens.Find(r.Context(), h.params(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	result, err := h.tokens.Patch(r.Context(), r.PathValue("id"), data, h.params(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	result, err := h.tokens.Remove(r.Context(), r.PathValue("id"), h.params(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := commonhttp.DecodeJSON(r, &data); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"path":   r.URL.Path,
			"action": "invalid_json",
		}).Warnf("invalid json body: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json body", nil, commonhttp.TraceIDFromContext(r.Context()))
		return nil, false
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, true
}

// params marks the call external and carries the query string and any bearer
// credentials the registered strategies recognise.
func (h *Handler) params(r *http.Request) service.Params {
	params := service.Params{External: true}

	if values := r.URL.Query(); len(values) > 0 {
		params.Query = make(map[string]any, len(values))
		for key := range values {
			params.Query[key] = values.Get(key)
		}
	}

	if auth, ok := h.auth.Parse(r); ok {
		params.Authentication = auth
	}
	return params
}
