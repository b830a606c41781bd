package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/refresh-token-service/internal/common/config"
	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

const (
	defaultEntity   = "refreshToken"
	defaultSecret   = "supersecret"
	defaultTokenTyp = "refresh"
	defaultAudience = "https://example.com"
	defaultIssuer   = "example"
	defaultAlg      = "HS256"
	defaultEntityID = "id"
)

// Options is the effective refresh-token configuration.
type Options struct {
	Service      string     `validate:"required"`
	Entity       string     `validate:"required"`
	AuthService  string     `validate:"required"`
	UserEntity   string     `validate:"required"`
	UserEntityID string     `validate:"required"`
	EntityID     string     `validate:"required,oneof=id _id"`
	Secret       string     `validate:"required"`
	JWTOptions   JWTOptions `validate:"required"`
	StrictUserID bool
}

type JWTOptions struct {
	Header    JWTHeader
	Audience  string
	Issuer    string
	Algorithm string        `validate:"required,oneof=HS256 HS384 HS512"`
	ExpiresIn time.Duration `validate:"gt=0"`
}

type JWTHeader struct {
	Typ string
}

func DefaultOptions() Options {
	return Options{
		Service:      constants.RefreshTokenServiceName,
		Entity:       defaultEntity,
		Secret:       defaultSecret,
		EntityID:     defaultEntityID,
		StrictUserID: true,
		JWTOptions:   defaultJWTOptions(),
	}
}

func defaultJWTOptions() JWTOptions {
	return JWTOptions{
		Header:    JWTHeader{Typ: defaultTokenTyp},
		Audience:  defaultAudience,
		Issuer:    defaultIssuer,
		Algorithm: defaultAlg,
		ExpiresIn: constants.DefaultRefreshTokenTTL,
	}
}

// AppContext is the application the resolver reads its configuration from.
type AppContext interface {
	DefaultAuthentication() string
	Authentication(key string) (config.Authentication, bool)
	HasService(name string) bool
}

// ConfigResolver derives Options from the application's default
// authentication configuration once and caches the result until Reset.
type ConfigResolver struct {
	app      AppContext
	validate *validator.Validate
	log      *logger.Logger

	mu     sync.Mutex
	cached *Options
}

func NewConfigResolver(app AppContext, log *logger.Logger) *ConfigResolver {
	if log == nil {
		log = logger.Discard()
	}
	return &ConfigResolver{
		app:      app,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Options resolves against the application the resolver was built with.
func (r *ConfigResolver) Options() (Options, error) {
	return r.Resolve(r.app)
}

func (r *ConfigResolver) Resolve(app AppContext) (Options, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return *r.cached, nil
	}

	opts, err := r.resolve(app)
	if err != nil {
		return Options{}, err
	}
	r.cached = &opts
	return opts, nil
}

// Reset drops the cached options; the next Resolve reads the configuration again.
func (r *ConfigResolver) Reset() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

func (r *ConfigResolver) resolve(app AppContext) (Options, error) {
	if app == nil {
		return Options{}, ErrConfiguration.WithMessage("application context is not set")
	}

	key := app.DefaultAuthentication()
	if key == "" {
		return Options{}, ErrConfiguration.WithMessage("no default authentication key is set")
	}

	auth, ok := app.Authentication(key)
	if !ok {
		return Options{}, ErrConfiguration.WithMessage(fmt.Sprintf("authentication configuration %q is missing", key))
	}

	if auth.Entity == "" {
		return Options{}, ErrConfiguration.WithMessage("authentication user entity is not configured")
	}

	opts := mergeOptions(DefaultOptions(), auth.RefreshToken)
	opts.AuthService = key
	opts.UserEntity = auth.Entity
	opts.UserEntityID = auth.EntityID
	if opts.UserEntityID == "" {
		opts.UserEntityID = opts.EntityID
	}

	if !app.HasService(opts.Service) {
		return Options{}, ErrConfiguration.WithMessage(fmt.Sprintf("refresh token service %q is not registered", opts.Service))
	}

	if err := r.validate.Struct(opts); err != nil {
		return Options{}, ErrConfiguration.WithMessage(describeValidation(err)).WithCause(err)
	}

	if auth.Secret != "" && opts.Secret == auth.Secret {
		return Options{}, ErrConfiguration.WithMessage("refresh token secret must differ from the access token secret")
	}

	if opts.Secret == defaultSecret {
		r.log.WithFields(context.Background(), logger.Fields{
			"service": opts.Service,
			"action":  "refresh_token_default_secret",
		}).Warn("refresh tokens are signed with the default secret")
	}

	r.log.WithFields(context.Background(), logger.Fields{
		"service":        opts.Service,
		"entity":         opts.Entity,
		"auth_service":   opts.AuthService,
		"user_entity":    opts.UserEntity,
		"user_entity_id": opts.UserEntityID,
		"algorithm":      opts.JWTOptions.Algorithm,
		"expires_in":     opts.JWTOptions.ExpiresIn.String(),
		"strict_user_id": opts.StrictUserID,
		"action":         "refresh_token_config_resolved",
	}).Info("refresh token configuration resolved")

	return opts, nil
}

// mergeOptions applies the loaded settings over the defaults. Set fields win;
// a JWT options block replaces the default block whole.
func mergeOptions(opts Options, loaded *config.RefreshTokenSettings) Options {
	if loaded == nil {
		return opts
	}
	if loaded.Service != "" {
		opts.Service = loaded.Service
	}
	if loaded.Entity != "" {
		opts.Entity = loaded.Entity
	}
	if loaded.EntityID != "" {
		opts.EntityID = loaded.EntityID
	}
	if loaded.Secret != "" {
		opts.Secret = loaded.Secret
	}
	if loaded.StrictUserID != nil {
		opts.StrictUserID = *loaded.StrictUserID
	}
	if loaded.JWTOptions != nil {
		opts.JWTOptions = JWTOptions{
			Header:    JWTHeader{Typ: loaded.JWTOptions.Type},
			Audience:  loaded.JWTOptions.Audience,
			Issuer:    loaded.JWTOptions.Issuer,
			Algorithm: loaded.JWTOptions.Algorithm,
			ExpiresIn: loaded.JWTOptions.ExpiresIn,
		}
	}
	return opts
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return "invalid refresh token options: " + strings.Join(parts, ", ")
}
