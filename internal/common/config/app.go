package config

import (
	"sync"
	"time"
)

// Authentication is one named authentication configuration, the equivalent of a
// single entry in the global authentication configuration map.
type Authentication struct {
	Entity         string
	EntityID       string
	Service        string
	Secret         string
	AuthStrategies []string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	RefreshToken   *RefreshTokenSettings
}

// RefreshTokenSettings holds the refresh-token overrides nested under an
// authentication configuration. Zero values mean "use the default".
type RefreshTokenSettings struct {
	Service      string
	Entity       string
	EntityID     string
	Secret       string
	StrictUserID *bool
	JWTOptions   *JWTSettings
}

type JWTSettings struct {
	Type      string
	Audience  string
	Issuer    string
	Algorithm string
	ExpiresIn time.Duration
}

// App is the application-level registry of authentication configurations and
// mounted service names.
type App struct {
	mu             sync.RWMutex
	defaultAuth    string
	authentication map[string]Authentication
	services       map[string]struct{}
}

func NewApp() *App {
	return &App{
		authentication: make(map[string]Authentication),
		services:       make(map[string]struct{}),
	}
}

// SetAuthentication stores cfg under key. The first key stored becomes the
// default authentication key unless SetDefaultAuthentication overrides it.
func (a *App) SetAuthentication(key string, cfg Authentication) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authentication[key] = cfg
	if a.defaultAuth == "" {
		a.defaultAuth = key
	}
}

func (a *App) SetDefaultAuthentication(key string) {
	a.mu.Lock()
	a.defaultAuth = key
	a.mu.Unlock()
}

func (a *App) DefaultAuthentication() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.defaultAuth
}

func (a *App) Authentication(key string) (Authentication, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cfg, ok := a.authentication[key]
	return cfg, ok
}

func (a *App) RegisterService(name string) {
	a.mu.Lock()
	a.services[name] = struct{}{}
	a.mu.Unlock()
}

func (a *App) HasService(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.services[name]
	return ok
}
