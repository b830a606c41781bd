package server

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
)

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultServerConfig listens on port; requestTimeout widens the read and
// write timeouts when handlers are allowed to run longer than the defaults.
func DefaultServerConfig(port string, requestTimeout time.Duration) ServerConfig {
	cfg := ServerConfig{
		Addr:              ":" + port,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      constants.ServerWriteTimeout,
		IdleTimeout:       constants.ServerIdleTimeout,
	}
	if requestTimeout > cfg.WriteTimeout {
		cfg.WriteTimeout = requestTimeout + time.Second
	}
	if requestTimeout > cfg.ReadTimeout {
		cfg.ReadTimeout = requestTimeout
	}
	return cfg
}

func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
