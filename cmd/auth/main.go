package main

import (
	"context"
	"fmt"
	"os"

	authcleanup "github.com/AlibekovAA/refresh-token-service/internal/auth/cleanup"
	authhttp "github.com/AlibekovAA/refresh-token-service/internal/auth/http"
	"github.com/AlibekovAA/refresh-token-service/internal/common/bootstrap"
	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	commonhttp "github.com/AlibekovAA/refresh-token-service/internal/common/http"
	srv "github.com/AlibekovAA/refresh-token-service/internal/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	log := app.Log
	cfg := app.Config

	go authcleanup.StartRevokedSessionCleanup(ctx, app.Sessions, constants.RevokedCleanupInterval, log)
	go authcleanup.StartTokenStats(ctx, app.Tokens, constants.TokenStatsInterval, log)

	health := map[string]commonhttp.Pinger{}
	if app.Pool != nil {
		health["postgres"] = app.Pool
	}
	if app.Redis != nil {
		health["redis"] = commonhttp.PingFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	handler := authhttp.NewHandler(authhttp.Deps{
		Auth:   app.Auth,
		Tokens: app.RefreshTokens,
		Health: health,
		Log:    log,
	})

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort, cfg.RequestTimeout)
	server := srv.NewServer(serverConfig, commonhttp.BuildBaseHandler(log, handler, cfg.RequestTimeout))

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping background jobs")
			cancel()
			handler.Close()
			return nil
		},
	}

	if err := srv.Run(ctx, server, log, "auth", shutdownHooks...); err != nil {
		log.Errorf("auth service stopped with error: %v", err)
		app.Close()
		os.Exit(1)
	}
}
