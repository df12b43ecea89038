/*
Package main is the entry point for the OASIP command-line client.

It is responsible for loading configuration, initializing the global logging system,
opening the token store, restoring the session from the stored token, and dispatching
the requested command. An interrupt (SIGINT, SIGTERM) cancels the command in flight.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2/clientcredentials"

	"oasip/internal/app/api"
	"oasip/internal/app/session"
	"oasip/internal/app/storage"
	"oasip/internal/app/tokenstore"
	"oasip/internal/configs"
	"oasip/internal/handler"
	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/logx"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		return 1
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Debug().
		Str("environment", cfg.Environment).
		Str("api_url", cfg.APIURL).
		Str("token_store", cfg.TokenStore.Driver).
		Bool("aad_fallback", cfg.AADEnabled()).
		Bool("attachment_mirror", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, closeTokens, err := tokenstore.Open(ctx, cfg.TokenStoreConfig())
	if err != nil {
		logx.Error(err, "Failed to open token store")
		return 1
	}
	defer closeTokens()

	var opts []api.Option
	if cfg.AADEnabled() {
		cc := clientcredentials.Config{
			ClientID:     cfg.AAD.ClientID,
			ClientSecret: cfg.AAD.ClientSecret,
			TokenURL:     cfg.AADTokenURL(),
			Scopes:       cfg.AAD.Scopes,
		}
		opts = append(opts, api.WithTokenSource(cc.TokenSource(context.Background())))
	}

	client, err := api.New(cfg.APIConfig(), tokens, opts...)
	if err != nil {
		logx.Error(err, "Failed to create API client")
		return 1
	}
	defer client.Close()

	var storageService storage.StorageService
	if cfg.StorageEnabled() {
		if storageService, err = storage.NewStorageService(ctx, cfg.StorageConfig()); err != nil {
			logx.Error(err, "Failed to initialize attachment mirror")
			return 1
		}
	}

	registry := session.NewRegistry()
	provider := session.NewProvider(client, tokens, registry, cfg.SessionConfig())
	defer provider.Close()

	unsubscribe := provider.Store().Subscribe(func(s session.State) {
		email := ""
		if s.User != nil {
			email = s.User.Email
		}
		logx.Debug("Session state changed", "status", string(s.Status), "email", email)
	})
	defer unsubscribe()

	// A failing token store leaves an anonymous session; only cancellation stops here.
	if err := provider.Preload(ctx); err != nil {
		if errs.Is(err, errs.ErrTransport) {
			logx.Error(err, "Interrupted while restoring session")
			return 1
		}
		logx.Warn("Stored token unavailable, continuing signed out", "error", err.Error())
	}

	router := handler.NewRouter(&handler.AppDeps{
		Client:         client,
		Session:        provider,
		Registry:       registry,
		StorageService: storageService,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	})

	if err := router.Dispatch(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, handler.ErrUsage) {
			return 2
		}
		handler.RenderError(os.Stderr, err)
		return 1
	}
	return 0
}
