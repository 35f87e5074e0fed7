package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/datashare"
	"github.com/sagarc03/datashare/config"
	datasharehttp "github.com/sagarc03/datashare/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the datashare HTTP API.`,
	RunE:  runServe,
}

var serveMigrate bool

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default: 8080, env: DATASHARE_SERVER_PORT)")
	serveCmd.Flags().String("public-url", "", "externally reachable server URL (env: DATASHARE_SERVER_PUBLIC_URL)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create missing tables before serving")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	codec, err := datashare.NewCredentialCodec(datashare.CredentialConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.JWTIssuer,
	})
	if err != nil {
		return fmt.Errorf("auth.jwt_secret: %w", err)
	}

	a, err := openApp(ctx, cfg, serveMigrate)
	if err != nil {
		return err
	}
	defer a.Close()

	auth, err := datashare.NewAuthService(a.repo, codec, datashare.AuthConfig{
		CredentialTTL: cfg.Auth.JWTTTL,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	handler := datasharehttp.NewHandler(&datasharehttp.HandlerConfig{
		CORS: cfg.CORS,
		Cookie: datasharehttp.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
			MaxAge: cfg.Auth.JWTTTL,
		},
		Objects:   a.backend.Handler,
		AccessLog: cfg.Server.AccessLog,
	}, auth, a.files)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	slog.Info("starting server",
		"addr", addr,
		"public_url", cfg.Server.PublicURL,
		"database", cfg.Database.Type,
		"storage", cfg.Storage.Driver,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
