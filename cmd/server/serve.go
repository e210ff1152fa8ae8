package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/analysis"
	"github.com/richdownie/healthme/internal/api"
	"github.com/richdownie/healthme/internal/auth"
	"github.com/richdownie/healthme/internal/config"
	"github.com/richdownie/healthme/internal/session"
	"github.com/richdownie/healthme/internal/storage"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionSweep    = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withStore(ctx, cfg, logger, func(store storage.Store) error {
			return serve(ctx, cfg, store, logger)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, store storage.Store, logger internal.Logger) error {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := session.NewStore(cfg.SessionTTL, sessionSweep, logger)
	defer sessions.Close()

	provider, err := newAuthProvider(cfg, store, logger)
	if err != nil {
		return err
	}

	app := api.NewApp(api.Deps{
		Logger:   logger,
		Store:    store,
		Gateway:  analysis.New(cfg.AnalysisEnabled, cfg.AnalysisConfig(), logger),
		Sessions: sessions,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      withCORS(cfg.CORSOrigins, api.NewRouter(app, provider)),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.DietTipsTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server: listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func newAuthProvider(cfg *config.Config, users storage.UserRepository, logger internal.Logger) (auth.Provider, error) {
	switch cfg.AuthMode {
	case config.AuthLocal:
		return auth.NewLocalAuthProvider(cfg.AuthToken, users, logger), nil
	case config.AuthRemote:
		return auth.NewRemoteAuthProvider(cfg.AuthServiceURL, users, logger), nil
	case config.AuthJWT:
		return auth.NewJWTAuthProvider(cfg.JWTSecret, users, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// withCORS allows any origin when none are configured; credentials are only
// allowed for an explicit origin list.
func withCORS(origins []string, h http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", session.HeaderName, "X-Request-ID"},
		ExposedHeaders:   []string{session.HeaderName, "X-Request-ID"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.Handler(opts)(h)
}
