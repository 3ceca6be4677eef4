package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/simple404/internal/admin"
	"github.com/pandeptwidyaop/simple404/internal/auth"
	"github.com/pandeptwidyaop/simple404/internal/config"
	"github.com/pandeptwidyaop/simple404/internal/notfound"
	"github.com/pandeptwidyaop/simple404/internal/options"
	"github.com/pandeptwidyaop/simple404/internal/site"
	"github.com/pandeptwidyaop/simple404/internal/version"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site and the admin pages",
	Long: `Serve the static site, record every request that ends in a 404 and
expose the 404 log under /admin/.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func runServer(ctx context.Context) error {
	cfg, database, err := bootstrap()
	if err != nil {
		return err
	}

	info := version.GetVersion()
	logger.InfoEvent().
		Str("version", info.Version).
		Str("build_time", info.BuildDate).
		Str("git_commit", info.GitCommit).
		Msg("Starting simple404")

	store := options.NewGormStore(database)
	if err := options.Activate(ctx, store, cfg.NotFound.OptionName); err != nil {
		return err
	}

	users := auth.NewUserService(database)
	if cfg.Auth.AdminPassword != "" {
		if err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return err
		}
	} else {
		logger.WarnEvent().Msg("auth.admin_password is empty; no admin user was created from config")
	}
	if cfg.Auth.JWTSecret == "change-me-in-production" {
		logger.WarnEvent().Msg("auth.jwt_secret is the default value; set a random secret")
	}

	recorder := notfound.NewRecorder(store, cfg.NotFound.OptionName, recorderOptions(cfg.NotFound)...)
	renderer := notfound.NewRenderer(store, cfg.NotFound.OptionName, displayFormats(cfg.Display))

	fileServer, err := site.NewFileServer(site.Config{
		Root:          cfg.Server.SiteRoot,
		Custom404Path: cfg.Server.Custom404,
	})
	if err != nil {
		return fmt.Errorf("failed to setup site: %w", err)
	}

	adminHandler := admin.NewHandler(users, renderer, admin.Config{
		JWTSecret:         cfg.Auth.JWTSecret,
		TokenTTL:          cfg.Auth.TokenTTL,
		LoginRPS:          cfg.RateLimit.LoginRPS,
		LoginBurst:        cfg.RateLimit.LoginBurst,
		TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
		HTTPLogLevel:      cfg.Logging.HTTPLevel,
	})
	defer adminHandler.Close()

	mux := http.NewServeMux()
	mux.Handle("/admin/", adminHandler.Handler())
	mux.Handle("/", site.CaptureNotFound(fileServer, recorder, cfg.Server.ServerName))

	// display formats and log level follow the config file without a restart
	if _, statErr := os.Stat(configPath); statErr != nil {
		logger.DebugEvent().Str("path", configPath).Msg("No config file to watch; using defaults")
	} else if _, err := config.Watch(configPath, func(next *config.Config) {
		logger.SetLevel(next.Logging.Level)
		renderer.SetFormats(displayFormats(next.Display))
		logger.InfoEvent().Str("path", configPath).Msg("Configuration reloaded")
	}, func(err error) {
		logger.WarnEvent().Err(err).Msg("Ignoring invalid configuration change")
	}); err != nil {
		logger.WarnEvent().Err(err).Msg("Config watch disabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoEvent().
			Str("addr", httpServer.Addr).
			Str("site_root", cfg.Server.SiteRoot).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.InfoEvent().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorEvent().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	return nil
}
