package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/geeklurk/lurkgate/api"
	"github.com/geeklurk/lurkgate/internal/config"
	"github.com/geeklurk/lurkgate/internal/secret"
	bboltstorage "github.com/geeklurk/lurkgate/storage/bbolt"
)

var (
	configPath string
	listenAddr string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		// The password may come from the environment so it stays out of
		// the config file on shared machines.
		if env := os.Getenv("LURKGATE_ADMIN_PASSWORD"); env != "" && cfg.Admin.PasswordHash == "" {
			cfg.Admin.Password = env
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		creds, err := secret.New(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.PasswordHash)
		if err != nil {
			return fmt.Errorf("loading admin credentials: %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		store, err := bboltstorage.NewStoreFromFile(filepath.Join(cfg.DataDir, "lurkgate.db"), nil)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		opts := []api.Option{api.WithLogger(logger)}
		var persistent *api.PersistentSessionStore
		if cfg.PersistSessions {
			persistent = api.NewPersistentSessionStore(store)
			opts = append(opts, api.WithSessionStore(persistent))
		}

		a := api.New(cfg, store, creds, opts...)
		defer a.Close()
		if persistent != nil {
			defer persistent.Close()
		}

		r := chi.NewRouter()
		r.Use(middleware.RealIP)
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(api.SecurityHeaders)
		r.Use(api.MetricsMiddleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Handle("/metrics", promhttp.Handler())

		r.Mount("/", a.Guard(a.Router()))

		server := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			// Multipart writeup uploads can take a while on slow links.
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		logger.Info("gateway listening",
			"addr", cfg.ListenAddr,
			"site", cfg.Site,
			"data_dir", cfg.DataDir,
			"persist_sessions", cfg.PersistSessions,
		)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&configPath, "config", "c", "lurkgate.toml", "Path to the TOML config file")
	serverCmd.Flags().StringVar(&listenAddr, "listen", "", "Override the configured listen address")
}
