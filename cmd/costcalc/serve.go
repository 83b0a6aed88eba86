package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/costcalc/internal/alerting"
	"github.com/bher20/costcalc/internal/api"
	"github.com/bher20/costcalc/internal/auth"
	"github.com/bher20/costcalc/internal/catalog"
	"github.com/bher20/costcalc/internal/config"
	"github.com/bher20/costcalc/internal/cron"
	"github.com/bher20/costcalc/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Run the HTTP API, web UI and metrics endpoint. The dataset is loaded once
at start-up; the process exits if that load fails.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// poolStatser is implemented by storage backends with a connection pool.
type poolStatser interface {
	Stats() (string, sql.DBStats, error)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	authSvc, err := auth.NewService(st)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	if err := authSvc.EnsureToken(ctx, "bootstrap", auth.RoleAdmin, cfg.BootstrapToken); err != nil {
		return fmt.Errorf("bootstrap token: %w", err)
	}

	svc := catalog.NewServiceWithStorage(catalog.Config{Source: cfg.DatasetSource}, st)
	if _, err := svc.Load(ctx); err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}

	if cfg.RefreshSchedule != "" {
		alerter := alerting.NewAlerter(alertConfig(cfg))
		go func() {
			if err := cron.RunRefresher(ctx, svc, st, alerter, cfg.RefreshSchedule); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("serve: refresh worker stopped: %v", err)
			}
		}()
	}

	if ps, ok := st.(poolStatser); ok {
		go reportPoolStats(ctx, ps)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(svc, st, authSvc).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("serve: shutdown: %v", err)
		}
	}()

	log.Printf("costcalc listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func alertConfig(cfg config.Config) alerting.AlertConfig {
	return alerting.AlertConfig{
		WebhookURL:             cfg.Alerts.WebhookURL,
		WebhookType:            cfg.Alerts.WebhookType,
		MinFailuresBeforeAlert: cfg.Alerts.MinFailures,
	}
}

func reportPoolStats(ctx context.Context, ps poolStatser) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		driver, stats, err := ps.Stats()
		if err != nil {
			log.Printf("serve: db pool stats: %v", err)
		} else {
			metrics.UpdateDBPoolMetrics(driver, stats)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
