package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/api"
	"github.com/sells-group/underwriter/internal/cache"
	"github.com/sells-group/underwriter/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the underwriting HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve", envOptions{store: true, cache: true})
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.Store)
		checker := monitoring.NewChecker(collector, monitoring.NewAlerter(cfg.Monitoring), env.Metrics, cfg.Monitoring)
		go checker.Run(ctx)

		handler := api.NewRouter(buildDeps(env, collector))
		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port))
	},
}

func buildDeps(env *appEnv, collector *monitoring.Collector) api.Deps {
	d := api.Deps{
		Scorer:             env.Scorer,
		Committee:          env.Committee,
		Workflow:           env.Workflow,
		Valuation:          env.Valuation,
		Metrics:            env.Metrics,
		Gatherer:           env.Registry,
		CORSOrigins:        cfg.Server.CORSOrigins,
		StatsLookbackHours: cfg.Monitoring.LookbackWindowHours,
	}
	if env.Store != nil {
		d.Runs = env.Store
		d.Stats = collector
	}
	if env.Cache != nil {
		d.Reviews = cache.NewReviewCache(env.Cache, time.Duration(cfg.Cache.ReviewTTLSecs)*time.Second)
		d.Tokens = cache.NewTokenStore(env.Cache, time.Duration(cfg.Cache.TokenTTLSecs)*time.Second)
	}
	return d
}

// resolvePort prefers the --port flag over config.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer serves handler on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
