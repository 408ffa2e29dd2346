package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Pharaon3/bark-automation/internal/httpapi"
	"github.com/Pharaon3/bark-automation/internal/scheduler"
)

var (
	runInterval time.Duration
	runServe    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the mailbox now and then on every interval",
	Long: `Runs the pipeline immediately and then once per schedule.interval_secs
until interrupted. Only one engine may run per data dir. With --serve (or
server.enabled) a local HTTP API exposes status, runs, leads, events and
metrics.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "poll interval (default from config)")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "start the HTTP API (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "run"))

	unlock, err := scheduler.Lock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck

	e, err := newEngine(ctx, *cfg)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	interval := runInterval
	if interval <= 0 {
		interval = time.Duration(cfg.Schedule.IntervalSecs) * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler.Every(gctx, interval, "bark-poll", func(ctx context.Context) error {
			// a started run finishes even after a stop signal
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runTimeout)
			defer cancel()
			_, err := e.RunOnce(rctx)
			if errors.Is(err, errBusy) {
				log.Info("skipping tick; a run is in progress")
				return nil
			}
			return err
		})
		return nil
	})

	if runServe || cfg.Server.Enabled {
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpapi.NewRouter(e.httpDeps(userConfigPath())),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("engine listening", zap.String("addr", "http://"+cfg.Server.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "engine: http server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	log.Info("engine started", zap.Duration("interval", interval), zap.String("data_dir", cfg.App.DataDir))
	err = g.Wait()
	log.Info("engine stopped")
	return err
}

// userConfigPath is where config edits made through the API are saved.
func userConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return cfg.ConfigPath()
}
