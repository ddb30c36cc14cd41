package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"kind-match/internal/api/rest"
	"kind-match/internal/bot"
	"kind-match/internal/notify"
	"kind-match/internal/queue"
	"kind-match/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, HTTP API, notification worker and reconciler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return serve(cmd.Context(), migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before starting")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, migrate bool) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting kind-match",
		zap.String("version", version),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	c, err := build(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer c.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrate {
		if err := c.store.Migrate(ctx); err != nil {
			log.Error("migration failed", zap.Error(err))
			return err
		}
	}

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 4)
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error(name+" stopped with error", zap.Error(err))
				errs <- err
				stop()
			}
		}()
	}

	if cfg.TelegramToken != "" {
		log.Info("initializing Telegram bot...")
		tgBot, err := bot.New(cfg.TelegramToken, c.botContext(), log)
		if err != nil {
			log.Error("failed to create bot", zap.Error(err))
			return err
		}

		worker := queue.NewServer(c.redis, cfg.QueueConcurrency, map[string]int{notify.QueueName: 1}, log)
		notify.RegisterDelivery(worker, tgBot, log)

		run("bot", tgBot.Start)
		run("notification worker", worker.Run)
	} else {
		log.Warn("TELEGRAM_TOKEN is empty: bot is disabled, notifications are only logged")
	}

	if cfg.HTTPAddr != "" {
		api := rest.New(cfg.HTTPAddr, cfg.JWTSecret, c.restServices(), log)
		run("http api", api.Run)
	}

	reconciler := scheduler.New(c.applications, cfg.ReconcileInterval, log)
	run("reconciler", func(ctx context.Context) error {
		reconciler.Start(ctx)
		return nil
	})

	log.Info("kind-match is running, press Ctrl+C to stop")

	<-ctx.Done()
	log.Info("shutting down gracefully...")
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
		log.Info("stopped")
		return nil
	}
}
