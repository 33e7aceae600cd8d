package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yoruba-proverbs/internal/broadcast"
	"yoruba-proverbs/internal/httpapi"
	"yoruba-proverbs/internal/notify"
	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/ratelimit"
	"yoruba-proverbs/internal/redisclient"
	"yoruba-proverbs/internal/resend"
	"yoruba-proverbs/internal/subscription"
	"yoruba-proverbs/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the campaign scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		setupLogger(cfg.App.LogLevel)
		for _, w := range cfg.Warnings() {
			slog.Warn("config: " + w)
		}

		timeout, _ := time.ParseDuration(cfg.Resend.Timeout)
		client := resend.New(cfg.Resend.BaseURL, cfg.Resend.APIKey, timeout)

		proverbs, err := proverb.Load()
		if err != nil {
			return err
		}

		// Window store: in-process by default, Redis when replicas must
		// share quota.
		var store ratelimit.WindowStore
		if cfg.RateLimit.UseRedis {
			rdb := redisclient.New(cfg.Redis)
			defer rdb.Close()
			store = ratelimit.NewRedisStore(rdb)
			slog.Info("ratelimit: using redis window store", "addr", cfg.Redis.Addr)
		} else {
			store = ratelimit.NewMemoryStore()
		}
		window, _ := time.ParseDuration(cfg.RateLimit.Window)
		limiter := ratelimit.New(store, window, cfg.RateLimit.Limit)

		subs := subscription.NewManager(client, client, proverbs,
			cfg.Resend.AudienceID, cfg.Resend.From, cfg.App.BaseURL)
		broadcasts := broadcast.NewController(client, cfg.Resend.AudienceID, cfg.Resend.From)

		var notifier notify.Notifier
		if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
			notifier = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		}

		srv := &httpapi.Server{
			Addr:       fmt.Sprintf(":%d", cfg.App.Port),
			Subs:       subs,
			Broadcasts: broadcasts,
			Proverbs:   proverbs,
			Limiter:    limiter,
			Notifier:   notifier,
			AdminKey:   cfg.Admin.APIKey,
		}
		sched := &worker.CampaignScheduler{
			Broadcasts:     broadcasts,
			Sender:         client,
			Proverbs:       proverbs,
			From:           cfg.Resend.From,
			DailyRecipient: cfg.Resend.DailyRecipient,
			BaseURL:        cfg.App.BaseURL,
			Timezone:       cfg.Schedule.Timezone,
			WeeklySpec:     cfg.Schedule.WeeklySpec,
			DailySpec:      cfg.Schedule.DailySpec,
		}

		mgr := worker.NewManager(srv, sched)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
