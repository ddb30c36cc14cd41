package main

import (
	"fmt"

	"kind-match/internal/api/listings"
	"kind-match/internal/api/rest"
	"kind-match/internal/applications"
	"kind-match/internal/bot/handlers"
	"kind-match/internal/config"
	"kind-match/internal/conversations"
	"kind-match/internal/credits"
	"kind-match/internal/feed"
	"kind-match/internal/interactions"
	"kind-match/internal/matches"
	"kind-match/internal/notify"
	"kind-match/internal/queue"
	"kind-match/internal/storage/postgres"
	"kind-match/internal/storage/redis"

	"go.uber.org/zap"
)

// components holds every long-lived dependency of the process.
type components struct {
	cfg   *config.Config
	log   *zap.Logger
	store *postgres.Store
	cache *redis.Cache
	queue *queue.AsynqClient
	redis queue.RedisOptions

	credits       *credits.Gate
	feed          *feed.Service
	applications  *applications.Lifecycle
	matches       *matches.Coordinator
	conversations *conversations.Broker
}

func build(cfg *config.Config, log *zap.Logger) (*components, error) {
	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}

	log.Info("connecting to Redis...")
	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	redisOpts := queue.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	notifier, queueClient := newNotifier(cfg, redisOpts, log)

	listingClient := listings.New(cfg.ListingServiceURL, cfg.ListingServiceTimeout, log)

	matchCoordinator := matches.New(store, notifier, log)
	lifecycle := applications.New(store, listingClient, store, matchCoordinator, notifier, log)
	gate := credits.New(store, cfg.DefaultCredits, log)
	recorder := interactions.New(store, log)

	return &components{
		cfg:   cfg,
		log:   log,
		store: store,
		cache: cache,
		queue: queueClient,
		redis: redisOpts,

		credits:       gate,
		feed:          feed.New(listingClient, store, cache, gate, recorder, lifecycle, cfg.FeedSize, log),
		applications:  lifecycle,
		matches:       matchCoordinator,
		conversations: conversations.New(store, notifier, log),
	}, nil
}

// newNotifier queues notifications for the Telegram delivery worker. Without
// a bot token no worker runs, so events are only logged and the client is nil.
func newNotifier(cfg *config.Config, opts queue.RedisOptions, log *zap.Logger) (notify.Notifier, *queue.AsynqClient) {
	if cfg.TelegramToken == "" {
		return notify.NewLogNotifier(log), nil
	}

	client := queue.NewClient(opts)
	return notify.NewQueueNotifier(client, log), client
}

func (c *components) Close() {
	if c.queue != nil {
		if err := c.queue.Close(); err != nil {
			c.log.Warn("failed to close queue client", zap.Error(err))
		}
	}
	if err := c.cache.Close(); err != nil {
		c.log.Warn("failed to close Redis", zap.Error(err))
	}
	if err := c.store.Close(); err != nil {
		c.log.Warn("failed to close PostgreSQL", zap.Error(err))
	}
}

func (c *components) restServices() rest.Services {
	return rest.Services{
		Feed:          c.feed,
		Credits:       c.credits,
		Applications:  c.applications,
		Matches:       c.matches,
		Conversations: c.conversations,
		Profiles:      c.store,
		Limiter:       c.cache,
		Probes: map[string]rest.Pinger{
			"postgres": c.store,
			"redis":    c.cache,
		},
	}
}

func (c *components) botContext() *handlers.Context {
	return &handlers.Context{
		Store:         c.store,
		Cache:         c.cache,
		Feed:          c.feed,
		Credits:       c.credits,
		Applications:  c.applications,
		Matches:       c.matches,
		Conversations: c.conversations,
		Config:        c.cfg,
		Logger:        c.log,
	}
}
