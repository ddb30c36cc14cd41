package bot

import (
	"context"
	"fmt"
	"time"

	"kind-match/internal/bot/handlers"
	"kind-match/internal/bot/middleware"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Bot represents Telegram bot
type Bot struct {
	bot    *tele.Bot
	deps   *handlers.Context
	logger *zap.Logger
}

func New(token string, deps *handlers.Context, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	pref.OnError = func(err error, _ tele.Context) {
		logger.Error("telebot error", zap.Error(err))
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		deps:   deps,
		logger: logger,
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	logger.Info("bot initialized successfully")

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	b.bot.Use(middleware.RateLimit(b.deps.Cache, b.logger))
}

func (b *Bot) registerHandlers() {
	ctx := b.deps

	commands := map[string]tele.HandlerFunc{
		"/start":   handlers.HandleStart(ctx),
		"/help":    handlers.HandleHelp(ctx),
		"/feed":    handlers.HandleFeed(ctx),
		"/rewind":  handlers.HandleRewind(ctx),
		"/credits": handlers.HandleCredits(ctx),
		"/pending": handlers.HandlePending(ctx),
		"/matches": handlers.HandleMatches(ctx),
		"/cancel":  handlers.HandleCancel(ctx),
	}
	for cmd, h := range commands {
		b.bot.Handle(cmd, h)
	}

	b.bot.Handle(tele.OnText, handlers.HandleText(ctx, commands))

	b.bot.Handle(tele.OnCallback, handlers.HandleCallback(ctx))

	b.logger.Info("handlers registered", zap.Int("commands", len(commands)))
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting bot...")

	go b.bot.Start()

	<-ctx.Done()

	b.logger.Info("stopping bot...")
	b.bot.Stop()

	return nil
}

// Send delivers a plain text notification to userID's private chat.
func (b *Bot) Send(ctx context.Context, userID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := b.bot.Send(tele.ChatID(userID), text); err != nil {
		return fmt.Errorf("send to %d: %w", userID, err)
	}
	return nil
}
