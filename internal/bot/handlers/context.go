package handlers

import (
	"context"
	"errors"
	"time"

	"kind-match/internal/applications"
	"kind-match/internal/config"
	"kind-match/internal/conversations"
	"kind-match/internal/credits"
	"kind-match/internal/feed"
	"kind-match/internal/matches"
	"kind-match/internal/models"
	"kind-match/internal/storage/postgres"
	"kind-match/internal/storage/redis"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const handlerTimeout = 10 * time.Second

// Context contains deps for all handlers
type Context struct {
	Store         *postgres.Store
	Cache         *redis.Cache
	Feed          *feed.Service
	Credits       *credits.Gate
	Applications  *applications.Lifecycle
	Matches       *matches.Coordinator
	Conversations *conversations.Broker
	Config        *config.Config
	Logger        *zap.Logger
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

// registeredUser loads the sender. It replies and returns nil when the sender
// has not run /start yet or does not hold one of roles.
func registeredUser(ctx context.Context, hctx *Context, c tele.Context, roles ...models.Role) (*models.User, error) {
	user, err := hctx.Store.GetUser(ctx, c.Sender().ID)
	if err != nil {
		hctx.Logger.Error("get user failed", zap.Int64("user_id", c.Sender().ID), zap.Error(err))
		return nil, c.Send(msgInternal)
	}
	if user == nil {
		return nil, c.Send("👋 Please run /start first.")
	}

	if len(roles) == 0 {
		return user, nil
	}
	for _, r := range roles {
		if user.Role == r {
			return user, nil
		}
	}
	return nil, c.Send("🚫 This command is not available for your role. Use /start to switch.")
}

const msgInternal = "😔 Something went wrong. Please try again later."

// userMessage turns a service error into text fit for the chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientCredits):
		return "💳 You are out of credits. Check /credits."
	case errors.Is(err, models.ErrAlreadyApplied):
		return "You already applied to this listing."
	case errors.Is(err, models.ErrAlreadyInteracted):
		return "You already answered this one."
	case errors.Is(err, models.ErrInvalidTransition):
		return "This application was already handled."
	case errors.Is(err, models.ErrNotFound):
		return "🔍 Not found. It may have been removed."
	case errors.Is(err, models.ErrValidation):
		return "⚠️ " + err.Error()
	}
	return msgInternal
}

// replyError logs unexpected errors and tells the user what happened.
func replyError(hctx *Context, c tele.Context, op string, err error) error {
	msg := userMessage(err)
	if msg == msgInternal {
		hctx.Logger.Error(op+" failed", zap.Int64("user_id", c.Sender().ID), zap.Error(err))
	}

	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msg, ShowAlert: msg != msgInternal})
	}
	return c.Send(msg)
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
