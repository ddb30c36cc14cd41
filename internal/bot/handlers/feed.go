package handlers

import (
	"context"
	"errors"
	"fmt"

	"kind-match/internal/bot/utils"
	"kind-match/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /feed shows the best listing the worker has not answered yet.
func HandleFeed(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := requestContext()
		defer cancel()

		user, err := registeredUser(dbCtx, ctx, c, models.RoleWorker)
		if user == nil {
			return err
		}

		return sendNextCard(dbCtx, ctx, c, user.ID)
	}
}

func sendNextCard(dbCtx context.Context, ctx *Context, c tele.Context, workerID int64) error {
	cards, err := ctx.Feed.Feed(dbCtx, workerID, 1)
	if errors.Is(err, models.ErrNotFound) {
		return c.Send("📝 Your worker profile is not set up yet, so there is nothing to rank. Fill it in through the app first.")
	}
	if err != nil {
		return replyError(ctx, c, "load feed", err)
	}

	if len(cards) == 0 {
		return c.Send(utils.FormatNoListingsMessage(), tele.ModeMarkdownV2)
	}

	card := cards[0]
	return c.Send(
		utils.FormatListingCard(card),
		utils.SwipeKeyboard(card.Listing.ID),
		tele.ModeMarkdownV2,
	)
}

func handleSwipe(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 2 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button"})
	}
	action, listingID := models.Action(args[0]), args[1]
	workerID := c.Sender().ID

	dbCtx, cancel := requestContext()
	defer cancel()

	res, err := ctx.Feed.Swipe(dbCtx, workerID, listingID, action, nil)
	if err != nil {
		return replyError(ctx, c, "swipe", err)
	}

	ctx.Logger.Info("swipe handled",
		zap.Int64("user_id", workerID),
		zap.String("listing_id", listingID),
		zap.String("action", string(action)),
		zap.Bool("recorded", res.Recorded),
		zap.Int("remaining", res.Remaining),
	)

	var note string
	switch {
	case res.AlreadyInteracted:
		note = "You already answered this one."
	case action == models.ActionApply && res.AlreadyApplied:
		note = "You already applied here."
	case action == models.ActionApply:
		note = "✅ Applied!"
	default:
		note = "⏭ Skipped"
	}

	// Drop the buttons so the card cannot be answered twice.
	if _, err := c.Bot().EditReplyMarkup(c.Message(), nil); err != nil {
		ctx.Logger.Debug("failed to clear swipe buttons", zap.Error(err))
	}

	if err := c.Respond(&tele.CallbackResponse{Text: note}); err != nil {
		ctx.Logger.Warn("failed to answer callback", zap.Error(err))
	}

	return sendNextCard(dbCtx, ctx, c, workerID)
}

func handleNextCard(ctx *Context, c tele.Context) error {
	dbCtx, cancel := requestContext()
	defer cancel()

	if err := c.Respond(); err != nil {
		ctx.Logger.Warn("failed to answer callback", zap.Error(err))
	}
	return sendNextCard(dbCtx, ctx, c, c.Sender().ID)
}

// /rewind undoes the most recent swipe.
func HandleRewind(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := requestContext()
		defer cancel()

		user, err := registeredUser(dbCtx, ctx, c, models.RoleWorker)
		if user == nil {
			return err
		}

		res, err := ctx.Feed.Rewind(dbCtx, user.ID)
		if err != nil {
			return replyError(ctx, c, "rewind", err)
		}

		return c.Send(
			fmt.Sprintf("↩️ Your last %s was undone. The listing is back in your /feed.", res.Action),
			utils.NextCardKeyboard(),
		)
	}
}

// /credits
func HandleCredits(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := requestContext()
		defer cancel()

		user, err := registeredUser(dbCtx, ctx, c)
		if user == nil {
			return err
		}

		status, err := ctx.Credits.Status(dbCtx, user.ID)
		if err != nil {
			return replyError(ctx, c, "credit status", err)
		}

		return c.Send(utils.FormatCredits(status), tele.ModeMarkdownV2)
	}
}
