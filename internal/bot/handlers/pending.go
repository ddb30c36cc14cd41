package handlers

import (
	"fmt"
	"time"

	"kind-match/internal/bot/utils"
	"kind-match/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxPendingCards caps how many applicants one /pending call posts.
const maxPendingCards = 10

// /pending lists applications waiting for the employer's decision.
func HandlePending(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := requestContext()
		defer cancel()

		user, err := registeredUser(dbCtx, ctx, c, models.RoleEmployer)
		if user == nil {
			return err
		}

		rows, err := ctx.Applications.ListPendingForEmployer(dbCtx, user.ID, nil)
		if err != nil {
			return replyError(ctx, c, "list pending", err)
		}

		if len(rows) == 0 {
			return c.Send("📭 No applications are waiting for you.")
		}

		if err := c.Send(formatPendingHeader(len(rows))); err != nil {
			return err
		}

		now := time.Now()
		for i, row := range rows {
			if i == maxPendingCards {
				break
			}
			if err := c.Send(
				utils.FormatApplicant(row, now),
				utils.ReviewKeyboard(row.Application.ID),
				tele.ModeMarkdownV2,
			); err != nil {
				ctx.Logger.Warn("failed to send applicant card",
					zap.String("application_id", row.Application.ID),
					zap.Error(err),
				)
			}
		}

		return nil
	}
}

func formatPendingHeader(total int) string {
	if total > maxPendingCards {
		return fmt.Sprintf("📥 %d applications are waiting. Showing the first %d.", total, maxPendingCards)
	}
	return fmt.Sprintf("📥 %d application(s) waiting.", total)
}

func handleReview(ctx *Context, c tele.Context, args []string) error {
	if len(args) < 2 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button"})
	}
	decision, applicationID := args[0], args[1]
	employerID := c.Sender().ID

	dbCtx, cancel := requestContext()
	defer cancel()

	if _, err := ctx.Applications.AuthorizeEmployer(dbCtx, employerID, applicationID); err != nil {
		return replyError(ctx, c, "authorize review", err)
	}

	var (
		note string
		err  error
	)
	switch decision {
	case "approve":
		_, err = ctx.Applications.Approve(dbCtx, applicationID)
		note = "✅ Approved. You have a new match, see /matches."
	case "reject":
		err = ctx.Applications.Reject(dbCtx, applicationID)
		note = "❌ Rejected"
	case "skip":
		err = ctx.Applications.Skip(dbCtx, applicationID)
		note = "⏭ Skipped"
	default:
		return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
	}
	if err != nil {
		return replyError(ctx, c, decision+" application", err)
	}

	ctx.Logger.Info("application reviewed",
		zap.Int64("employer_id", employerID),
		zap.String("application_id", applicationID),
		zap.String("decision", decision),
	)

	if _, err := c.Bot().EditReplyMarkup(c.Message(), nil); err != nil {
		ctx.Logger.Debug("failed to clear review buttons", zap.Error(err))
	}

	if err := c.Send(note); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: "Done"})
}
