package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"

	"github.com/Essorvi/tgbeta-v8/internal/messages"
	"github.com/Essorvi/tgbeta-v8/types"
)

func (bh *Handlers) showAdminPanel(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, messageID int) {
	if !user.IsAdmin {
		bh.send(ctx, b, chatID, messages.AccessDenied(), nil)
		return
	}
	st, err := bh.stats.GetStats()
	if err != nil {
		log.Printf("Error loading stats: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if messageID != 0 {
		bh.edit(ctx, b, chatID, messageID, messages.AdminPanel(st), backKeyboard())
	} else {
		bh.send(ctx, b, chatID, messages.AdminPanel(st), backKeyboard())
	}
}

// tryAdminGrant interprets "ID amount" from an admin as a manual
// balance credit. Anything that does not parse falls through to the
// search flow, so admins can still search by text.
func (bh *Handlers) tryAdminGrant(ctx context.Context, b *bot.Bot, chatID int64, text string) bool {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return false
	}
	targetID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return false
	}
	amountRub, err := strconv.Atoi(fields[1])
	if err != nil {
		return false
	}
	amount := float64(amountRub)
	if amount <= 0 {
		bh.send(ctx, b, chatID, messages.AdminBadGrantFormat(), nil)
		return true
	}

	if err := bh.settlement.GrantAdmin(targetID, amount); err != nil {
		log.Printf("Error granting %v to %d: %v", amount, targetID, err)
		bh.send(ctx, b, chatID, messages.AdminUserNotFound(), nil)
		return true
	}

	bh.send(ctx, b, chatID, messages.AdminGrantDone(targetID, amount), nil)
	bh.send(ctx, b, targetID, messages.AdminGrantReceived(amount), nil)
	return true
}
