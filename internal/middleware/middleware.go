package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Essorvi/tgbeta-v8/internal/contextkeys"
	"github.com/Essorvi/tgbeta-v8/types"
)

// Classify tags every update with its kind before any handler runs.
// Payment callbacks outrank everything else: a pre-checkout answer has
// a hard deadline on Telegram's side.
func Classify(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		kind := contextkeys.KindUnknown
		switch {
		case update.PreCheckoutQuery != nil:
			kind = contextkeys.KindPreCheckout
		case update.CallbackQuery != nil:
			kind = contextkeys.KindCallback
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
		case update.Message != nil && update.Message.SuccessfulPayment != nil:
			kind = contextkeys.KindSettlement
		case update.Message != nil:
			kind = contextkeys.KindMessage
		}
		ctx = contextkeys.WithUpdateKind(ctx, kind)
		next(ctx, b, update)
	}
}

// ResolveUser upserts the sender and puts the stored record on the
// context. The admin flag is decided once, at first contact, by
// matching the configured admin username.
func ResolveUser(users types.UserStore, adminUsername string) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			from := senderOf(update)
			if from == nil {
				next(ctx, b, update)
				return
			}

			isAdmin := adminUsername != "" && strings.EqualFold(from.Username, adminUsername)
			user, _, err := users.GetOrCreateUser(from.ID, types.Profile{
				Username:  from.Username,
				FirstName: from.FirstName,
				LastName:  from.LastName,
				IsAdmin:   isAdmin,
			})
			if err != nil {
				log.Printf("resolve user %d: %v", from.ID, err)
				next(ctx, b, update)
				return
			}

			next(contextkeys.WithUser(ctx, user), b, update)
		}
	}
}

func senderOf(update *models.Update) *models.User {
	switch {
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From
	}
	return nil
}
