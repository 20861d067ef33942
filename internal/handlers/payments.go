package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Essorvi/tgbeta-v8/internal/messages"
	"github.com/Essorvi/tgbeta-v8/internal/payments"
	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/types"
)

func (bh *Handlers) promptCustomAmount(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, mode types.SessionMode, data map[string]interface{}) {
	if err := bh.states.Set(user.TelegramID, mode, data); err != nil {
		log.Printf("Error saving state for %d: %v", user.TelegramID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.CustomAmountPrompt(), backKeyboard())
}

// HandlePendingState consumes free text rerouted by a live session
// record. The record is cleared before the input is touched; a crash
// mid-handling must not leave a stale mode that swallows the next
// unrelated message.
func (bh *Handlers) HandlePendingState(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, state *types.SessionState, text string) {
	if err := bh.states.Clear(user.TelegramID); err != nil {
		log.Printf("Error clearing state for %d: %v", user.TelegramID, err)
	}

	switch state.Mode {
	case types.ModeCustomAmountStars, types.ModeCustomAmountCrypto:
		amount, err := pricing.ValidateCustomAmount(text)
		if err != nil {
			bh.send(ctx, b, chatID, messages.CustomAmountInvalid(err), backKeyboard())
			return
		}
		if state.Mode == types.ModeCustomAmountStars {
			bh.sendStarsInvoice(ctx, b, chatID, user, amount)
		} else {
			asset, _ := state.Data["asset"].(string)
			bh.sendCryptoInvoice(ctx, b, chatID, user, amount, asset)
		}

	default:
		log.Printf("Unknown session mode %q for %d", state.Mode, user.TelegramID)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
	}
}

func (bh *Handlers) handleTopUpAmount(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, channel types.PaymentChannel, asset, raw string) {
	amount, err := pricing.ValidateCustomAmount(raw)
	if err != nil {
		bh.send(ctx, b, chatID, messages.CustomAmountInvalid(err), nil)
		return
	}
	switch channel {
	case types.ChannelStars:
		bh.sendStarsInvoice(ctx, b, chatID, user, amount)
	case types.ChannelCrypto:
		bh.sendCryptoInvoice(ctx, b, chatID, user, amount, asset)
	}
}

func (bh *Handlers) sendStarsInvoice(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, amountRub int) {
	_, err := b.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:      chatID,
		Title:       messages.StarsInvoiceTitle(amountRub),
		Description: messages.StarsInvoiceDescription(amountRub),
		Payload:     payments.BuildStarsPayload(user.TelegramID, amountRub),
		Currency:    "XTR",
		Prices: []models.LabeledPrice{
			{Label: messages.StarsInvoiceTitle(amountRub), Amount: pricing.StarsForRub(amountRub)},
		},
		ProviderToken: "",
	})
	if err != nil {
		log.Printf("Error sending stars invoice to %d: %v", chatID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
	}
}

func (bh *Handlers) sendCryptoInvoice(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, amountRub int, asset string) {
	if !bh.crypto.Enabled() {
		bh.send(ctx, b, chatID, messages.CryptoInvoiceFailed(), nil)
		return
	}
	invoice, err := bh.crypto.CreateInvoice(ctx, user.TelegramID, amountRub, asset)
	if err != nil {
		log.Printf("Error creating crypto invoice for %d: %v", user.TelegramID, err)
		bh.send(ctx, b, chatID, messages.CryptoInvoiceFailed(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.CryptoInvoiceCreated(amountRub, invoice.PayURL), nil)
}

// HandlePreCheckout answers Telegram's final pre-charge question. The
// payload is re-validated; approval must go out within seconds or the
// charge is dropped by Telegram.
func (bh *Handlers) HandlePreCheckout(ctx context.Context, b *bot.Bot, update *models.Update) {
	q := update.PreCheckoutQuery
	errMsg := ""
	if err := bh.settlement.ApprovePreCheckout(q.From.ID, q.InvoicePayload); err != nil {
		log.Printf("Pre-checkout refused for %d: %v", q.From.ID, err)
		errMsg = "Некорректный платёж"
	}
	_, err := b.AnswerPreCheckoutQuery(ctx, &bot.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: q.ID,
		OK:                 errMsg == "",
		ErrorMessage:       errMsg,
	})
	if err != nil {
		log.Printf("Error answering pre-checkout %s: %v", q.ID, err)
	}
}

// HandleSuccessfulPayment settles a confirmed Stars charge. The charge
// id makes redelivered notices no-ops; the user hears about the credit
// only on the first delivery.
func (bh *Handlers) HandleSuccessfulPayment(ctx context.Context, b *bot.Bot, update *models.Update) {
	p := update.Message.SuccessfulPayment
	chatID := update.Message.Chat.ID

	payerID := chatID
	if update.Message.From != nil {
		payerID = update.Message.From.ID
	}
	userID, amountRub, err := bh.settlement.SettleStars(p.InvoicePayload, p.TelegramPaymentChargeID, payerID, p.TotalAmount)
	if err == payments.ErrDuplicateCharge {
		log.Printf("Settlement %s redelivered, skipped", p.TelegramPaymentChargeID)
		return
	}
	if err != nil {
		log.Printf("Settlement %s failed: %v", p.TelegramPaymentChargeID, err)
		bh.send(ctx, b, chatID, messages.PaymentFailed(), nil)
		return
	}

	balance := amountRub
	if u, err := bh.users.GetUser(userID); err == nil {
		balance = u.Balance
	}
	bh.send(ctx, b, chatID, messages.PaymentCompleted(amountRub, balance), nil)
}

func (bh *Handlers) handleSubscriptionPurchase(ctx context.Context, b *bot.Bot, chatID int64, messageID int, user *types.User, code string) {
	tier, ok := pricing.TierByCode(types.SubscriptionTier(code))
	if !ok {
		log.Printf("Unknown subscription tier %q from %d", code, user.TelegramID)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	until := time.Now().UTC().Add(tier.Duration)
	activated, err := bh.users.ActivateSubscription(user.TelegramID, tier.Code, tier.Price, until)
	if err != nil {
		log.Printf("Error activating subscription for %d: %v", user.TelegramID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if !activated {
		bh.edit(ctx, b, chatID, messageID, messages.SubscriptionInsufficientFunds(tier.Price, user.Balance), topUpMethodKeyboard(bh.crypto.Enabled()))
		return
	}
	bh.edit(ctx, b, chatID, messageID, messages.SubscriptionActivated(tier, until), backKeyboard())
}
