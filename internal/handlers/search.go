package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-telegram/bot"

	"github.com/Essorvi/tgbeta-v8/internal/entitlement"
	"github.com/Essorvi/tgbeta-v8/internal/messages"
	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/internal/search"
	"github.com/Essorvi/tgbeta-v8/types"
)

// runSearch is the paid path: gate, evaluate, query, charge, record.
// The charge lands only after the provider answers, so a dead provider
// never costs the user anything; once a response exists the charge
// stands whether or not it carried results.
func (bh *Handlers) runSearch(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, query string) {
	if bh.gateApplies(user) && !bh.passChannelGate(ctx, b, user) {
		bh.send(ctx, b, chatID, messages.ChannelGate(bh.cfg.RequiredChannel), bh.channelGateKeyboard())
		return
	}

	decision, err := bh.entitlement.Evaluate(user, time.Now())
	if err != nil {
		log.Printf("Error evaluating entitlement for %d: %v", user.TelegramID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if !decision.Allowed {
		bh.sendDenied(ctx, b, chatID, decision.Reason)
		return
	}

	bh.send(ctx, b, chatID, messages.SearchRunning(), nil)

	queryType := search.Detect(query)
	result, err := bh.provider.Search(ctx, query)
	if err != nil {
		log.Printf("Provider error for %d: %v", user.TelegramID, err)
		bh.recordSearch(user.TelegramID, query, queryType, nil, 0, false, decision.Method)
		bh.send(ctx, b, chatID, messages.SearchFailed(), nil)
		return
	}

	charged, err := bh.entitlement.Consume(user, decision)
	if err != nil {
		log.Printf("Error charging search for %d: %v", user.TelegramID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if !charged {
		// A concurrent search won the quota or balance race.
		bh.sendDenied(ctx, b, chatID, entitlement.DenyNoFunds)
		return
	}

	cost := 0.0
	if decision.Method == types.MethodBalance {
		cost = pricing.SearchPrice
	}
	bh.recordSearch(user.TelegramID, query, queryType, result.Raw, cost, !result.Failed(), decision.Method)

	bh.send(ctx, b, chatID, search.FormatResult(result, query, queryType), backKeyboard())
}

func (bh *Handlers) sendDenied(ctx context.Context, b *bot.Bot, chatID int64, reason entitlement.DenyReason) {
	text := messages.SearchNoAccess()
	if reason == entitlement.DenyDailyLimit {
		text = messages.SearchDailyLimitReached()
	}
	bh.send(ctx, b, chatID, text, topUpMethodKeyboard(bh.crypto.Enabled()))
}

func (bh *Handlers) recordSearch(userID int64, query string, queryType search.QueryType, raw []byte, cost float64, success bool, method types.PaymentMethod) {
	err := bh.searches.RecordSearch(types.SearchRecord{
		UserID:        userID,
		Query:         query,
		QueryType:     queryType.Code(),
		RawResult:     raw,
		Cost:          cost,
		Success:       success,
		PaymentMethod: method,
	})
	if err != nil {
		log.Printf("Error recording search for %d: %v", userID, err)
	}
}
