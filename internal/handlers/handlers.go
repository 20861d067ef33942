package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Essorvi/tgbeta-v8/internal/config"
	"github.com/Essorvi/tgbeta-v8/internal/contextkeys"
	"github.com/Essorvi/tgbeta-v8/internal/entitlement"
	"github.com/Essorvi/tgbeta-v8/internal/messages"
	"github.com/Essorvi/tgbeta-v8/internal/payments"
	"github.com/Essorvi/tgbeta-v8/internal/referral"
	"github.com/Essorvi/tgbeta-v8/internal/search"
	"github.com/Essorvi/tgbeta-v8/types"
)

type Handlers struct {
	cfg *config.Config

	users     types.UserStore
	searches  types.SearchStore
	stats     types.StatsStore
	states    types.StateStore
	referrals *referral.Service

	entitlement *entitlement.Service
	settlement  *payments.Service
	crypto      *payments.CryptobotClient
	provider    *search.Client
}

func NewHandlers(
	cfg *config.Config,
	users types.UserStore,
	searches types.SearchStore,
	stats types.StatsStore,
	states types.StateStore,
	referrals *referral.Service,
	ent *entitlement.Service,
	settlement *payments.Service,
	crypto *payments.CryptobotClient,
	provider *search.Client,
) *Handlers {
	return &Handlers{
		cfg:         cfg,
		users:       users,
		searches:    searches,
		stats:       stats,
		states:      states,
		referrals:   referrals,
		entitlement: ent,
		settlement:  settlement,
		crypto:      crypto,
		provider:    provider,
	}
}

// MainHandler routes a classified update. Payment callbacks come first;
// everything else needs a resolved user.
func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch contextkeys.GetUpdateKind(ctx) {
	case contextkeys.KindPreCheckout:
		bh.HandlePreCheckout(ctx, b, update)
		return
	case contextkeys.KindSettlement:
		bh.HandleSuccessfulPayment(ctx, b, update)
		return
	}

	user, ok := contextkeys.GetUser(ctx)
	if !ok {
		chatID := bh.getChatIDFromUpdate(update)
		log.Printf("Error: user not found in context")
		if chatID != 0 {
			bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		}
		return
	}

	switch contextkeys.GetUpdateKind(ctx) {
	case contextkeys.KindCallback:
		bh.HandleCallback(ctx, b, update, user)
	case contextkeys.KindMessage:
		bh.HandleMessage(ctx, b, update, user)
	}
}

// HandleMessage routes free text in fixed priority: a live session
// record first, then commands, then the admin grant shorthand, then
// search.
func (bh *Handlers) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	text := strings.TrimSpace(update.Message.Text)
	chatID := update.Message.Chat.ID
	if text == "" {
		bh.send(ctx, b, chatID, messages.UnknownQuery(), nil)
		return
	}

	state, err := bh.states.Get(user.TelegramID)
	if err != nil {
		log.Printf("Error reading state for %d: %v", user.TelegramID, err)
	}
	if state != nil {
		bh.HandlePendingState(ctx, b, chatID, user, state, text)
		return
	}

	if strings.HasPrefix(text, "/") {
		bh.HandleCommand(ctx, b, update, user)
		return
	}

	if user.IsAdmin {
		if handled := bh.tryAdminGrant(ctx, b, chatID, text); handled {
			return
		}
	}

	bh.runSearch(ctx, b, chatID, user, text)
}

func (bh *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	chatID := update.Message.Chat.ID
	fields := strings.Fields(update.Message.Text)
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]
	if strings.Contains(cmd, "@") {
		cmd = strings.SplitN(cmd, "@", 2)[0]
	}

	switch cmd {
	case "/start":
		if len(fields) > 1 {
			bh.registerReferral(ctx, b, user, fields[1])
		}
		bh.sendStart(ctx, b, chatID, user)
	case "/help":
		bh.send(ctx, b, chatID, messages.HelpMenu(bh.cfg.AdminUsername), backKeyboard())
	case "/admin":
		bh.showAdminPanel(ctx, b, chatID, user, 0)
	default:
		bh.send(ctx, b, chatID, messages.UnknownQuery(), nil)
	}
}

func (bh *Handlers) getChatIDFromUpdate(update *models.Update) int64 {
	if update == nil {
		return 0
	}
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Message.Message != nil {
			return update.CallbackQuery.Message.Message.Chat.ID
		}
		if update.CallbackQuery.Message.InaccessibleMessage != nil {
			return update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

func (bh *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.Printf("Error sending message to %d: %v", chatID, err)
	}
}

// edit rewrites the menu message in place; on failure (message too old,
// unchanged content) it falls back to a fresh message.
func (bh *Handlers) edit(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		bh.send(ctx, b, chatID, text, markup)
	}
}

func (bh *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}
