package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Essorvi/tgbeta-v8/internal/messages"
	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/internal/utils"
	"github.com/Essorvi/tgbeta-v8/types"
)

func (bh *Handlers) mainMenuKeyboard(user *types.User) models.InlineKeyboardMarkup {
	rows := [][]utils.Button{
		{
			{Text: "🔍 Поиск", CallbackData: "menu_search"},
			{Text: "👤 Профиль", CallbackData: "menu_profile"},
		},
		{
			{Text: "💰 Пополнить", CallbackData: "menu_topup"},
			{Text: "📅 Подписка", CallbackData: "menu_subscription"},
		},
		{
			{Text: "👥 Рефералы", CallbackData: "menu_referral"},
		},
		{
			{Text: "❓ Помощь", CallbackData: "menu_help"},
			{Text: "📋 Правила", CallbackData: "menu_rules"},
		},
	}
	if user.IsAdmin {
		rows = append(rows, []utils.Button{{Text: "⚙️ Админ", CallbackData: "menu_admin"}})
	}
	return utils.Rows(rows...)
}

func backKeyboard() models.InlineKeyboardMarkup {
	return utils.Rows([]utils.Button{{Text: "⬅️ Назад", CallbackData: "menu_main"}})
}

func (bh *Handlers) channelGateKeyboard() models.InlineKeyboardMarkup {
	channel := strings.TrimPrefix(bh.cfg.RequiredChannel, "@")
	return utils.Rows(
		[]utils.Button{{Text: "📢 Подписаться", URL: "https://t.me/" + channel}},
		[]utils.Button{{Text: "✅ Проверить подписку", CallbackData: "check_subscription"}},
	)
}

func (bh *Handlers) sendStart(ctx context.Context, b *bot.Bot, chatID int64, user *types.User) {
	if bh.gateApplies(user) && !bh.passChannelGate(ctx, b, user) {
		bh.send(ctx, b, chatID, messages.ChannelGate(bh.cfg.RequiredChannel), bh.channelGateKeyboard())
		return
	}
	bh.send(ctx, b, chatID, messages.StartWelcome(user.FirstName), bh.mainMenuKeyboard(user))
}

func (bh *Handlers) gateApplies(user *types.User) bool {
	return bh.cfg.RequiredChannel != "" && !user.IsAdmin && !user.IsChannelMember
}

// passChannelGate asks Telegram for the live membership status. On
// success the stored flag is set and a pending referral pays out.
func (bh *Handlers) passChannelGate(ctx context.Context, b *bot.Bot, user *types.User) bool {
	member, err := b.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: bh.cfg.RequiredChannel,
		UserID: user.TelegramID,
	})
	if err != nil {
		log.Printf("Error checking channel member %d: %v", user.TelegramID, err)
		return false
	}

	switch member.Type {
	case models.ChatMemberTypeMember, models.ChatMemberTypeAdministrator, models.ChatMemberTypeOwner:
	default:
		return false
	}

	if err := bh.users.SetChannelMember(user.TelegramID, true); err != nil {
		log.Printf("Error saving channel member %d: %v", user.TelegramID, err)
	}
	user.IsChannelMember = true

	referrerID, paid, err := bh.referrals.Confirm(user.TelegramID)
	if err != nil {
		log.Printf("Error confirming referral for %d: %v", user.TelegramID, err)
	} else if paid {
		bh.send(ctx, b, referrerID, messages.ReferralBonusCredited(), nil)
	}
	return true
}

// registerReferral attributes a /start deep link. Notification failures
// are logged, never surfaced to the new user.
func (bh *Handlers) registerReferral(ctx context.Context, b *bot.Bot, user *types.User, code string) {
	referrerID, created, err := bh.referrals.Register(user.TelegramID, strings.TrimSpace(code))
	if err != nil {
		log.Printf("Error registering referral for %d: %v", user.TelegramID, err)
		return
	}
	if created {
		bh.send(ctx, b, referrerID, messages.ReferralJoined(user.FirstName), nil)
	}
}

// HandleCallback dispatches menu clicks. Every click is acknowledged
// first so the client spinner stops even when a branch fails later.
// Any live input mode dies here: once the user navigates, a stale
// session record must not reroute their next message.
func (bh *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	cb := update.CallbackQuery
	data := cb.Data
	chatID := bh.getChatIDFromUpdate(update)
	messageID := 0
	if cb.Message.Message != nil {
		messageID = cb.Message.Message.ID
	}
	bh.answerCallback(ctx, b, cb.ID, "")

	if err := bh.states.Clear(user.TelegramID); err != nil {
		log.Printf("Error clearing state for %d: %v", user.TelegramID, err)
	}

	switch {
	case data == "menu_main":
		bh.edit(ctx, b, chatID, messageID, messages.MainMenu(), bh.mainMenuKeyboard(user))

	case data == "menu_search":
		bh.edit(ctx, b, chatID, messageID, messages.SearchPrompt(), backKeyboard())

	case data == "menu_profile":
		confirmed, err := bh.referrals.CountConfirmed(user.TelegramID)
		if err != nil {
			log.Printf("Error counting referrals for %d: %v", user.TelegramID, err)
		}
		total, err := bh.searches.CountSearches(user.TelegramID, false)
		if err != nil {
			log.Printf("Error counting searches for %d: %v", user.TelegramID, err)
		}
		bh.edit(ctx, b, chatID, messageID, messages.Profile(user, total, confirmed), backKeyboard())

	case data == "menu_topup":
		bh.edit(ctx, b, chatID, messageID, messages.TopUpMenu(), topUpMethodKeyboard(bh.crypto.Enabled()))

	case data == "menu_subscription":
		bh.edit(ctx, b, chatID, messageID, messages.SubscriptionMenu(user.Balance), subscriptionKeyboard())

	case data == "menu_referral":
		confirmed, err := bh.referrals.CountConfirmed(user.TelegramID)
		if err != nil {
			log.Printf("Error counting referrals for %d: %v", user.TelegramID, err)
		}
		text := messages.ReferralInfo(bh.cfg.BotUsername, user.ReferralCode, user.TotalReferrals, confirmed)
		bh.edit(ctx, b, chatID, messageID, text, backKeyboard())

	case data == "menu_help":
		bh.edit(ctx, b, chatID, messageID, messages.HelpMenu(bh.cfg.AdminUsername), backKeyboard())

	case data == "menu_rules":
		bh.edit(ctx, b, chatID, messageID, messages.RulesMenu(), backKeyboard())

	case data == "menu_admin":
		bh.showAdminPanel(ctx, b, chatID, user, messageID)

	case data == "check_subscription":
		if bh.passChannelGate(ctx, b, user) {
			bh.edit(ctx, b, chatID, messageID, messages.ChannelConfirmed(), bh.mainMenuKeyboard(user))
		} else {
			bh.answerCallback(ctx, b, cb.ID, "Подписка не найдена")
			bh.edit(ctx, b, chatID, messageID, messages.ChannelNotConfirmed(), bh.channelGateKeyboard())
		}

	case data == "topup_stars":
		bh.edit(ctx, b, chatID, messageID, messages.ChooseAmount(), starsAmountKeyboard())

	case data == "topup_crypto":
		bh.edit(ctx, b, chatID, messageID, messages.ChooseCryptoAsset(), cryptoAssetKeyboard())

	case data == "stars_custom":
		bh.promptCustomAmount(ctx, b, chatID, user, types.ModeCustomAmountStars, nil)

	case strings.HasPrefix(data, "crypto_asset_"):
		asset := strings.TrimPrefix(data, "crypto_asset_")
		bh.edit(ctx, b, chatID, messageID, messages.ChooseAmount(), cryptoAmountKeyboard(asset))

	case strings.HasPrefix(data, "crypto_custom_"):
		asset := strings.TrimPrefix(data, "crypto_custom_")
		bh.promptCustomAmount(ctx, b, chatID, user, types.ModeCustomAmountCrypto, map[string]interface{}{"asset": asset})

	case strings.HasPrefix(data, "stars_amount_"):
		bh.handleTopUpAmount(ctx, b, chatID, user, types.ChannelStars, "", strings.TrimPrefix(data, "stars_amount_"))

	case strings.HasPrefix(data, "crypto_amount_"):
		asset, raw, ok := strings.Cut(strings.TrimPrefix(data, "crypto_amount_"), "_")
		if !ok {
			log.Printf("Malformed callback %q from %d", data, user.TelegramID)
			return
		}
		bh.handleTopUpAmount(ctx, b, chatID, user, types.ChannelCrypto, asset, raw)

	case strings.HasPrefix(data, "sub_buy_"):
		bh.handleSubscriptionPurchase(ctx, b, chatID, messageID, user, strings.TrimPrefix(data, "sub_buy_"))

	default:
		log.Printf("Unknown callback %q from %d", data, user.TelegramID)
	}
}

func topUpMethodKeyboard(cryptoEnabled bool) models.InlineKeyboardMarkup {
	methods := []utils.Button{{Text: "⭐ Telegram Stars", CallbackData: "topup_stars"}}
	if cryptoEnabled {
		methods = append(methods, utils.Button{Text: "🪙 CryptoBot", CallbackData: "topup_crypto"})
	}
	return utils.Rows(methods, []utils.Button{{Text: "⬅️ Назад", CallbackData: "menu_main"}})
}

var presetAmounts = []int{100, 250, 500, 1000, 2500, 5000}

// cryptoAssets mirrors what the invoice provider accepts for fiat bills.
var cryptoAssets = []struct {
	Code  string
	Label string
}{
	{"btc", "₿ Bitcoin"},
	{"eth", "💎 Ethereum"},
	{"usdt", "💰 USDT"},
	{"ltc", "🔸 Litecoin"},
}

func cryptoAssetKeyboard() models.InlineKeyboardMarkup {
	buttons := make([]utils.Button, 0, len(cryptoAssets))
	for _, a := range cryptoAssets {
		buttons = append(buttons, utils.Button{Text: a.Label, CallbackData: "crypto_asset_" + a.Code})
	}
	kb := utils.BuildInlineKeyboard(buttons, 2)
	kb.InlineKeyboard = append(kb.InlineKeyboard,
		[]models.InlineKeyboardButton{{Text: " ⬅️ Назад ", CallbackData: "menu_topup"}},
	)
	return kb
}

func starsAmountKeyboard() models.InlineKeyboardMarkup {
	return amountKeyboard("stars_amount_", "stars_custom", "menu_topup")
}

func cryptoAmountKeyboard(asset string) models.InlineKeyboardMarkup {
	return amountKeyboard("crypto_amount_"+asset+"_", "crypto_custom_"+asset, "topup_crypto")
}

func amountKeyboard(amountPrefix, customData, backData string) models.InlineKeyboardMarkup {
	buttons := make([]utils.Button, 0, len(presetAmounts))
	for _, amount := range presetAmounts {
		buttons = append(buttons, utils.Button{
			Text:         fmt.Sprintf("%d₽", amount),
			CallbackData: fmt.Sprintf("%s%d", amountPrefix, amount),
		})
	}
	kb := utils.BuildInlineKeyboard(buttons, 3)
	kb.InlineKeyboard = append(kb.InlineKeyboard,
		[]models.InlineKeyboardButton{{Text: " ✍️ Своя сумма ", CallbackData: customData}},
		[]models.InlineKeyboardButton{{Text: " ⬅️ Назад ", CallbackData: backData}},
	)
	return kb
}

func subscriptionKeyboard() models.InlineKeyboardMarkup {
	rows := make([][]utils.Button, 0, len(pricing.Tiers)+1)
	for _, t := range pricing.Tiers {
		rows = append(rows, []utils.Button{{
			Text:         fmt.Sprintf("%s — %.0f₽", t.Title, t.Price),
			CallbackData: "sub_buy_" + string(t.Code),
		}})
	}
	rows = append(rows, []utils.Button{{Text: "⬅️ Назад", CallbackData: "menu_main"}})
	return utils.Rows(rows...)
}
