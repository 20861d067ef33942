package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func StartWelcome(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf("👁 <b>Привет, %s!</b>\n\n", Escape(name)) +
		"Я нахожу информацию по открытым базам данных.\n\n" +
		"🔍 Отправьте номер телефона, email, ник, IP, номер авто или ФИО.\n" +
		fmt.Sprintf("💰 Один поиск стоит %.0f₽, по подписке доступно %d поисков в день.", pricing.SearchPrice, pricing.DailySearchLimit)
}

func MainMenu() string {
	return "👁 <b>Главное меню</b>\nВыберите раздел:"
}

func ChannelGate(channel string) string {
	return "🔒 <b>Доступ ограничен</b>\n\n" +
		fmt.Sprintf("Подпишитесь на канал %s и нажмите кнопку проверки.", Escape(channel))
}

func ChannelConfirmed() string {
	return "✅ <b>Подписка подтверждена</b>\nТеперь вам доступен поиск."
}

func ChannelNotConfirmed() string {
	return "🚫 <b>Подписка не найдена</b>\nПодпишитесь на канал и попробуйте ещё раз."
}

func Profile(u *types.User, totalSearches, confirmedReferrals int64) string {
	sub := "нет"
	if u.HasActiveSubscription(time.Now()) && u.SubscriptionUntil != nil {
		sub = u.SubscriptionUntil.Format("02.01.2006 15:04")
	}
	return "👤 <b>Профиль</b>\n\n" +
		fmt.Sprintf("🆔 ID: <code>%d</code>\n", u.TelegramID) +
		fmt.Sprintf("💰 Баланс: %.2f₽\n", u.Balance) +
		fmt.Sprintf("📅 Подписка до: %s\n", sub) +
		fmt.Sprintf("🔍 Поисков сегодня: %d из %d\n", u.DailySearchesUsed, pricing.DailySearchLimit) +
		fmt.Sprintf("📊 Всего поисков: %d\n", totalSearches) +
		fmt.Sprintf("👥 Рефералов: %d", confirmedReferrals)
}

func SearchPrompt() string {
	return "🔍 <b>Поиск</b>\n\n" +
		"Отправьте запрос: телефон, email, ник, IP, номер авто, адрес или ФИО."
}

func SearchRunning() string {
	return "⏳ <b>Ищу...</b>"
}

func SearchNoAccess() string {
	return "🚫 <b>Недостаточно средств</b>\n\n" +
		fmt.Sprintf("Один поиск стоит %.0f₽. Пополните баланс или оформите подписку.", pricing.SearchPrice)
}

func SearchDailyLimitReached() string {
	return "⏳ <b>Дневной лимит исчерпан</b>\n\n" +
		fmt.Sprintf("По подписке доступно %d поисков в день. Лимит обновится завтра.", pricing.DailySearchLimit)
}

func SearchFailed() string {
	return "🚫 <b>Поиск не удался</b>\nСредства не списаны. Попробуйте позже."
}

func HelpMenu(supportUsername string) string {
	msg := "❓ <b>Справка</b>\n\n" +
		"Бот ищет информацию о людях по открытым источникам.\n\n" +
		fmt.Sprintf("💰 Разовый поиск: %.0f₽\n", pricing.SearchPrice) +
		fmt.Sprintf("📅 Подписка: от %.0f₽, до %d поисков в день\n", pricing.Tiers[0].Price, pricing.DailySearchLimit) +
		fmt.Sprintf("💳 Пополнение: Telegram Stars или CryptoBot, от %d₽\n", pricing.MinTopUp) +
		fmt.Sprintf("👥 Рефералы: %.0f₽ за каждого подтверждённого\n", pricing.ReferralBonus)
	if supportUsername != "" {
		msg += fmt.Sprintf("\n📞 Поддержка: @%s\n", Escape(strings.TrimPrefix(supportUsername, "@")))
	}
	msg += "\n⚖️ Перед использованием изучите правила сервиса."
	return msg
}

func RulesMenu() string {
	return "📋 <b>Правила использования</b>\n\n" +
		"1. Используя бот, вы соглашаетесь с правилами сервиса.\n" +
		"2. Сервис предназначен для поиска информации о себе, проверки утечек и анализа цифрового следа.\n" +
		"3. Запрещены поиск данных без согласия владельца, мошенничество, продажа полученной информации, преследование и нарушение законов.\n" +
		fmt.Sprintf("4. Разовый поиск стоит %.0f₽, по подписке доступно %d поисков в день. Возврат средств не предусмотрен.\n", pricing.SearchPrice, pricing.DailySearchLimit) +
		"5. Ответственность за использование данных несёт пользователь. Нарушение правил ведёт к блокировке."
}

func TopUpMenu() string {
	return "💰 <b>Пополнение баланса</b>\n\nВыберите способ оплаты:"
}

func ChooseAmount() string {
	return "💰 <b>Выберите сумму пополнения</b>"
}

func ChooseCryptoAsset() string {
	return "🪙 <b>Выберите валюту оплаты</b>"
}

func CustomAmountPrompt() string {
	return "✍️ <b>Введите сумму</b>\n\n" +
		fmt.Sprintf("От %d до %d рублей, кратно %d.", pricing.MinTopUp, pricing.MaxTopUp, pricing.TopUpStep)
}

func CustomAmountInvalid(err error) string {
	msg := "🚫 <b>Неверная сумма</b>"
	if err != nil {
		msg += "\n" + Escape(err.Error())
	}
	return msg
}

func StarsInvoiceTitle(amountRub int) string {
	return fmt.Sprintf("Пополнение баланса на %d₽", amountRub)
}

func StarsInvoiceDescription(amountRub int) string {
	return fmt.Sprintf("Зачисление %d₽ на баланс поискового бота", amountRub)
}

func PaymentCompleted(amount float64, balance float64) string {
	return "✅ <b>Оплата прошла</b>\n\n" +
		fmt.Sprintf("💰 Зачислено: %.2f₽\n", amount) +
		fmt.Sprintf("💳 Баланс: %.2f₽", balance)
}

func PaymentFailed() string {
	return "🚫 <b>Не удалось зачислить платёж</b>\nОбратитесь в поддержку, средства не потеряны."
}

func CryptoInvoiceCreated(amountRub int, url string) string {
	return "🪙 <b>Счёт создан</b>\n\n" +
		fmt.Sprintf("Сумма: %d₽\n", amountRub) +
		fmt.Sprintf("Оплатите по ссылке: %s", Escape(url))
}

func CryptoInvoiceFailed() string {
	return "🚫 <b>Не удалось создать счёт</b>\nПопробуйте позже."
}

func SubscriptionMenu(balance float64) string {
	msg := "📅 <b>Подписка</b>\n\n" +
		fmt.Sprintf("💰 Ваш баланс: %.2f₽\n", balance) +
		fmt.Sprintf("🔍 Подписка даёт %d поисков в день.\n\n", pricing.DailySearchLimit)
	for _, t := range pricing.Tiers {
		msg += fmt.Sprintf("• %s — %.0f₽\n", t.Title, t.Price)
	}
	return msg
}

func SubscriptionActivated(tier pricing.Tier, until time.Time) string {
	return "✅ <b>Подписка активна</b>\n\n" +
		fmt.Sprintf("📅 Тариф: %s\n", tier.Title) +
		fmt.Sprintf("⏰ Действует до: %s", until.Format("02.01.2006 15:04"))
}

func SubscriptionInsufficientFunds(price, balance float64) string {
	return "🚫 <b>Недостаточно средств</b>\n\n" +
		fmt.Sprintf("Нужно %.0f₽, на балансе %.2f₽. Пополните баланс.", price, balance)
}

func ReferralInfo(botUsername, code string, total int, confirmed int64) string {
	return "👥 <b>Реферальная программа</b>\n\n" +
		fmt.Sprintf("Приглашайте друзей и получайте %.0f₽ за каждого, кто подпишется на канал.\n\n", pricing.ReferralBonus) +
		fmt.Sprintf("🔗 Ваша ссылка:\n<code>https://t.me/%s?start=%s</code>\n\n", Escape(botUsername), Escape(code)) +
		fmt.Sprintf("👤 Приглашено: %d\n", total) +
		fmt.Sprintf("✅ Подтверждено: %d", confirmed)
}

func ReferralJoined(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "Новый пользователь"
	}
	return fmt.Sprintf("👥 <b>%s</b> перешёл по вашей ссылке.", Escape(name))
}

func ReferralBonusCredited() string {
	return fmt.Sprintf("🎉 <b>+%.0f₽</b>\nВаш реферал подтвердил подписку на канал.", pricing.ReferralBonus)
}

func AdminPanel(st *types.Stats) string {
	return "⚙️ <b>Админ-панель</b>\n\n" +
		fmt.Sprintf("👤 Пользователей: %d\n", st.TotalUsers) +
		fmt.Sprintf("🔍 Поисков: %d\n", st.TotalSearches) +
		fmt.Sprintf("👥 Рефералов: %d\n", st.TotalReferrals) +
		fmt.Sprintf("📅 Активных подписок: %d\n", st.ActiveSubscriptions) +
		fmt.Sprintf("💰 Оборот поиска: %.2f₽\n\n", st.SearchRevenue) +
		"Начислить баланс: отправьте <code>ID сумма</code>"
}

func AdminGrantDone(userID int64, amount float64) string {
	return fmt.Sprintf("✅ Начислено %.2f₽ пользователю <code>%d</code>", amount, userID)
}

func AdminGrantReceived(amount float64) string {
	return fmt.Sprintf("🎁 <b>Вам начислено %.2f₽</b>", amount)
}

func AdminUserNotFound() string {
	return "🚫 Пользователь не найден"
}

func AdminBadGrantFormat() string {
	return "🚫 Формат: <code>ID сумма</code>, например <code>123456789 500</code>"
}

func AccessDenied() string {
	return "🚫 <b>Нет доступа</b>"
}

func ErrorDefault() string {
	return "🚫 <b>Ошибка</b>\nПопробуйте ещё раз."
}

func UnknownQuery() string {
	return "🤔 <b>Не понял запрос</b>\nОткройте меню: /start"
}
