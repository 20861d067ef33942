package search

import (
	"fmt"
	"strings"

	"github.com/Essorvi/tgbeta-v8/internal/messages"
)

var databaseNames = map[string]string{
	"yandex":        "🟡 Яндекс",
	"avito":         "🟢 Авито",
	"vk":            "🔵 ВКонтакте",
	"ok":            "🟠 Одноклассники",
	"delivery_club": "🍕 Delivery Club",
	"cdek":          "📦 СДЭК",
}

var genderNames = map[string]string{
	"1": "Ж", "2": "М", "male": "М", "female": "Ж",
}

const (
	maxSources      = 5
	maxHitsPerBlock = 2
)

// FormatResult renders a provider response as a Telegram HTML message.
func FormatResult(result *Result, query string, queryType QueryType) string {
	if result.Failed() {
		msg := "Неизвестная ошибка"
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return fmt.Sprintf("❌ <b>Ошибка:</b> %s", messages.Escape(msg))
	}

	if result.Data.Count == 0 {
		return fmt.Sprintf("🔍 <b>Поиск:</b> <code>%s</code>\n%s\n\n❌ <b>Результатов не найдено</b>\n\n💡 Попробуйте изменить формат запроса",
			messages.Escape(query), queryType.Label())
	}

	var b strings.Builder
	b.WriteString("🎯 <b>РЕЗУЛЬТАТЫ ПОИСКА</b>\n\n")
	fmt.Fprintf(&b, "🔍 <b>Запрос:</b> <code>%s</code>\n", messages.Escape(query))
	fmt.Fprintf(&b, "📂 <b>Тип:</b> %s\n", queryType.Label())
	fmt.Fprintf(&b, "📊 <b>Найдено:</b> %d записей\n\n", result.Data.Count)

	if len(result.Data.Items) > 0 {
		b.WriteString("📋 <b>ДАННЫЕ ИЗ БАЗ:</b>\n\n")
		for i, sourceHits := range result.Data.Items {
			if i >= maxSources {
				break
			}
			writeSource(&b, i+1, sourceHits)
		}
	}

	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString("🔒 <b>Конфиденциальность:</b> используйте данные ответственно")
	return b.String()
}

func writeSource(b *strings.Builder, n int, sh SourceHits) {
	display, ok := databaseNames[sh.Source.Database]
	if !ok {
		name := sh.Source.Database
		if name == "" {
			name = "N/A"
		}
		display = "📊 " + messages.Escape(name)
	}

	hitsCount := sh.Hits.HitsCount
	if hitsCount == 0 {
		hitsCount = sh.Hits.Count
	}

	fmt.Fprintf(b, "<b>%d. %s</b>\n", n, display)
	collection := sh.Source.Collection
	if collection == "" {
		collection = "N/A"
	}
	fmt.Fprintf(b, "📁 База: %s\n", messages.Escape(collection))
	fmt.Fprintf(b, "🔢 Записей: %d\n", hitsCount)

	if len(sh.Hits.Items) > 0 {
		b.WriteString("💾 <b>Данные:</b>\n")
		for i, item := range sh.Hits.Items {
			if i >= maxHitsPerBlock {
				break
			}
			writeHit(b, item)
		}
	}
	b.WriteString("\n")
}

func writeHit(b *strings.Builder, item map[string]interface{}) {
	for key, value := range item {
		if strings.HasPrefix(key, "_") {
			continue
		}
		text := messages.Escape(fmt.Sprintf("%v", value))
		switch key {
		case "phone", "телефон", "tel", "mobile":
			fmt.Fprintf(b, "📞 %s\n", text)
		case "email", "почта", "mail", "e_mail":
			fmt.Fprintf(b, "📧 %s\n", text)
		case "full_name", "name", "имя", "фио", "first_name", "last_name":
			fmt.Fprintf(b, "👤 %s\n", text)
		case "birth_date", "birthday", "дата_рождения", "bdate":
			fmt.Fprintf(b, "🎂 %s\n", text)
		case "address", "адрес", "city", "город":
			fmt.Fprintf(b, "🏠 %s\n", text)
		case "sex", "gender", "пол":
			g := fmt.Sprintf("%v", value)
			if mapped, ok := genderNames[g]; ok {
				g = mapped
			}
			fmt.Fprintf(b, "⚥ %s\n", messages.Escape(g))
		}
	}
}
