package search

import (
	"regexp"
	"strings"
)

// QueryType classifies what kind of identifier a free-text query looks
// like. The classification is display-level only; the provider receives
// the raw query either way.
type QueryType int

const (
	TypeGeneral QueryType = iota
	TypePhone
	TypeEmail
	TypeCarPlate
	TypeNickname
	TypeIP
	TypeAddress
	TypeFullName
)

// Code is the stable tag stored with each search record.
func (t QueryType) Code() string {
	switch t {
	case TypePhone:
		return "phone"
	case TypeEmail:
		return "email"
	case TypeCarPlate:
		return "car_plate"
	case TypeNickname:
		return "nickname"
	case TypeIP:
		return "ip"
	case TypeAddress:
		return "address"
	case TypeFullName:
		return "full_name"
	}
	return "general"
}

// Label is the user-facing name shown in results.
func (t QueryType) Label() string {
	switch t {
	case TypePhone:
		return "📱 Телефон"
	case TypeEmail:
		return "📧 Email"
	case TypeCarPlate:
		return "🚗 Автомобиль"
	case TypeNickname:
		return "🆔 Никнейм"
	case TypeIP:
		return "🌐 IP-адрес"
	case TypeAddress:
		return "🏠 Адрес"
	case TypeFullName:
		return "👤 ФИО"
	}
	return "🔍 Общий поиск"
}

var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\+?[7-8]\d{10}$`),
		regexp.MustCompile(`^\+?\d{10,15}$`),
	}
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	carPlatePattern = regexp.MustCompile(`^[АВЕКМНОРСТУХ]\d{3}[АВЕКМНОРСТУХ]{2}\d{2,3}$`)
	nickPattern     = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	ipPattern       = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	nameWordPattern = regexp.MustCompile(`^[а-яА-ЯёЁa-zA-Z]+$`)

	addressKeywords = []string{"улица", "ул", "проспект", "пр", "переулок", "пер", "дом", "д", "квартира", "кв"}
)

// Detect classifies a query. Checks run in priority order; the phone
// check strips common formatting first so "+7 (900) 123-45-67" still
// matches.
func Detect(query string) QueryType {
	query = strings.TrimSpace(query)

	digits := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(query)
	for _, p := range phonePatterns {
		if p.MatchString(digits) {
			return TypePhone
		}
	}

	if emailPattern.MatchString(query) {
		return TypeEmail
	}

	if carPlatePattern.MatchString(strings.ToUpper(strings.ReplaceAll(query, " ", ""))) {
		return TypeCarPlate
	}

	if ipPattern.MatchString(query) {
		return TypeIP
	}

	if strings.HasPrefix(query, "@") || nickPattern.MatchString(query) {
		return TypeNickname
	}

	lower := strings.ToLower(query)
	for _, kw := range addressKeywords {
		if containsWord(lower, kw) {
			return TypeAddress
		}
	}

	words := strings.Fields(query)
	if len(words) >= 2 && len(words) <= 3 {
		allNames := true
		for _, w := range words {
			if !nameWordPattern.MatchString(w) {
				allNames = false
				break
			}
		}
		if allNames {
			return TypeFullName
		}
	}

	return TypeGeneral
}

// containsWord matches kw as a whole token, so "д" does not fire on
// every word containing the letter.
func containsWord(s, kw string) bool {
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.'
	}) {
		if tok == kw {
			return true
		}
	}
	return false
}
