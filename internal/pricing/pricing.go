package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Essorvi/tgbeta-v8/types"
)

// All money amounts are rubles.
const (
	SearchPrice = 25.0

	// Subscription holders get a fixed number of searches per day.
	DailySearchLimit = 12

	ReferralBonus = 25.0

	// Telegram Stars conversion: 1 star buys 2 rubles of balance.
	RubPerStar = 2.0

	MinTopUp  = 100
	MaxTopUp  = 50000
	TopUpStep = 50
)

type Tier struct {
	Code     types.SubscriptionTier
	Title    string
	Price    float64
	Duration time.Duration
}

var Tiers = []Tier{
	{Code: types.TierDay, Title: "1 день", Price: 149, Duration: 24 * time.Hour},
	{Code: types.Tier3Days, Title: "3 дня", Price: 299, Duration: 3 * 24 * time.Hour},
	{Code: types.TierMonth, Title: "1 месяц", Price: 1700, Duration: 30 * 24 * time.Hour},
}

func TierByCode(code types.SubscriptionTier) (Tier, bool) {
	for _, t := range Tiers {
		if t.Code == code {
			return t, true
		}
	}
	return Tier{}, false
}

// StarsForRub converts a ruble top-up into the star price, rounding up
// so the bot never undercharges.
func StarsForRub(rub int) int {
	stars := rub / int(RubPerStar)
	if rub%int(RubPerStar) != 0 {
		stars++
	}
	return stars
}

// ValidateCustomAmount parses a user-typed top-up amount. Checks run
// in order, first failure wins. Only whole ruble amounts are accepted;
// fractional input is rejected rather than truncated.
func ValidateCustomAmount(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("пустая сумма")
	}
	amount, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("сумма должна быть целым числом")
	}
	if amount < MinTopUp {
		return 0, fmt.Errorf("минимальная сумма: %d₽", MinTopUp)
	}
	if amount%TopUpStep != 0 {
		return 0, fmt.Errorf("сумма должна быть кратна %d₽", TopUpStep)
	}
	if amount > MaxTopUp {
		return 0, fmt.Errorf("максимальная сумма: %d₽", MaxTopUp)
	}
	return amount, nil
}
