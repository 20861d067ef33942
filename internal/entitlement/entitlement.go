package entitlement

import (
	"fmt"
	"time"

	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/types"
)

// DenyReason explains a refused search so the handler can pick the
// right message.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyNoFunds
	DenyDailyLimit
)

type Decision struct {
	Allowed bool
	Method  types.PaymentMethod
	Reason  DenyReason
}

// Service decides whether a user may run a search and charges for it.
// The check and the charge are separate steps on purpose: the charge is
// a guarded store update, so two concurrent searches cannot both spend
// the same entitlement.
type Service struct {
	users types.UserStore
}

func NewService(users types.UserStore) *Service {
	return &Service{users: users}
}

// Evaluate decides how one search would be paid for, in strict order:
// admin, subscription quota, balance. A subscriber over the daily cap
// is denied outright; the balance path applies only without an active
// subscription.
func (s *Service) Evaluate(user *types.User, now time.Time) (Decision, error) {
	if user.IsAdmin {
		return Decision{Allowed: true, Method: types.MethodAdmin}, nil
	}

	if user.HasActiveSubscription(now) {
		used := user.DailySearchesUsed
		if counterStale(user.DailySearchesReset, now) {
			// The reset must be persisted before the counter is
			// compared, or a crashed handler re-reads yesterday's count.
			if err := s.users.ResetDailyCounter(user.TelegramID, now); err != nil {
				return Decision{}, fmt.Errorf("reset daily counter: %w", err)
			}
			used = 0
		}
		if used >= pricing.DailySearchLimit {
			return Decision{Reason: DenyDailyLimit}, nil
		}
		return Decision{Allowed: true, Method: types.MethodSubscription}, nil
	}

	if user.Balance >= pricing.SearchPrice {
		return Decision{Allowed: true, Method: types.MethodBalance}, nil
	}
	return Decision{Reason: DenyNoFunds}, nil
}

// counterStale reports whether the counter was last reset on an earlier
// UTC day.
func counterStale(lastReset, now time.Time) bool {
	y1, m1, d1 := lastReset.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// Consume charges for one search with the method Evaluate picked. The
// underlying updates are guarded, so a concurrent search that already
// spent the quota slot or the balance makes this report false instead
// of overdrawing.
func (s *Service) Consume(user *types.User, d Decision) (bool, error) {
	if !d.Allowed {
		return false, nil
	}

	switch d.Method {
	case types.MethodAdmin:
		return true, nil

	case types.MethodSubscription:
		ok, err := s.users.IncrementDailySearches(user.TelegramID, pricing.DailySearchLimit)
		if err != nil {
			return false, fmt.Errorf("increment daily searches: %w", err)
		}
		return ok, nil

	case types.MethodBalance:
		ok, err := s.users.DebitBalanceIf(user.TelegramID, pricing.SearchPrice)
		if err != nil {
			return false, fmt.Errorf("debit balance: %w", err)
		}
		return ok, nil
	}

	return false, nil
}
