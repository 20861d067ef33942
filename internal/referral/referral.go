package referral

import (
	"fmt"

	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/types"
)

// Service maintains the referral ledger. Attribution happens on first
// contact with a referral code; the bonus is paid only after the
// referred user confirms the channel subscription, and only once.
type Service struct {
	users     types.UserStore
	referrals types.ReferralStore
}

func NewService(users types.UserStore, referrals types.ReferralStore) *Service {
	return &Service{users: users, referrals: referrals}
}

// Register attributes a new user to the owner of the code. Self
// referrals and repeated starts are ignored. The referrer id is
// returned when a fresh edge was created so the caller can notify.
func (s *Service) Register(referredID int64, code string) (referrerID int64, created bool, err error) {
	if code == "" {
		return 0, false, nil
	}
	referrer, err := s.users.GetUserByReferralCode(code)
	if err != nil {
		// Unknown code is a normal start, not a failure.
		return 0, false, nil
	}
	if referrer.TelegramID == referredID {
		return 0, false, nil
	}

	created, err = s.referrals.CreateReferral(referrer.TelegramID, referredID)
	if err != nil {
		return 0, false, fmt.Errorf("create referral: %w", err)
	}
	if !created {
		return 0, false, nil
	}

	if err := s.users.IncrementReferralCount(referrer.TelegramID); err != nil {
		return 0, false, fmt.Errorf("increment referral count: %w", err)
	}
	return referrer.TelegramID, true, nil
}

// Confirm pays the referrer bonus after the referred user passes the
// channel check. The ledger flip is conditional, so a second
// confirmation pays nothing.
func (s *Service) Confirm(referredID int64) (referrerID int64, paid bool, err error) {
	referrerID, flipped, err := s.referrals.ConfirmReferral(referredID)
	if err != nil {
		return 0, false, fmt.Errorf("confirm referral: %w", err)
	}
	if !flipped {
		return 0, false, nil
	}

	if _, err := s.users.CreditBalance(referrerID, pricing.ReferralBonus); err != nil {
		return referrerID, false, fmt.Errorf("credit referral bonus: %w", err)
	}
	return referrerID, true, nil
}

func (s *Service) CountConfirmed(referrerID int64) (int64, error) {
	return s.referrals.CountConfirmed(referrerID)
}
