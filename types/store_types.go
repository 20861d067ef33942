package types

import "time"

// Profile carries the mutable identity fields refreshed on every update.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
	IsAdmin   bool
}

type UserStore interface {
	// GetOrCreateUser lazily creates the user on first contact and
	// refreshes profile fields + last-active otherwise. The admin flag
	// from the profile is applied at creation only.
	GetOrCreateUser(telegramID int64, profile Profile) (user *User, created bool, err error)
	GetUser(telegramID int64) (*User, error)
	GetUserByReferralCode(code string) (*User, error)
	ListUsers(limit int) ([]*User, error)

	// CreditBalance applies a relative increment; reports whether the
	// user existed.
	CreditBalance(telegramID int64, amount float64) (bool, error)
	// DebitBalanceIf subtracts amount only when balance >= amount.
	DebitBalanceIf(telegramID int64, amount float64) (bool, error)

	// ResetDailyCounter zeroes the counter and stamps the reset time.
	ResetDailyCounter(telegramID int64, at time.Time) error
	// IncrementDailySearches adds one while under cap; reports whether
	// the increment happened.
	IncrementDailySearches(telegramID int64, cap int) (bool, error)
	// ActivateSubscription overwrites the subscription window, resets
	// the daily counter and debits price in one atomic guarded update.
	ActivateSubscription(telegramID int64, tier SubscriptionTier, price float64, until time.Time) (bool, error)

	SetChannelMember(telegramID int64, member bool) error
	IncrementReferralCount(telegramID int64) error
}

type PaymentStore interface {
	// RecordPayment inserts a terminal payment record; a duplicate
	// external charge reference inserts nothing and reports false.
	RecordPayment(p Payment) (inserted bool, err error)
}

type SearchStore interface {
	RecordSearch(s SearchRecord) error
	CountSearches(userID int64, successOnly bool) (int64, error)
}

type ReferralStore interface {
	// CreateReferral inserts the (referrer, referred) edge; an existing
	// pair inserts nothing and reports false.
	CreateReferral(referrerID, referredID int64) (created bool, err error)
	// ConfirmReferral flips the single unconfirmed edge for the
	// referred user; reports the referrer and whether a flip happened.
	ConfirmReferral(referredID int64) (referrerID int64, confirmed bool, err error)
	CountConfirmed(referrerID int64) (int64, error)
}

type StatsStore interface {
	GetStats() (*Stats, error)
}

// StateStore is the per-user transient input-mode store. Set atomically
// replaces any prior record; Get returns nil when no record is live.
type StateStore interface {
	Set(userID int64, mode SessionMode, data map[string]interface{}) error
	Get(userID int64) (*SessionState, error)
	Clear(userID int64) error
}
