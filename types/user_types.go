package types

import "time"

type User struct {
	TelegramID         int64
	Username           string
	FirstName          string
	LastName           string
	Balance            float64
	SubscriptionTier   SubscriptionTier
	SubscriptionUntil  *time.Time
	DailySearchesUsed  int
	DailySearchesReset time.Time
	ReferralCode       string
	TotalReferrals     int
	IsAdmin            bool
	IsChannelMember    bool
	CreatedAt          time.Time
	LastActive         time.Time
}

// HasActiveSubscription reports whether the subscription window covers now.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionUntil != nil && now.Before(*u.SubscriptionUntil)
}

type Payment struct {
	UserID    int64
	Amount    float64
	Channel   PaymentChannel
	ChargeID  string
	Status    PaymentStatus
	CreatedAt time.Time
}

type SearchRecord struct {
	UserID        int64
	Query         string
	QueryType     string
	RawResult     []byte
	Cost          float64
	Success       bool
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}

// SessionState is the single transient input-mode record per user.
// Data carries the mode's payload, such as the chosen payment asset.
type SessionState struct {
	UserID    int64                  `json:"user_id"`
	Mode      SessionMode            `json:"mode"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type Stats struct {
	TotalUsers          int64
	TotalSearches       int64
	TotalReferrals      int64
	ActiveSubscriptions int64
	SearchRevenue       float64
}
