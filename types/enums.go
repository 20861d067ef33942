package types

// SessionMode tags what the next free-text message from a user means.
// A live session record reroutes text away from the search flow.
type SessionMode string

const (
	ModeCustomAmountStars  SessionMode = "waiting_custom_amount_stars"
	ModeCustomAmountCrypto SessionMode = "waiting_custom_amount_crypto"
)

type SubscriptionTier string

const (
	TierNone  SubscriptionTier = ""
	TierDay   SubscriptionTier = "day"
	Tier3Days SubscriptionTier = "3days"
	TierMonth SubscriptionTier = "month"
)

type PaymentChannel string

const (
	ChannelStars  PaymentChannel = "stars"
	ChannelCrypto PaymentChannel = "crypto"
	ChannelAdmin  PaymentChannel = "admin"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentMethod records how a single search was paid for.
type PaymentMethod string

const (
	MethodBalance      PaymentMethod = "balance"
	MethodSubscription PaymentMethod = "subscription"
	MethodAdmin        PaymentMethod = "admin"
)
