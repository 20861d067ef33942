package payments

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Essorvi/tgbeta-v8/internal/pricing"
	"github.com/Essorvi/tgbeta-v8/types"
)

const starsPayloadPrefix = "stars_payment_"

// ErrDuplicateCharge marks a settlement notice whose external charge
// reference was already recorded. The caller treats it as already done.
var ErrDuplicateCharge = errors.New("charge already settled")

// BuildStarsPayload encodes the invoice payload carried through
// Telegram and returned verbatim in the settlement notice. The payload
// is the authoritative source of the credited amount.
func BuildStarsPayload(userID int64, amountRub int) string {
	return fmt.Sprintf("%s%d_%d", starsPayloadPrefix, userID, amountRub)
}

func ParseStarsPayload(payload string) (userID int64, amountRub int, err error) {
	rest, ok := strings.CutPrefix(payload, starsPayloadPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected payload %q", payload)
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected payload %q", payload)
	}
	userID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad user id in payload %q", payload)
	}
	amountRub, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad amount in payload %q", payload)
	}
	return userID, amountRub, nil
}

// Service settles confirmed payments against the ledger.
type Service struct {
	users    types.UserStore
	payments types.PaymentStore
}

func NewService(users types.UserStore, payments types.PaymentStore) *Service {
	return &Service{users: users, payments: payments}
}

// ApprovePreCheckout re-validates the payload before money moves.
// Telegram gives a short window to answer, so this path does no I/O.
func (s *Service) ApprovePreCheckout(fromID int64, payload string) error {
	userID, amountRub, err := ParseStarsPayload(payload)
	if err != nil {
		return err
	}
	if userID != fromID {
		return fmt.Errorf("payload user %d does not match payer %d", userID, fromID)
	}
	if _, err := pricing.ValidateCustomAmount(strconv.Itoa(amountRub)); err != nil {
		return fmt.Errorf("invalid invoice amount %d: %v", amountRub, err)
	}
	return nil
}

// SettleStars credits a confirmed Stars payment exactly once. The
// payload is the authoritative amount; if it is unreadable the charge
// is still settled from the star total so paid money never vanishes.
// The payment row is inserted before the credit; a redelivered notice
// loses the insert and no second credit happens.
func (s *Service) SettleStars(payload, chargeID string, payerID int64, totalStars int) (userID int64, amountRub float64, err error) {
	parsedID, parsedRub, err := ParseStarsPayload(payload)
	if err != nil {
		log.Printf("Settlement payload %q unreadable, using star total: %v", payload, err)
		userID = payerID
		amountRub = float64(totalStars) * pricing.RubPerStar
	} else {
		userID = parsedID
		amountRub = float64(parsedRub)
	}

	inserted, err := s.payments.RecordPayment(types.Payment{
		UserID:   userID,
		Amount:   amountRub,
		Channel:  types.ChannelStars,
		ChargeID: chargeID,
		Status:   types.PaymentCompleted,
	})
	if err != nil {
		return userID, amountRub, fmt.Errorf("record payment: %w", err)
	}
	if !inserted {
		return userID, amountRub, ErrDuplicateCharge
	}

	credited, err := s.users.CreditBalance(userID, amountRub)
	if err != nil {
		return userID, amountRub, fmt.Errorf("credit balance: %w", err)
	}
	if !credited {
		// Payment row stays for reconciliation even when the user row
		// is gone.
		log.Printf("Settlement %s: user %d not found, credit skipped", chargeID, userID)
		return userID, amountRub, fmt.Errorf("user %d not found", userID)
	}
	return userID, amountRub, nil
}

// GrantAdmin credits a manual adjustment. No external charge reference
// exists, so every grant inserts its own row.
func (s *Service) GrantAdmin(userID int64, amount float64) error {
	if _, err := s.users.GetUser(userID); err != nil {
		return err
	}
	if _, err := s.payments.RecordPayment(types.Payment{
		UserID:  userID,
		Amount:  amount,
		Channel: types.ChannelAdmin,
		Status:  types.PaymentCompleted,
	}); err != nil {
		return fmt.Errorf("record grant: %w", err)
	}
	if _, err := s.users.CreditBalance(userID, amount); err != nil {
		return fmt.Errorf("credit grant: %w", err)
	}
	return nil
}
