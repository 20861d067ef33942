package entitlement

import (
	"testing"
	"time"

	"github.com/Essorvi/tgbeta-v8/types"
)

type fakeUserStore struct {
	types.UserStore

	user *types.User

	incrementOK bool
	debitOK     bool

	resets     int
	increments int
	debits     int
	credits    float64
}

func (f *fakeUserStore) ResetDailyCounter(telegramID int64, at time.Time) error {
	f.resets++
	f.user.DailySearchesUsed = 0
	f.user.DailySearchesReset = at
	return nil
}

func (f *fakeUserStore) IncrementDailySearches(telegramID int64, cap int) (bool, error) {
	f.increments++
	return f.incrementOK, nil
}

func (f *fakeUserStore) DebitBalanceIf(telegramID int64, amount float64) (bool, error) {
	f.debits++
	return f.debitOK, nil
}

func (f *fakeUserStore) CreditBalance(telegramID int64, amount float64) (bool, error) {
	f.credits += amount
	return true, nil
}

func activeUntil(t time.Time) *time.Time { return &t }

func TestEvaluateAdmin(t *testing.T) {
	now := time.Now()
	user := &types.User{TelegramID: 1, IsAdmin: true}
	svc := NewService(&fakeUserStore{user: user})

	d, err := svc.Evaluate(user, now)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed || d.Method != types.MethodAdmin {
		t.Fatalf("decision = %+v, want allowed admin", d)
	}
}

func TestEvaluateSubscriptionQuota(t *testing.T) {
	now := time.Now()
	user := &types.User{
		TelegramID:         1,
		SubscriptionTier:   types.TierDay,
		SubscriptionUntil:  activeUntil(now.Add(time.Hour)),
		DailySearchesUsed:  3,
		DailySearchesReset: now,
	}
	svc := NewService(&fakeUserStore{user: user})

	d, err := svc.Evaluate(user, now)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed || d.Method != types.MethodSubscription {
		t.Fatalf("decision = %+v, want allowed subscription", d)
	}
}

func TestEvaluateStaleCounterResets(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	user := &types.User{
		TelegramID:         1,
		SubscriptionTier:   types.TierMonth,
		SubscriptionUntil:  activeUntil(now.Add(24 * time.Hour)),
		DailySearchesUsed:  12,
		DailySearchesReset: now.Add(-24 * time.Hour),
	}
	store := &fakeUserStore{user: user}
	svc := NewService(store)

	d, err := svc.Evaluate(user, now)
	if err != nil {
		t.Fatal(err)
	}
	if store.resets != 1 {
		t.Fatalf("resets = %d, want 1", store.resets)
	}
	if !d.Allowed || d.Method != types.MethodSubscription {
		t.Fatalf("decision = %+v, want allowed subscription after reset", d)
	}
}

func TestEvaluateLimitDeniesDespiteBalance(t *testing.T) {
	now := time.Now()
	user := &types.User{
		TelegramID:         1,
		Balance:            1000,
		SubscriptionTier:   types.TierDay,
		SubscriptionUntil:  activeUntil(now.Add(time.Hour)),
		DailySearchesUsed:  12,
		DailySearchesReset: now,
	}
	svc := NewService(&fakeUserStore{user: user})

	d, err := svc.Evaluate(user, now)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Reason != DenyDailyLimit {
		t.Fatalf("decision = %+v, want denied daily-limit", d)
	}
}

func TestEvaluateBalanceWithoutSubscription(t *testing.T) {
	user := &types.User{TelegramID: 1, Balance: 25}
	svc := NewService(&fakeUserStore{user: user})

	d, err := svc.Evaluate(user, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed || d.Method != types.MethodBalance {
		t.Fatalf("decision = %+v, want allowed balance", d)
	}
}

func TestEvaluateDenied(t *testing.T) {
	now := time.Now()

	broke := &types.User{TelegramID: 1, Balance: 24.99}
	svc := NewService(&fakeUserStore{user: broke})
	d, err := svc.Evaluate(broke, now)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Reason != DenyNoFunds {
		t.Fatalf("decision = %+v, want denied no-funds", d)
	}

	capped := &types.User{
		TelegramID:         2,
		SubscriptionTier:   types.TierDay,
		SubscriptionUntil:  activeUntil(now.Add(time.Hour)),
		DailySearchesUsed:  12,
		DailySearchesReset: now,
	}
	svc = NewService(&fakeUserStore{user: capped})
	d, err = svc.Evaluate(capped, now)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Reason != DenyDailyLimit {
		t.Fatalf("decision = %+v, want denied daily-limit", d)
	}
}

func TestConsumeSubscriptionRaceRefuses(t *testing.T) {
	user := &types.User{TelegramID: 1}
	store := &fakeUserStore{user: user, incrementOK: false}
	svc := NewService(store)

	ok, err := svc.Consume(user, Decision{Allowed: true, Method: types.MethodSubscription})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected refused charge on lost quota race")
	}
	if store.increments != 1 || store.debits != 0 {
		t.Fatalf("increments=%d debits=%d, want 1/0", store.increments, store.debits)
	}
}

func TestConsumeBalanceRaceRefuses(t *testing.T) {
	user := &types.User{TelegramID: 1}
	store := &fakeUserStore{user: user, debitOK: false}
	svc := NewService(store)

	ok, err := svc.Consume(user, Decision{Allowed: true, Method: types.MethodBalance})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected refused charge on lost debit race")
	}
}

func TestConsumeCharges(t *testing.T) {
	user := &types.User{TelegramID: 1}
	store := &fakeUserStore{user: user, incrementOK: true, debitOK: true}
	svc := NewService(store)

	for _, method := range []types.PaymentMethod{types.MethodAdmin, types.MethodSubscription, types.MethodBalance} {
		ok, err := svc.Consume(user, Decision{Allowed: true, Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("consume with %s refused", method)
		}
	}
	if store.increments != 1 || store.debits != 1 {
		t.Fatalf("increments=%d debits=%d, want 1/1", store.increments, store.debits)
	}
}
