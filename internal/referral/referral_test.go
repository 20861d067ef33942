package referral

import (
	"errors"
	"testing"

	"github.com/Essorvi/tgbeta-v8/types"
)

type fakeUserStore struct {
	types.UserStore

	byCode  map[string]*types.User
	credits map[int64]float64
	counts  map[int64]int
}

func (f *fakeUserStore) GetUserByReferralCode(code string) (*types.User, error) {
	u, ok := f.byCode[code]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (f *fakeUserStore) CreditBalance(telegramID int64, amount float64) (bool, error) {
	if f.credits == nil {
		f.credits = make(map[int64]float64)
	}
	f.credits[telegramID] += amount
	return true, nil
}

func (f *fakeUserStore) IncrementReferralCount(telegramID int64) error {
	if f.counts == nil {
		f.counts = make(map[int64]int)
	}
	f.counts[telegramID]++
	return nil
}

type edge struct {
	referrerID int64
	confirmed  bool
}

type fakeReferralStore struct {
	edges map[int64]*edge
}

func (f *fakeReferralStore) CreateReferral(referrerID, referredID int64) (bool, error) {
	if f.edges == nil {
		f.edges = make(map[int64]*edge)
	}
	if _, ok := f.edges[referredID]; ok {
		return false, nil
	}
	f.edges[referredID] = &edge{referrerID: referrerID}
	return true, nil
}

func (f *fakeReferralStore) ConfirmReferral(referredID int64) (int64, bool, error) {
	e, ok := f.edges[referredID]
	if !ok || e.confirmed {
		return 0, false, nil
	}
	e.confirmed = true
	return e.referrerID, true, nil
}

func (f *fakeReferralStore) CountConfirmed(referrerID int64) (int64, error) {
	var n int64
	for _, e := range f.edges {
		if e.referrerID == referrerID && e.confirmed {
			n++
		}
	}
	return n, nil
}

func newFixture() (*Service, *fakeUserStore, *fakeReferralStore) {
	users := &fakeUserStore{
		byCode: map[string]*types.User{
			"abc123": {TelegramID: 100, ReferralCode: "abc123"},
		},
	}
	referrals := &fakeReferralStore{}
	return NewService(users, referrals), users, referrals
}

func TestRegister(t *testing.T) {
	svc, users, _ := newFixture()

	referrerID, created, err := svc.Register(200, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !created || referrerID != 100 {
		t.Fatalf("register = (%d, %v), want (100, true)", referrerID, created)
	}
	if users.counts[100] != 1 {
		t.Fatalf("referral count = %d, want 1", users.counts[100])
	}

	// Second start with the same code changes nothing.
	_, created, err = svc.Register(200, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("duplicate start created a second edge")
	}
	if users.counts[100] != 1 {
		t.Fatalf("referral count after duplicate = %d, want 1", users.counts[100])
	}
}

func TestRegisterIgnoresSelfAndUnknown(t *testing.T) {
	svc, users, _ := newFixture()

	if _, created, err := svc.Register(100, "abc123"); err != nil || created {
		t.Fatalf("self referral = (%v, %v)", created, err)
	}
	if _, created, err := svc.Register(200, "nope"); err != nil || created {
		t.Fatalf("unknown code = (%v, %v)", created, err)
	}
	if _, created, err := svc.Register(200, ""); err != nil || created {
		t.Fatalf("empty code = (%v, %v)", created, err)
	}
	if len(users.credits) != 0 {
		t.Fatal("unexpected credits")
	}
}

func TestConfirmPaysOnce(t *testing.T) {
	svc, users, _ := newFixture()

	if _, _, err := svc.Register(200, "abc123"); err != nil {
		t.Fatal(err)
	}

	referrerID, paid, err := svc.Confirm(200)
	if err != nil {
		t.Fatal(err)
	}
	if !paid || referrerID != 100 {
		t.Fatalf("confirm = (%d, %v), want (100, true)", referrerID, paid)
	}
	if users.credits[100] != 25 {
		t.Fatalf("bonus = %v, want 25", users.credits[100])
	}

	// Re-running the channel check pays nothing more.
	_, paid, err = svc.Confirm(200)
	if err != nil {
		t.Fatal(err)
	}
	if paid {
		t.Fatal("second confirmation paid again")
	}
	if users.credits[100] != 25 {
		t.Fatalf("bonus after repeat = %v, want 25", users.credits[100])
	}
}

func TestConfirmWithoutEdge(t *testing.T) {
	svc, users, _ := newFixture()

	_, paid, err := svc.Confirm(999)
	if err != nil {
		t.Fatal(err)
	}
	if paid {
		t.Fatal("confirmation without edge paid")
	}
	if len(users.credits) != 0 {
		t.Fatal("unexpected credits")
	}
}
