package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Essorvi/tgbeta-v8/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var ErrUserNotFound = errors.New("user not found")

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = buildPostgresDSNFromEnv()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("POSTGRES_PORT"))
	if port == "" {
		port = "5432"
	}
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if db == "" {
		db = "uzri_bot"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "uzri_bot"
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

const userColumns = `
telegram_id, username, first_name, last_name, balance,
subscription_tier, subscription_until, daily_searches_used, daily_searches_reset,
referral_code, total_referrals, is_admin, is_channel_member, created_at, last_active`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Balance,
		&u.SubscriptionTier, &u.SubscriptionUntil, &u.DailySearchesUsed, &u.DailySearchesReset,
		&u.ReferralCode, &u.TotalReferrals, &u.IsAdmin, &u.IsChannelMember, &u.CreatedAt, &u.LastActive,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetOrCreateUser(telegramID int64, profile types.Profile) (*types.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
INSERT INTO users (telegram_id, username, first_name, last_name, referral_code, is_admin)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (telegram_id) DO NOTHING
`, telegramID, strings.TrimSpace(profile.Username), strings.TrimSpace(profile.FirstName),
		strings.TrimSpace(profile.LastName), newReferralCode(), profile.IsAdmin)
	if err != nil {
		return nil, false, err
	}
	created := tag.RowsAffected() > 0

	if !created {
		// The admin flag is fixed at creation and never refreshed.
		_, err = s.pool.Exec(ctx, `
UPDATE users SET
  username = $2,
  first_name = $3,
  last_name = $4,
  last_active = NOW()
WHERE telegram_id = $1
`, telegramID, strings.TrimSpace(profile.Username), strings.TrimSpace(profile.FirstName), strings.TrimSpace(profile.LastName))
		if err != nil {
			return nil, false, err
		}
	}

	u, err := s.GetUser(telegramID)
	if err != nil {
		return nil, false, err
	}
	return u, created, nil
}

func newReferralCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (s *PostgresStore) GetUser(telegramID int64) (*types.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) GetUserByReferralCode(code string) (*types.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(limit int) ([]*types.User, error) {
	if limit <= 0 {
		limit = 1000
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*types.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Balance writes are relative increments so concurrent credits from the
// settlement, referral and admin paths commute.
func (s *PostgresStore) CreditBalance(telegramID int64, amount float64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE users SET balance = balance + $2 WHERE telegram_id = $1
`, telegramID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DebitBalanceIf is the guarded debit: the WHERE clause makes two
// concurrent searches unable to both pass on one search's worth of funds.
func (s *PostgresStore) DebitBalanceIf(telegramID int64, amount float64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE users SET balance = balance - $2 WHERE telegram_id = $1 AND balance >= $2
`, telegramID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ResetDailyCounter(telegramID int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE users SET daily_searches_used = 0, daily_searches_reset = $2 WHERE telegram_id = $1
`, telegramID, at.UTC())
	return err
}

func (s *PostgresStore) IncrementDailySearches(telegramID int64, cap int) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE users SET daily_searches_used = daily_searches_used + 1
WHERE telegram_id = $1 AND daily_searches_used < $2
`, telegramID, cap)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ActivateSubscription overwrites any prior window: tier, expiry and the
// daily counter are replaced and the price debited in one guarded update.
func (s *PostgresStore) ActivateSubscription(telegramID int64, tier types.SubscriptionTier, price float64, until time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE users SET
  subscription_tier = $2,
  subscription_until = $3,
  daily_searches_used = 0,
  daily_searches_reset = NOW(),
  balance = balance - $4
WHERE telegram_id = $1 AND balance >= $4
`, telegramID, tier, until.UTC(), price)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SetChannelMember(telegramID int64, member bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE users SET is_channel_member = $2 WHERE telegram_id = $1
`, telegramID, member)
	return err
}

func (s *PostgresStore) IncrementReferralCount(telegramID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE users SET total_referrals = total_referrals + 1 WHERE telegram_id = $1
`, telegramID)
	return err
}

// RecordPayment is the settlement idempotency gate: the external charge
// reference is unique, so a redelivered notice inserts nothing.
func (s *PostgresStore) RecordPayment(p types.Payment) (inserted bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
INSERT INTO payments (user_id, amount, channel, charge_id, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (charge_id) WHERE charge_id <> '' DO NOTHING
`, p.UserID, p.Amount, p.Channel, strings.TrimSpace(p.ChargeID), p.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) RecordSearch(rec types.SearchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	raw := rec.RawResult
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO searches (user_id, query, query_type, raw_result, cost, success, payment_method)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, rec.UserID, rec.Query, rec.QueryType, raw, rec.Cost, rec.Success, rec.PaymentMethod)
	return err
}

func (s *PostgresStore) CountSearches(userID int64, successOnly bool) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q := `SELECT COUNT(*) FROM searches WHERE user_id = $1`
	if successOnly {
		q += ` AND success`
	}
	var n int64
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) CreateReferral(referrerID, referredID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
INSERT INTO referrals (referrer_id, referred_id)
VALUES ($1, $2)
ON CONFLICT (referrer_id, referred_id) DO NOTHING
`, referrerID, referredID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ConfirmReferral flips at most one unconfirmed edge. The conditional
// update makes a repeated confirmation a no-op, so the referrer bonus
// cannot be credited twice.
func (s *PostgresStore) ConfirmReferral(referredID int64) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var referrerID int64
	err := s.pool.QueryRow(ctx, `
UPDATE referrals SET confirmed = TRUE
WHERE ctid = (
  SELECT ctid FROM referrals
  WHERE referred_id = $1 AND NOT confirmed
  ORDER BY created_at
  LIMIT 1
)
RETURNING referrer_id
`, referredID).Scan(&referrerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return referrerID, true, nil
}

func (s *PostgresStore) CountConfirmed(referrerID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var n int64
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM referrals WHERE referrer_id = $1 AND confirmed
`, referrerID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) GetStats() (*types.Stats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var st types.Stats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM searches),
  (SELECT COUNT(*) FROM referrals),
  (SELECT COUNT(*) FROM users WHERE subscription_until > NOW()),
  (SELECT COALESCE(SUM(cost), 0) FROM searches)
`).Scan(&st.TotalUsers, &st.TotalSearches, &st.TotalReferrals, &st.ActiveSubscriptions, &st.SearchRevenue)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
