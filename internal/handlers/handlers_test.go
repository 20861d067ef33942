package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Essorvi/tgbeta-v8/internal/config"
	"github.com/Essorvi/tgbeta-v8/internal/entitlement"
	"github.com/Essorvi/tgbeta-v8/internal/payments"
	"github.com/Essorvi/tgbeta-v8/internal/referral"
	"github.com/Essorvi/tgbeta-v8/internal/search"
	"github.com/Essorvi/tgbeta-v8/types"
)

type fakeStateStore struct {
	mu     sync.Mutex
	states map[int64]*types.SessionState
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: map[int64]*types.SessionState{}}
}

func (f *fakeStateStore) Set(userID int64, mode types.SessionMode, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[userID] = &types.SessionState{UserID: userID, Mode: mode, Data: data}
	return nil
}

func (f *fakeStateStore) Get(userID int64) (*types.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[userID], nil
}

func (f *fakeStateStore) Clear(userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, userID)
	return nil
}

type fakeUserStore struct {
	types.UserStore
}

type fakeSearchStore struct {
	mu      sync.Mutex
	records []types.SearchRecord
}

func (f *fakeSearchStore) RecordSearch(s types.SearchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, s)
	return nil
}

func (f *fakeSearchStore) CountSearches(userID int64, successOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

type fakeReferralStore struct {
	types.ReferralStore
}

func (f *fakeReferralStore) CountConfirmed(referrerID int64) (int64, error) { return 0, nil }

type fakePaymentStore struct {
	types.PaymentStore
}

// telegramRecorder fakes the Bot API server so handlers exercise the
// real client end to end.
type telegramRecorder struct {
	mu    sync.Mutex
	calls []string
	texts []string
}

func (r *telegramRecorder) serve(w http.ResponseWriter, req *http.Request) {
	method := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]

	var text string
	if err := req.ParseMultipartForm(1 << 20); err == nil {
		text = req.FormValue("text")
	} else {
		body, _ := io.ReadAll(req.Body)
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(body, &payload)
		text = payload.Text
	}

	r.mu.Lock()
	r.calls = append(r.calls, method)
	r.texts = append(r.texts, text)
	r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasPrefix(method, "answer") {
		io.WriteString(w, `{"ok":true,"result":true}`)
		return
	}
	io.WriteString(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":1}}}`)
}

func (r *telegramRecorder) called(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (r *telegramRecorder) sawText(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.texts {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

type handlerEnv struct {
	handlers *Handlers
	bot      *bot.Bot
	telegram *telegramRecorder
	states   *fakeStateStore
	searches *fakeSearchStore

	providerHits int
	cryptoBodies []string
	providerSrv  *httptest.Server
	cryptoSrv    *httptest.Server
	telegramSrv  *httptest.Server
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	env := &handlerEnv{
		telegram: &telegramRecorder{},
		states:   newFakeStateStore(),
		searches: &fakeSearchStore{},
	}

	env.telegramSrv = httptest.NewServer(http.HandlerFunc(env.telegram.serve))
	t.Cleanup(env.telegramSrv.Close)

	env.providerSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		env.providerHits++
		io.WriteString(w, `{"status":"success","data":{"count":0,"items":[]}}`)
	}))
	t.Cleanup(env.providerSrv.Close)

	env.cryptoSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		env.cryptoBodies = append(env.cryptoBodies, string(body))
		io.WriteString(w, `{"ok":true,"result":{"invoice_id":7,"bot_invoice_url":"https://t.me/CryptoBot?start=x"}}`)
	}))
	t.Cleanup(env.cryptoSrv.Close)

	b, err := bot.New("123456:test-token", bot.WithServerURL(env.telegramSrv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatal(err)
	}
	env.bot = b

	users := &fakeUserStore{}
	cfg := &config.Config{BotUsername: "testbot", AdminUsername: "support"}
	env.handlers = NewHandlers(
		cfg,
		users,
		env.searches,
		nil,
		env.states,
		referral.NewService(users, &fakeReferralStore{}),
		entitlement.NewService(users),
		payments.NewService(users, &fakePaymentStore{}),
		payments.NewCryptobotClient(env.cryptoSrv.URL, "test-token"),
		search.NewClient(env.providerSrv.URL, "test-token"),
	)
	return env
}

func callbackUpdate(chatID int64, data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: 7, Chat: models.Chat{ID: chatID}},
			},
		},
	}
}

func messageUpdate(chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{Text: text, Chat: models.Chat{ID: chatID}},
	}
}

func TestCallbackNavigationClearsPendingState(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()
	user := &types.User{TelegramID: 42, IsAdmin: true, Balance: 1000}

	env.handlers.HandleCallback(ctx, env.bot, callbackUpdate(42, "stars_custom"), user)
	state, _ := env.states.Get(42)
	if state == nil || state.Mode != types.ModeCustomAmountStars {
		t.Fatalf("state after stars_custom = %+v, want custom stars mode", state)
	}

	env.handlers.HandleCallback(ctx, env.bot, callbackUpdate(42, "menu_main"), user)
	if state, _ := env.states.Get(42); state != nil {
		t.Fatalf("state survived menu navigation: %+v", state)
	}

	env.handlers.HandleMessage(ctx, env.bot, messageUpdate(42, "79001234567"), user)
	if env.providerHits != 1 {
		t.Fatalf("provider hits = %d, want 1; the message was rerouted by a stale record", env.providerHits)
	}
	if len(env.searches.records) != 1 {
		t.Fatalf("recorded searches = %d, want 1", len(env.searches.records))
	}
}

func TestHelpAndRulesMenus(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()
	user := &types.User{TelegramID: 42}

	env.handlers.HandleCallback(ctx, env.bot, callbackUpdate(42, "menu_help"), user)
	env.handlers.HandleCallback(ctx, env.bot, callbackUpdate(42, "menu_rules"), user)

	if got := env.telegram.called("editMessageText"); got != 2 {
		t.Fatalf("editMessageText calls = %d, want 2", got)
	}
	if !env.telegram.sawText("Справка") {
		t.Fatal("help menu body was never sent")
	}
	if !env.telegram.sawText("Правила использования") {
		t.Fatal("rules menu body was never sent")
	}
}

func TestCryptoCustomAmountCarriesAsset(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()
	user := &types.User{TelegramID: 42}

	env.handlers.HandleCallback(ctx, env.bot, callbackUpdate(42, "crypto_custom_usdt"), user)
	state, _ := env.states.Get(42)
	if state == nil || state.Mode != types.ModeCustomAmountCrypto {
		t.Fatalf("state after crypto_custom_usdt = %+v, want custom crypto mode", state)
	}
	if asset, _ := state.Data["asset"].(string); asset != "usdt" {
		t.Fatalf("state asset = %q, want usdt", asset)
	}

	env.handlers.HandleMessage(ctx, env.bot, messageUpdate(42, "500"), user)
	if len(env.cryptoBodies) != 1 {
		t.Fatalf("invoice requests = %d, want 1", len(env.cryptoBodies))
	}
	if !strings.Contains(env.cryptoBodies[0], `"accepted_assets":"USDT"`) {
		t.Fatalf("invoice request lost the asset: %s", env.cryptoBodies[0])
	}
	if state, _ := env.states.Get(42); state != nil {
		t.Fatalf("state survived amount input: %+v", state)
	}
}
