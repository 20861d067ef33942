package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-telegram/bot"

	"github.com/Essorvi/tgbeta-v8/internal/config"
	"github.com/Essorvi/tgbeta-v8/internal/entitlement"
	"github.com/Essorvi/tgbeta-v8/internal/handlers"
	"github.com/Essorvi/tgbeta-v8/internal/middleware"
	"github.com/Essorvi/tgbeta-v8/internal/payments"
	"github.com/Essorvi/tgbeta-v8/internal/referral"
	"github.com/Essorvi/tgbeta-v8/internal/search"
	"github.com/Essorvi/tgbeta-v8/internal/webapi"
	"github.com/Essorvi/tgbeta-v8/store"
)

func main() {
	_ = config.LoadEnvFile("config.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	redisDB := 0
	if cfg.RedisDB != "" {
		redisDB, err = strconv.Atoi(cfg.RedisDB)
		if err != nil {
			log.Printf("Invalid REDIS_DB value, using default: 0")
			redisDB = 0
		}
	}

	rdb, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, redisDB, "uzri_bot")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	stateStore := store.NewRedisStateStore(rdb, 24)

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	referralSvc := referral.NewService(pgStore, pgStore)
	entitlementSvc := entitlement.NewService(pgStore)
	settlementSvc := payments.NewService(pgStore, pgStore)
	cryptoClient := payments.NewCryptobotClient(cfg.CryptobotURL, cfg.CryptobotToken)
	providerClient := search.NewClient(cfg.UsersboxBaseURL, cfg.UsersboxToken)

	h := handlers.NewHandlers(
		cfg,
		pgStore,
		pgStore,
		pgStore,
		stateStore,
		referralSvc,
		entitlementSvc,
		settlementSvc,
		cryptoClient,
		providerClient,
	)

	handlerChain := middleware.Classify(
		middleware.ResolveUser(pgStore, cfg.AdminUsername)(
			h.MainHandler,
		),
	)

	api := webapi.NewServer(cfg.WebhookSecret, b, handlerChain, pgStore, pgStore)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
