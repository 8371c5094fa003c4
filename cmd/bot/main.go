package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrow-giveaway-bot/internal/bot"
	"escrow-giveaway-bot/internal/common/config"
	"escrow-giveaway-bot/internal/common/logger"
	gwservice "escrow-giveaway-bot/internal/features/giveaway/service"
	rdservice "escrow-giveaway-bot/internal/features/redeem/service"
	setservice "escrow-giveaway-bot/internal/features/settings/service"
	httpserver "escrow-giveaway-bot/internal/http"
	"escrow-giveaway-bot/internal/ledger"
	"escrow-giveaway-bot/internal/ledger/persist"
	"escrow-giveaway-bot/internal/platform/redis"
	"escrow-giveaway-bot/internal/platform/telegram"
	"escrow-giveaway-bot/internal/service/notifications"
)

func main() {
	cfg := config.Load()
	logger.Init("escrow-giveaway-bot", cfg.Debug)
	log := logger.Component("main")

	log.Info().Bool("debug", cfg.Debug).Str("storage", cfg.Storage.Backend).Msg("starting escrow giveaway bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var persister ledger.Persister
	switch cfg.Storage.Backend {
	case "redis":
		redisClient, err := redis.Open(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		persister = persist.NewRedisStore(redisClient, cfg.Redis.Key, logger.Component("persist"))
	default:
		persister = persist.NewFileStore(cfg.Storage.DataFile, logger.Component("persist"))
	}

	store, err := ledger.Open(ctx, persister, logger.Component("ledger"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open ledger")
	}

	tg, err := telegram.NewClient(cfg.Bot.Token, cfg.Debug, logger.Component("telegram"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to telegram")
	}

	notify := notifications.NewService(tg, store, cfg.Bot.OwnerID, logger.Component("notifications"))
	giveaways := gwservice.NewService(store, tg, notify, cfg.Bot.OwnerID, logger.Component("giveaways"))
	redeems := rdservice.NewService(store, notify, cfg.Bot.OwnerID, logger.Component("redeems"))
	settings := setservice.NewService(store, cfg.Bot.OwnerID, logger.Component("settings"))

	// pending expiries survive restarts through the ledger
	giveaways.RearmTimers()

	tgBot := bot.New(tg, giveaways, redeems, settings, cfg.Bot.OwnerID, logger.Component("bot"))
	go tgBot.Run(ctx)

	server := httpserver.NewServer(cfg, store, logger.Component("http"))
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("keepalive server failed")
		}
	}()
	go httpserver.SelfPing(ctx, cfg.Keepalive.PingURL, cfg.Keepalive.PingInterval, logger.Component("keepalive"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
	giveaways.Scheduler().Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("keepalive server shutdown failed")
	}
	if err := store.Flush(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("final ledger flush failed")
	}
	log.Info().Msg("bye")
}
