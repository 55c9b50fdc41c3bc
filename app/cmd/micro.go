package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatdesk/pkg/cache"
	"github.com/chatdesk/pkg/config"
	"github.com/chatdesk/pkg/database"
	"github.com/chatdesk/pkg/domains/auth"
	"github.com/chatdesk/pkg/domains/campaign"
	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/messaging"
	"github.com/chatdesk/pkg/domains/receipt"
	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/logger"
	"github.com/chatdesk/pkg/server"
	"github.com/chatdesk/pkg/utils"
	"github.com/rs/zerolog"
)

func StartApp() {
	utils.LoadEnv()
	cfg, err := config.InitConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("init logger")
	}
	log = log.With().Str("app", cfg.App.Name).Logger()
	if cfg.App.JWTSecret == "" {
		log.Fatal().Msg("SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer database.Close(db)

	dedupe, closeRedis := cache.NewDeduper(cfg.Redis)
	defer closeRedis()

	receipts, closeGemini, err := receipt.NewService(ctx, cfg.Gemini, log)
	if err != nil {
		log.Fatal().Err(err).Msg("receipt extraction")
	}
	defer closeGemini()

	tenants := tenant.NewService(tenant.NewRepo(db), cfg.WhatsApp.APIVersion, log)
	chats := chat.NewService(chat.NewRepo(db), cfg.WhatsApp.CountryPrefix, log)
	sender := whatsapp.NewService(cfg.WhatsApp, log)
	msgs := messaging.NewService(tenants, chats, sender, dedupe, cfg.WhatsApp.CountryPrefix, log)
	campaigns := campaign.NewService(campaign.NewRepo(db), msgs, log)

	worker := campaign.NewWorker(campaigns, cfg.Campaigns.PollInterval, cfg.Campaigns.BatchSize, log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	router := server.NewRouter(cfg, server.Services{
		Auth:      auth.NewService(auth.NewRepo(db), cfg.App.JWTSecret, log),
		Tenants:   tenants,
		Chats:     chats,
		Messaging: msgs,
		Campaigns: campaigns,
		Receipts:  receipts,
	}, log)

	if err := server.Run(ctx, cfg.App, router, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
	stop()
	<-workerDone
	campaigns.Close()
	log.Info().Msg("bye")
}
