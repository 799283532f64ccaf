package main

import (
	"context"
	"log"
	"time"

	"vrnews-bot/config"
	"vrnews-bot/internal/bot"
	"vrnews-bot/internal/dialog"
	"vrnews-bot/internal/newsapi"
	"vrnews-bot/internal/scheduler"
	"vrnews-bot/internal/storage"
)

func main() {
	log.Println("Starting VR/AR News Bot...")

	ctx := context.Background()

	cfg := config.LoadConfig()

	dbStorage, err := storage.NewStorage(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStorage.Close()

	newsClient := newsapi.NewClient(cfg.NewsAPIKey, cfg.NewsAPIBaseURL, cfg.RequestTimeout())
	engine := dialog.NewEngine(dbStorage, newsClient)

	appScheduler, err := scheduler.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	appScheduler.AddJob("session_cleanup", cfg.CleanupInterval(), func() {
		removed, err := dbStorage.DeleteStaleSessions(time.Now().Add(-cfg.SessionTTL()))
		if err != nil {
			log.Printf("Session cleanup failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("Session cleanup removed %d stale sessions", removed)
		}
	})
	appScheduler.Start()
	defer appScheduler.Shutdown()

	telegramBot, err := bot.NewBot(ctx, &cfg, engine)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	log.Println("Bot is running...")
	telegramBot.Start()
}
