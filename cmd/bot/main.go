package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shift_approval_bot/internal/app"
	"shift_approval_bot/internal/infra/config"
	"shift_approval_bot/internal/infra/logger"
	"shift_approval_bot/internal/infra/scheduler"
	isheets "shift_approval_bot/internal/infra/sheets"
	"shift_approval_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Shift Approval Bot starting...")

	mainLogger := log.New(os.Stdout, "MAIN: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger.Printf("INFO: Configuration loaded. LogLevel: %s, Environment: %s, Timezone: %s", cfg.LogLevel, cfg.Environment, cfg.Timezone)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		mainLogger.Fatalf("FATAL: Invalid timezone %q: %v", cfg.Timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the spreadsheet gateway.
	client, err := isheets.NewClient(ctx, cfg.SpreadsheetID, cfg.ServiceAccountJSON)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create spreadsheet client: %v", err)
	}
	gateway := isheets.NewGateway(client, logger.Log.WithField("component", "sheets"))
	if err := gateway.EnsureDataValidations(ctx); err != nil {
		mainLogger.Fatalf("FATAL: Could not apply sheet data validations: %v", err)
	}
	mainLogger.Println("INFO: Spreadsheet gateway initialized.")

	// Application services.
	authRegistry := app.NewAuthRegistry()
	sessions := app.NewSessionStore()
	shiftService := app.NewShiftService(gateway, gateway, location)
	conversations := app.NewConversations(sessions, authRegistry, shiftService, logger.Log.WithField("component", "conversation"))
	mainLogger.Println("INFO: Application services initialized.")

	// Periodic re-application of the employees sheet validation rules.
	validationScheduler := scheduler.NewValidationScheduler(gateway, logger.Log.WithField("component", "scheduler"), cfg.CronSpecValidation)
	if err := validationScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: Could not start validation scheduler: %v", err)
	}

	// Initialize Telegram bot.
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Unhandled telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	telegram.RegisterHandlers(ctx, bot, authRegistry, conversations, shiftService, gateway, cfg.SheetLink(), logger.Log.WithField("component", "telegram"))
	mainLogger.Println("INFO: Handlers registered. Bot is starting...")

	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Println("INFO: Shutting down application...")
	validationScheduler.Stop()
	bot.Stop()
	mainLogger.Println("INFO: Application shut down gracefully.")
}
