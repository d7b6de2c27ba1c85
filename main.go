package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/telegrab/telegrab/cmd/bot"
	"github.com/telegrab/telegrab/internals/config"
)

const restartDelay = 5 * time.Second

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	// Last-resort recovery: any crash of the update loop restarts the whole
	// bot after a fixed delay. Individual jobs never reach this boundary.
	for {
		if err := run(cfg, logger); err != nil {
			logger.Error("bot crashed, restarting", "error", err, "delay", restartDelay)
		} else {
			logger.Warn("update stream closed, restarting", "delay", restartDelay)
		}
		time.Sleep(restartDelay)
	}
}

func run(cfg config.Config, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}
	logger.Info("bot is running", "username", api.Self.UserName, "cookies", cfg.HasCookies())

	bot.New(api, cfg, logger).Run()
	return nil
}
