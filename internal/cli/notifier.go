package cli

import (
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rcliao/expiry-tracker/internal/alert"
	"github.com/rcliao/expiry-tracker/internal/notify"
	"github.com/rcliao/expiry-tracker/internal/store"
)

// newDispatcher builds the configured alert channels.
func newDispatcher() (alert.Dispatcher, error) {
	var out alert.Multi
	if cfg.Notify.Console {
		out = append(out, alert.NewConsole(os.Stderr))
	}
	if cfg.TelegramEnabled() {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		logger.Debug("telegram bot authorized", "bot", bot.Self.UserName)
		out = append(out, alert.NewTelegram(bot, cfg.Telegram.ChatID, cfg.Telegram.RateLimit, logger))
	}
	if len(out) == 0 {
		logger.Warn("no alert channel configured; alerts are dropped")
	}
	return out, nil
}

// newChecker wires a notification checker to s. Alerts are gated on the
// stored permission; this never prompts.
func newChecker(s *store.SQLiteStore) (*notify.Checker, error) {
	d, err := newDispatcher()
	if err != nil {
		return nil, err
	}
	c := notify.NewChecker(s, s, alert.NewPermission(s, nil), d, logger)
	c.History = s
	c.ClickURL = cfg.Notify.ClickURL
	return c, nil
}
