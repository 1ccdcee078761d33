package alert

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Telegram sends notifications to one chat through a bot.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	logger  *slog.Logger

	mu    sync.Mutex
	byTag map[string]int
}

// NewTelegram returns a dispatcher sending at most perSecond messages per
// second to chatID. perSecond <= 0 disables the limit.
func NewTelegram(bot *tgbotapi.BotAPI, chatID int64, perSecond float64, logger *slog.Logger) *Telegram {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With("component", "telegram"),
		byTag:   map[string]int{},
	}
}

func (t *Telegram) Dispatch(ctx context.Context, n Notification) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, n.Title+"\n"+n.Body)
	msg.DisableNotification = !n.RequireInteraction
	if isAbsoluteHTTP(n.URL) {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Open", n.URL)),
		)
	}

	sent, err := t.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	if n.Tag == "" {
		return nil
	}
	t.mu.Lock()
	prev, ok := t.byTag[n.Tag]
	t.byTag[n.Tag] = sent.MessageID
	t.mu.Unlock()

	if ok {
		if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(t.chatID, prev)); err != nil {
			t.logger.Warn("delete previous alert failed", "tag", n.Tag, "message_id", prev, "err", err)
		}
	}
	return nil
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
