package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signaldesk/internal/domain"
)

// sender is the part of tgbotapi.BotAPI we use
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NotificationService mirrors admin notifications into the admin Telegram chat
type NotificationService struct {
	bot      sender
	chatID   int64
	enabled  bool
	location *time.Location
}

// NewNotificationService connects the bot. An empty token or chat id yields a disabled
// service whose NotifyAdmin is a no-op.
func NewNotificationService(botToken string, chatID int64) (*NotificationService, error) {
	if botToken == "" || chatID == 0 {
		return &NotificationService{location: time.UTC}, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	return newWithSender(bot, chatID), nil
}

func newWithSender(bot sender, chatID int64) *NotificationService {
	return &NotificationService{
		bot:      bot,
		chatID:   chatID,
		enabled:  true,
		location: time.UTC,
	}
}

// Enabled reports whether messages are actually sent
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// NotifyAdmin implements domain.AdminChatNotifier
func (s *NotificationService) NotifyAdmin(ctx context.Context, n *domain.AdminNotification) error {
	if !s.enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, s.format(n))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (s *NotificationService) format(n *domain.AdminNotification) string {
	icon := "🔔"
	switch n.Kind {
	case domain.NotificationPurchase:
		icon = "💳"
	case domain.NotificationSignup:
		icon = "🆕"
	case domain.NotificationSubscriptionExpired:
		icon = "⌛"
	}

	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }

	return fmt.Sprintf(
		"%s *%s*\n\n"+
			"%s\n"+
			"━━━━━━━━━━━━━━━━━\n"+
			"🏷 Kind: `%s`\n"+
			"🕒 Time: `%s`",
		icon,
		esc(n.Title),
		esc(n.Message),
		n.Kind,
		n.CreatedAt.In(s.location).Format("2006-01-02 15:04:05 MST"),
	)
}
