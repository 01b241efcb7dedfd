package notify

import (
	"fmt"
	"html"
	"log/slog"
	"sync"

	"payments_backend/internal/logger"
	"payments_backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type message struct {
	eventType string
	payload   any
}

// TelegramNotifier tells admin chats about confirmed payments. Messages are
// sent from a single worker so Publish never waits on the Telegram API.
type TelegramNotifier struct {
	bot      Sender
	adminIDs []int64
	queue    chan message
	mu       sync.RWMutex
	stopped  bool
	done     chan struct{}
	log      *slog.Logger
}

// NewTelegramNotifier authorizes the bot token and starts the send worker.
func NewTelegramNotifier(token string, adminIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	n := NewNotifier(bot, adminIDs)
	n.log.Info("telegram notifier authorized", "username", bot.Self.UserName, "admins", len(adminIDs))
	return n, nil
}

// NewNotifier wraps an existing sender.
func NewNotifier(bot Sender, adminIDs []int64) *TelegramNotifier {
	n := &TelegramNotifier{
		bot:      bot,
		adminIDs: adminIDs,
		queue:    make(chan message, 100),
		done:     make(chan struct{}),
		log:      logger.With("component", "telegram_notifier"),
	}
	go n.run()
	return n
}

func (n *TelegramNotifier) Publish(eventType string, payload any) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stopped {
		return
	}

	select {
	case n.queue <- message{eventType: eventType, payload: payload}:
	default:
		n.log.Warn("notification queue full, dropping", "type", eventType)
	}
}

// Stop drains queued notifications and stops the worker.
func (n *TelegramNotifier) Stop() {
	n.mu.Lock()
	if !n.stopped {
		n.stopped = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *TelegramNotifier) run() {
	defer close(n.done)

	for m := range n.queue {
		text, ok := format(m)
		if !ok {
			continue
		}
		for _, adminID := range n.adminIDs {
			msg := tgbotapi.NewMessage(adminID, text)
			msg.ParseMode = "HTML"
			if _, err := n.bot.Send(msg); err != nil {
				n.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
			}
		}
	}
}

func format(m message) (string, bool) {
	if m.eventType != service.EventPaymentConfirmed {
		return "", false
	}
	ev, ok := m.payload.(service.PaymentConfirmedEvent)
	if !ok {
		return "", false
	}

	return fmt.Sprintf(`✅ <b>Payment confirmed</b>

💰 %s %s
🧾 Order: <code>%s</code>
💳 Payment: <code>%s</code>`,
		html.EscapeString(ev.Amount), html.EscapeString(ev.Currency),
		html.EscapeString(ev.OrderID), html.EscapeString(ev.PaymentID)), true
}
