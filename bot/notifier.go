package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// AdminNotifier delivers out-of-band messages to the configured admin chat.
// The bot instance is attached once the runtime is up; notifications before
// that fail instead of silently dropping.
type AdminNotifier struct {
	adminID int64
	bot     atomic.Pointer[tele.Bot]
}

// NewAdminNotifier builds a notifier for the given admin chat id.
func NewAdminNotifier(adminID int64) *AdminNotifier {
	return &AdminNotifier{adminID: adminID}
}

// Attach wires the running bot instance.
func (n *AdminNotifier) Attach(b *tele.Bot) {
	n.bot.Store(b)
}

// NotifyAdmin sends text to the admin chat.
func (n *AdminNotifier) NotifyAdmin(ctx context.Context, text string) error {
	b := n.bot.Load()
	if b == nil {
		return fmt.Errorf("notifier: bot not attached")
	}
	if n.adminID == 0 {
		return fmt.Errorf("notifier: admin chat not configured")
	}
	_, err := b.Send(&tele.User{ID: n.adminID}, text)
	if err != nil {
		return fmt.Errorf("notifier: send to admin: %w", err)
	}
	return nil
}
