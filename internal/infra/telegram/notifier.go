// internal/infra/telegram/notifier.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"iss_overhead_notifier/internal/domain/notification"
	"iss_overhead_notifier/internal/domain/tracking"

	"gopkg.in/telebot.v3"
)

// Notifier delivers the overhead alert to one Telegram chat.
// It implements notification.Notifier.
type Notifier struct {
	client Client
	chatID int64
	render func(notification.Payload) (string, error)
}

func NewNotifier(client Client, chatID int64) *Notifier {
	return &Notifier{client: client, chatID: chatID, render: notification.Payload.Body}
}

// telebot calls are not context aware; ctx is only checked before the call.
func (n *Notifier) Send(ctx context.Context, payload notification.Payload) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: telegram send: %v", tracking.ErrTransportFailure, err)
	}
	body, err := n.render(payload)
	if err != nil {
		return fmt.Errorf("telegram build message: %w", err)
	}

	text := notification.Subject + "\n\n" + body
	if err := n.client.SendMessage(n.chatID, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return classify(fmt.Sprintf("send to chat %d", n.chatID), err)
	}
	return nil
}

func (n *Notifier) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: telegram getMe: %v", tracking.ErrTransportFailure, err)
	}
	if err := n.client.GetMe(); err != nil {
		return classify("getMe", err)
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, telebot.ErrUnauthorized) {
		return fmt.Errorf("%w: telegram %s: %v", tracking.ErrAuthFailure, op, err)
	}
	return fmt.Errorf("%w: telegram %s: %v", tracking.ErrTransportFailure, op, err)
}
