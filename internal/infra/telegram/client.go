// internal/infra/telegram/client.go
package telegram

import (
	"net/http"
	"time"

	"gopkg.in/telebot.v3"
)

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the notifier from the specific bot library.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
	// GetMe calls getMe, which fails with telebot.ErrUnauthorized on a bad token.
	GetMe() error
}

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

// NewTelebotAdapter creates an offline bot: no request is made until the
// first GetMe or SendMessage.
func NewTelebotAdapter(token string, timeout time.Duration) (*TelebotAdapter, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &TelebotAdapter{bot: b}, nil
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(telebot.ChatID(chatID), text, options)
	return err
}

func (tba *TelebotAdapter) GetMe() error {
	_, err := tba.bot.Raw("getMe", map[string]string{})
	return err
}
