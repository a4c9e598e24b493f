package senders

import (
	"context"
	"time"

	"github.com/carlmjohnson/requests"
)

// telegramSender relays messages through the chat bot's event endpoint.
type telegramSender struct {
	base
}

type telegramEvent struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (s *telegramSender) Send(ctx context.Context, recipient, text string) (string, error) {
	timeout := time.Duration(s.cfg.Telegram.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reply string
	err := requests.URL(s.cfg.Telegram.EventURL).
		Transport(s.transport).
		BodyJSON(telegramEvent{UserID: recipient, Message: text}).
		ToString(&reply).
		Fetch(ctx)
	if err != nil {
		s.log.Sugar().Infow("Failed to relay message to bot", "user", recipient, "err", err)
	}
	return reply, err
}
