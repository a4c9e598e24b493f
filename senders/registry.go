package senders

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fiffu/stockwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	PlatformTelegram = "telegram"
	PlatformEmail    = "email"
)

type Sender interface {
	Send(ctx context.Context, recipient, text string) (string, error)
}

// Registry routes notifications to a Sender by platform.
type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	registry := Registry{
		PlatformTelegram: &telegramSender{base},
	}
	if cfg.MailgunEnabled() {
		registry[PlatformEmail] = &mailgunSender{base}
	}
	return registry
}

// PlatformFor picks the platform a user identifier belongs to. Chat ids are opaque, so anything
// that looks like an email address is mailed and everything else goes to the chat bot.
func PlatformFor(user string) string {
	if strings.Contains(user, "@") {
		return PlatformEmail
	}
	return PlatformTelegram
}

func (r Registry) Notify(ctx context.Context, user, text string) error {
	platform := PlatformFor(user)
	sender, ok := r[platform]
	if !ok {
		return fmt.Errorf("unsupported notifier platform: %s", platform)
	}
	_, err := sender.Send(ctx, user, text)
	return err
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
