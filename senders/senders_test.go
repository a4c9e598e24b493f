package senders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fiffu/stockwatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	recipients []string
	texts      []string
}

func (r *recordingSender) Send(ctx context.Context, recipient, text string) (string, error) {
	r.recipients = append(r.recipients, recipient)
	r.texts = append(r.texts, text)
	return "id", nil
}

func TestPlatformFor(t *testing.T) {
	assert.Equal(t, PlatformTelegram, PlatformFor("123456789"))
	assert.Equal(t, PlatformTelegram, PlatformFor("-100200300"))
	assert.Equal(t, PlatformEmail, PlatformFor("someone@example.com"))
}

func TestRegistry_NotifyRoutesByPlatform(t *testing.T) {
	tg, mail := &recordingSender{}, &recordingSender{}
	r := Registry{PlatformTelegram: tg, PlatformEmail: mail}

	require.NoError(t, r.Notify(context.Background(), "42", "hello chat"))
	require.NoError(t, r.Notify(context.Background(), "a@b.c", "hello mail"))

	assert.Equal(t, []string{"42"}, tg.recipients)
	assert.Equal(t, []string{"hello chat"}, tg.texts)
	assert.Equal(t, []string{"a@b.c"}, mail.recipients)
}

func TestRegistry_NotifyUnknownPlatform(t *testing.T) {
	r := Registry{PlatformTelegram: &recordingSender{}}

	err := r.Notify(context.Background(), "a@b.c", "hello")
	assert.ErrorContains(t, err, "unsupported notifier platform")
}

func TestTelegramSender_PostsEvent(t *testing.T) {
	var got telegramEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, "Message sent")
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Telegram.EventURL = srv.URL + "/event"
	cfg.Telegram.TimeoutSecs = 5
	s := &telegramSender{base{zap.NewNop(), cfg, http.DefaultTransport}}

	reply, err := s.Send(context.Background(), "42", "S: In stock")
	require.NoError(t, err)
	assert.Equal(t, "Message sent", reply)
	assert.Equal(t, telegramEvent{UserID: "42", Message: "S: In stock"}, got)
}

func TestTelegramSender_ReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Telegram.EventURL = srv.URL
	cfg.Telegram.TimeoutSecs = 5
	s := &telegramSender{base{zap.NewNop(), cfg, http.DefaultTransport}}

	_, err := s.Send(context.Background(), "42", "hello")
	assert.Error(t, err)
}

func TestNewSenderRegistry_MailgunOnlyWhenConfigured(t *testing.T) {
	cfg := &config.Config{}
	r := NewSenderRegistry(nil, zap.NewNop(), cfg, http.DefaultTransport)
	assert.Contains(t, r, PlatformTelegram)
	assert.NotContains(t, r, PlatformEmail)

	cfg.Mailgun.Domain = "mg.example.com"
	cfg.Mailgun.APIKey = "key"
	r = NewSenderRegistry(nil, zap.NewNop(), cfg, http.DefaultTransport)
	assert.Contains(t, r, PlatformEmail)
}

func TestSubjectOf(t *testing.T) {
	assert.Equal(t, "Stockwatch: STRAIGHT BLAZER is available", subjectOf("STRAIGHT BLAZER is available\nS: In stock"))
}
