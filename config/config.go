package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env          string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort   int    `env:"SERVER_PORT" envDefault:"5508"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"stockwatch.sqlite"`

	Tracker struct {
		Interval           time.Duration `env:"TRACKER_INTERVAL" envDefault:"5s"`
		Concurrency        int           `env:"TRACKER_CONCURRENCY" envDefault:"5"`
		TickTimeout        time.Duration `env:"TRACKER_TICK_TIMEOUT" envDefault:"20s"`
		FailureNoticeEvery time.Duration `env:"TRACKER_FAILURE_NOTICE_EVERY" envDefault:"0s"` // 0 sends a notice on every failed tick
	}
	Catalog struct {
		BaseURL     string `env:"CATALOG_BASE_URL" envDefault:"https://www.zara.com"`
		Locale      string `env:"CATALOG_LOCALE" envDefault:"nl/en"`
		StoreID     string `env:"CATALOG_STORE_ID" envDefault:"11709"`
		TimeoutSecs int    `env:"CATALOG_TIMEOUT_SECS" envDefault:"15"`
	}
	Telegram struct {
		EventURL    string `env:"TELEGRAM_EVENT_URL" envDefault:"http://telegram-bot:3000/event"`
		TimeoutSecs int    `env:"TELEGRAM_TIMEOUT_SECS" envDefault:"10"`
	}
	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM" envDefault:"stockwatch@localhost"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	log *zap.Logger
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		cfg.log.Sugar().Panic(err)
	}

	if !cfg.MailgunEnabled() {
		cfg.log.Sugar().Info("Email notifications are disabled since no Mailgun credentials are defined")
	}
	return cfg
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) MailgunEnabled() bool {
	return cfg.Mailgun.Domain != "" && cfg.Mailgun.APIKey != ""
}
