package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/stockwatch/app"
	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib"
	"github.com/fiffu/stockwatch/lib/catalog"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/fiffu/stockwatch/lib/tracker"
	"github.com/fiffu/stockwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func options() fx.Option {
	return fx.Options(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(store.NewStore),
		fx.Provide(catalog.NewSource),
		fx.Provide(tracker.NewTracker),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server) {}),
	)
}

func main() {
	fx.New(options()).Run()
}
