package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib"
	"github.com/fiffu/stockwatch/lib/catalog"
	"github.com/fiffu/stockwatch/lib/errs"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service is what the HTTP layer needs from lib.Service.
type Service interface {
	Subscribe(ctx context.Context, user, ref string, sizes models.SizeSet) (*lib.SubscribeResult, error)
	Unsubscribe(ctx context.Context, user, ref string) (bool, error)
	ListSubscriptions(ctx context.Context, user string) ([]store.SubscriptionView, error)
	ParseReference(ref string) (catalog.Ref, error)
}

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Sugar().Errorw("HTTP server stopped", "err", err)
				}
			}()
			log.Sugar().Infof("Listening on %s", addr)
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(log *zap.Logger, svc Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/follow/{chat_id}", func(r chi.Router) {
		r.Post("/", ctrl.follow)
		r.Delete("/", ctrl.unfollow)
		r.Get("/", ctrl.list)
	})
	r.Get("/item", ctrl.parseItem)

	return r
}

type controller struct {
	log *zap.Logger
	svc Service
}

// reject writes err with the status matching its kind.
func (ctrl *controller) reject(w http.ResponseWriter, err error) {
	status := errs.StatusOf(err)
	view := ErrorView{Error: err.Error()}

	var e *errs.Error
	if errors.As(err, &e) {
		view.Details = e.Details
	}
	if status >= http.StatusInternalServerError {
		ctrl.log.Sugar().Errorw("Request failed", "status", status, "err", err)
	}
	ctrl.resolve(w, status, view)
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		ctrl.log.Sugar().Errorw("Failed to encode response", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (ctrl *controller) follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := chi.URLParam(r, "chat_id")
	url := r.URL.Query().Get("url")
	if url == "" {
		ctrl.reject(w, errs.Validation("url is required"))
		return
	}

	res, err := ctrl.svc.Subscribe(ctx, chatID, url, parseSizes(r))
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SubscribeView{}.From(res))
}

func (ctrl *controller) unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := chi.URLParam(r, "chat_id")
	url := r.URL.Query().Get("url")
	if url == "" {
		ctrl.reject(w, errs.Validation("url is required"))
		return
	}

	removed, err := ctrl.svc.Unsubscribe(ctx, chatID, url)
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"removed": removed})
}

func (ctrl *controller) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := chi.URLParam(r, "chat_id")

	subs, err := ctrl.svc.ListSubscriptions(ctx, chatID)
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[store.SubscriptionView, SubscriptionView](subs))
}

func (ctrl *controller) parseItem(w http.ResponseWriter, r *http.Request) {
	ref, err := ctrl.svc.ParseReference(r.URL.Query().Get("url"))
	if err != nil {
		ctrl.reject(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, ref)
}

// parseSizes reads the comma separated sizes parameter. A missing parameter is no selection,
// while "sizes=" is an explicit empty one.
func parseSizes(r *http.Request) models.SizeSet {
	values, ok := r.URL.Query()["sizes"]
	if !ok {
		return nil
	}
	return models.NewSizeSet(strings.Split(strings.Join(values, ","), ","))
}
