package lib

import (
	"context"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/catalog"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/fiffu/stockwatch/lib/tracker"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	catalog catalog.Source
	tracker *tracker.Tracker
}

// SubscribeResult is either an upsert outcome or a request to pick sizes first.
type SubscribeResult struct {
	Created               bool
	SizesUpdated          bool
	RequiresSizeSelection bool
	Sizes                 []string
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, store *store.Store, source catalog.Source, tracker *tracker.Tracker) *Service {
	svc := &Service{cfg, log, store, source, tracker}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Restore(ctx)
		},
	})

	return svc
}

func (svc *Service) Subscribe(ctx context.Context, user, ref string, sizes models.SizeSet) (*SubscribeResult, error) {
	product, err := svc.catalog.ResolveProduct(ctx, ref)
	if err != nil {
		return nil, err
	}

	intake, err := gateSizes(product.Labels(), models.NewSizeSet(sizes))
	if err != nil {
		return nil, err
	}

	upsert, err := svc.store.Subscribe(ctx, user, product.ToModel(), intake.Sizes)
	if err != nil {
		return nil, err
	}

	if !intake.Track() {
		svc.log.Sugar().Infow("Size selection required", "user", user, "url", product.URL, "sizes", intake.Candidates)
		return &SubscribeResult{RequiresSizeSelection: true, Sizes: intake.Candidates}, nil
	}

	// A duplicate call leaves the stored selection alone, so the job tracks what the store holds.
	effective := intake.Sizes
	if !upsert.Created && !upsert.SizesUpdated {
		if effective, err = svc.store.GetSelectedSizes(ctx, user, product.URL); err != nil {
			return nil, err
		}
	}

	svc.tracker.Schedule(user, product.URL, effective)
	if err := svc.store.SetTracking(ctx, user, product.URL, true); err != nil {
		svc.log.Sugar().Errorw("Failed to mark subscription as tracking", "user", user, "url", product.URL, "err", err)
	}

	return &SubscribeResult{Created: upsert.Created, SizesUpdated: upsert.SizesUpdated, Sizes: effective}, nil
}

func (svc *Service) Unsubscribe(ctx context.Context, user, ref string) (bool, error) {
	url, err := svc.catalog.CanonicalURL(ref)
	if err != nil {
		return false, err
	}

	removed, err := svc.store.RemoveSubscription(ctx, user, url)
	if err != nil {
		return false, err
	}
	if svc.tracker.Remove(user, url) {
		removed = true
	}
	return removed, nil
}

func (svc *Service) ListSubscriptions(ctx context.Context, user string) ([]store.SubscriptionView, error) {
	return svc.store.ListSubscriptions(ctx, user)
}

func (svc *Service) ParseReference(ref string) (catalog.Ref, error) {
	return catalog.ParseRef(ref)
}

// Restore schedules a job for every subscription that was being tracked before the process stopped.
// Jobs are keyed by the canonical URL, and stored products still carrying an older URL are moved
// to it, so fulfillment and later re-subscribes find the same job and row.
func (svc *Service) Restore(ctx context.Context) error {
	subs, err := svc.store.ListTracking(ctx)
	if err != nil {
		return err
	}

	refreshed := make(map[string]bool)
	for _, sub := range subs {
		url, err := svc.catalog.CanonicalURL(sub.URL)
		if err != nil {
			svc.log.Sugar().Warnw("Keeping stored url that no longer parses", "user", sub.UserID, "url", sub.URL, "err", err)
			url = sub.URL
		}

		if url != sub.URL && !refreshed[sub.URL] {
			product := &models.Product{CatalogID: sub.CatalogID, Name: sub.Name, Version: sub.Version, URL: url}
			if _, err := svc.store.UpsertProduct(ctx, product); err != nil {
				return err
			}
			refreshed[sub.URL] = true
			svc.log.Sugar().Infow("Moved product to canonical url", "from", sub.URL, "to", url)
		}

		svc.tracker.Schedule(sub.UserID, url, sub.SelectedSizes)
	}
	svc.log.Sugar().Infof("Restored %d tracked subscriptions", len(subs))
	return nil
}
