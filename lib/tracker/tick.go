package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/fiffu/stockwatch/lib/catalog"
	"github.com/fiffu/stockwatch/lib/models"
)

// tick checks the job's product once. It returns true when the job reached its terminal state
// and must not be re-armed.
func (t *Tracker) tick(ctx context.Context, j *job) bool {
	t.metrics.ticks.Add(1)

	product, err := t.catalog.ResolveProduct(ctx, j.key.URL)
	var avail catalog.Availability
	if err == nil {
		avail, err = t.catalog.FetchAvailability(ctx, product.ID)
	}
	if err != nil {
		t.handleFailure(ctx, j, err)
		return false
	}

	checked := checkSet(product.Stock(avail), j.sizes)
	if !anyInStock(checked) {
		t.metrics.waiting.Add(1)
		t.log.Sugar().Debugw("Nothing in stock yet", "user", j.key.User, "url", j.key.URL, "job_id", j.id, "checked", len(checked))
		return false
	}

	if !t.claim(j) {
		t.metrics.dropped.Add(1)
		t.log.Sugar().Infow("Job went away before fulfillment", "user", j.key.User, "url", j.key.URL, "job_id", j.id)
		return true
	}
	t.metrics.fulfilled.Add(1)

	if err := t.notifier.Notify(ctx, j.key.User, composeReport(product, checked)); err != nil {
		t.log.Sugar().Errorw("Failed to send stock notice", "user", j.key.User, "url", j.key.URL, "err", err)
	}

	// The subscription is gone once the notice went out, even if the tick deadline passed meanwhile.
	if _, err := t.store.RemoveSubscription(context.WithoutCancel(ctx), j.key.User, j.key.URL); err != nil {
		t.log.Sugar().Errorw("Failed to delete fulfilled subscription", "user", j.key.User, "url", j.key.URL, "err", err)
	}

	t.log.Sugar().Infow("Fulfilled subscription", "user", j.key.User, "url", j.key.URL, "job_id", j.id)
	return true
}

func (t *Tracker) handleFailure(ctx context.Context, j *job, err error) {
	t.metrics.errored.Add(1)
	t.log.Sugar().Warnw("Product could not be checked", "user", j.key.User, "url", j.key.URL, "job_id", j.id, "err", err)

	if t.ctx.Err() != nil || !t.isCurrent(j) || !t.notices.Allow(j.key) {
		return
	}

	text := fmt.Sprintf("%s could not be checked right now, will keep trying.", j.key.URL)
	if err := t.notifier.Notify(ctx, j.key.User, text); err != nil {
		t.log.Sugar().Errorw("Failed to send check failure notice", "user", j.key.User, "url", j.key.URL, "err", err)
	}
}

// checkSet narrows stock to the selected sizes. Selected sizes the product no longer has are dropped.
func checkSet(stock []catalog.SizeStock, sizes models.SizeSet) []catalog.SizeStock {
	if !sizes.Selected() {
		return stock
	}
	checked := make([]catalog.SizeStock, 0, len(sizes))
	for _, s := range stock {
		if sizes.Contains(s.Label) {
			checked = append(checked, s)
		}
	}
	return checked
}

func anyInStock(stock []catalog.SizeStock) bool {
	for _, s := range stock {
		if s.InStock {
			return true
		}
	}
	return false
}

func composeReport(product *catalog.Product, checked []catalog.SizeStock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is available!\n", product.Name)
	for _, s := range checked {
		status := "Not in stock"
		if s.InStock {
			status = "In stock"
		}
		fmt.Fprintf(&b, "%s: %s\n", s.Label, status)
	}
	b.WriteString(product.URL)
	return b.String()
}
