package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/catalog"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/fiffu/stockwatch/lib/store"
	"github.com/fiffu/stockwatch/senders"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Store is the part of the subscription store a fulfilled job needs.
type Store interface {
	RemoveSubscription(ctx context.Context, chatID, url string) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, user, text string) error
}

// Key identifies a job. There is at most one job per key.
type Key struct {
	User string
	URL  string
}

type Options struct {
	Interval           time.Duration // Delay between the end of one tick and the start of the next
	Concurrency        int           // Number of ticks that may run at once
	TickTimeout        time.Duration // Upper bound for the catalog and notifier calls of one tick
	FailureNoticeEvery time.Duration // Minimum spacing of "could not be checked" notices per job, 0 for every tick
}

type job struct {
	id    string
	key   Key
	sizes models.SizeSet
	timer *time.Timer
}

// Tracker owns one recurring job per tracked subscription. Job timers feed a fixed pool of
// workers, so the number of jobs never translates into the number of concurrent upstream calls.
type Tracker struct {
	log      *zap.Logger
	catalog  catalog.Source
	store    Store
	notifier Notifier
	opts     Options

	notices *noticeLimiter
	metrics *tickMetrics

	mu      sync.Mutex
	jobs    map[Key]*job
	stopped bool

	queue     chan *job
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	wg        sync.WaitGroup
}

func NewTracker(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, source catalog.Source, store *store.Store, senders senders.Registry) *Tracker {
	t := New(log, source, store, senders, Options{
		Interval:           cfg.Tracker.Interval,
		Concurrency:        cfg.Tracker.Concurrency,
		TickTimeout:        cfg.Tracker.TickTimeout,
		FailureNoticeEvery: cfg.Tracker.FailureNoticeEvery,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			t.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop tracker")
			t.Stop()
			return nil
		},
	})

	return t
}

func New(log *zap.Logger, source catalog.Source, store Store, notifier Notifier, opts Options) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = 20 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		log:      log,
		catalog:  source,
		store:    store,
		notifier: notifier,
		opts:     opts,
		notices:  newNoticeLimiter(opts.FailureNoticeEvery),
		metrics:  &tickMetrics{},
		jobs:     make(map[Key]*job),
		queue:    make(chan *job, opts.Concurrency),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker pool. Jobs scheduled before Start wait for it.
func (t *Tracker) Start() {
	t.startOnce.Do(func() {
		for i := 0; i < t.opts.Concurrency; i++ {
			t.wg.Add(1)
			go t.work()
		}
		t.log.Sugar().Infow("Tracker started", "interval", t.opts.Interval, "concurrency", t.opts.Concurrency)
	})
}

// Stop cancels every timer and waits for in-flight ticks to return.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	for key, j := range t.jobs {
		j.timer.Stop()
		delete(t.jobs, key)
	}
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()

	s := t.Stats()
	t.log.Sugar().Infow("Tracker stopped",
		"ticks", s.Ticks, "fulfilled", s.Fulfilled, "waiting", s.Waiting, "errored", s.Errored, "dropped", s.Dropped)
}

// Schedule creates the job for (user, url) or replaces the existing one. A tick of the replaced
// job that is already running finishes, but can neither fulfil nor re-arm.
func (t *Tracker) Schedule(user, url string, sizes models.SizeSet) {
	key := Key{user, url}
	j := &job{id: uuid.NewString(), key: key, sizes: sizes.OrNil()}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	old, replaced := t.jobs[key]
	if replaced {
		old.timer.Stop()
	}
	t.jobs[key] = j
	j.timer = time.AfterFunc(t.opts.Interval, func() { t.enqueue(j) })

	t.log.Sugar().Infow("Scheduled job", "user", user, "url", url, "job_id", j.id, "sizes", []string(j.sizes), "replaced", replaced)
}

// Remove cancels the job for (user, url). It is safe to call while the job's tick is running.
func (t *Tracker) Remove(user, url string) bool {
	key := Key{user, url}

	t.mu.Lock()
	j, ok := t.jobs[key]
	if ok {
		j.timer.Stop()
		delete(t.jobs, key)
	}
	t.mu.Unlock()

	if ok {
		t.notices.Forget(key)
		t.log.Sugar().Infow("Removed job", "user", user, "url", url, "job_id", j.id)
	}
	return ok
}

func (t *Tracker) Has(user, url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.jobs[Key{user, url}]
	return ok
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

func (t *Tracker) Stats() Stats {
	return t.metrics.Snapshot()
}

func (t *Tracker) enqueue(j *job) {
	select {
	case t.queue <- j:
	case <-t.ctx.Done():
	}
}

func (t *Tracker) work() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ctx.Done():
			return
		case j := <-t.queue:
			t.run(j)
		}
	}
}

func (t *Tracker) run(j *job) {
	if !t.isCurrent(j) {
		// Removed or replaced while waiting for a worker.
		t.metrics.dropped.Add(1)
		return
	}

	ctx, cancel := context.WithTimeout(t.ctx, t.opts.TickTimeout)
	defer cancel()

	done := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.metrics.errored.Add(1)
				t.log.Sugar().Errorw("Tick panicked", "user", j.key.User, "url", j.key.URL, "job_id", j.id, "panic", r)
			}
		}()
		done = t.tick(ctx, j)
	}()

	if !done {
		t.rearm(j)
	}
}

func (t *Tracker) isCurrent(j *job) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobs[j.key] == j
}

func (t *Tracker) rearm(j *job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped && t.jobs[j.key] == j {
		j.timer.Reset(t.opts.Interval)
	}
}

// claim removes j from the registry if it is still the registered job for its key.
// Only the caller that wins the claim may deliver the fulfillment notice.
func (t *Tracker) claim(j *job) bool {
	t.mu.Lock()
	won := t.jobs[j.key] == j
	if won {
		j.timer.Stop()
		delete(t.jobs, j.key)
	}
	t.mu.Unlock()

	if won {
		t.notices.Forget(j.key)
	}
	return won
}
