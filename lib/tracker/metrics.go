package tracker

import "sync/atomic"

type tickMetrics struct {
	ticks     atomic.Int64
	fulfilled atomic.Int64
	waiting   atomic.Int64
	errored   atomic.Int64
	dropped   atomic.Int64
}

// Stats counts tick outcomes since the tracker was created.
type Stats struct {
	Ticks     int64
	Fulfilled int64
	Waiting   int64
	Errored   int64
	Dropped   int64 // ticks skipped because their job was removed or replaced
}

func (m *tickMetrics) Snapshot() Stats {
	return Stats{
		Ticks:     m.ticks.Load(),
		Fulfilled: m.fulfilled.Load(),
		Waiting:   m.waiting.Load(),
		Errored:   m.errored.Load(),
		Dropped:   m.dropped.Load(),
	}
}
