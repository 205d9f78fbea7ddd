// internal/app/system/workers/noticepurge.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger deletes delivered notices older than a cutoff.
type Purger interface {
	PurgeDelivered(ctx context.Context, cutoff time.Time) (int64, error)
}

// NoticePurge is a background worker that removes delivered notices once
// they are older than the retention window.
type NoticePurge struct {
	store     Purger
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewNoticePurge creates a purge worker that runs every interval and keeps
// delivered notices for retention.
func NewNoticePurge(store Purger, logger *zap.Logger, interval, retention time.Duration) *NoticePurge {
	return &NoticePurge{
		store:     store,
		log:       logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background purge loop.
func (w *NoticePurge) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("notice purge worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *NoticePurge) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("notice purge worker stopped")
}

func (w *NoticePurge) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.PurgeOnce(context.Background())
		}
	}
}

// PurgeOnce runs a single purge pass and returns the number removed.
func (w *NoticePurge) PurgeOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := w.now().UTC().Add(-w.retention)
	count, err := w.store.PurgeDelivered(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to purge delivered notices", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("purged delivered notices", zap.Int64("count", count))
	}
	return count
}
