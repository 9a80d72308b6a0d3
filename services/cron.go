package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper reclaims documents stuck in pending, e.g. after a worker crash
// between register and commit. Sweeping marks them failed and removes any
// vectors they managed to write, so a fresh register can retry them.
type Sweeper struct {
	registry  DocumentRegistry
	index     VectorIndex
	scheduler *gocron.Scheduler
	maxAge    time.Duration
	log       *slog.Logger
}

func NewSweeper(registry DocumentRegistry, index VectorIndex, interval, maxAge time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	s := &Sweeper{
		registry:  registry,
		index:     index,
		scheduler: gocron.NewScheduler(time.UTC),
		maxAge:    maxAge,
		log:       log,
	}
	s.scheduler.Every(interval).Do(s.sweep)
	return s
}

func (s *Sweeper) Start() { s.scheduler.StartAsync() }
func (s *Sweeper) Stop()  { s.scheduler.Stop() }

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.registry.StalePending(ctx, cutoff)
	if err != nil {
		s.log.Error("stale document scan failed", "error", err)
		return
	}
	for _, fingerprint := range stale {
		if err := s.index.DeleteByDocument(ctx, fingerprint); err != nil {
			s.log.Error("stale document rollback failed", "document_id", fingerprint, "error", err)
			continue
		}
		if err := s.registry.MarkFailed(ctx, fingerprint, "ingestion timed out"); err != nil {
			s.log.Error("stale document mark failed errored", "document_id", fingerprint, "error", err)
			continue
		}
		s.log.Warn("reclaimed stale document", "document_id", fingerprint)
	}
}
