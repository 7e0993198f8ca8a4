package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/schema"
)

// HistoricalPoint is one month of the recomputed score series.
type HistoricalPoint struct {
	AsOf  time.Time
	Score int
	Level schema.RiskLevel
}

// History recomputes monthly scores going back from the present, reusing
// one collection pass per month through the cache-bucket mechanism. Months
// that fail are skipped with a warning so one bad window does not sink the
// series.
func (s *Scorer) History(ctx context.Context, eco schema.Ecosystem, name string, months int) ([]HistoricalPoint, error) {
	if months <= 0 {
		months = contract.DefaultHistoryMonths
	}

	now := s.now()
	var series []HistoricalPoint
	for i := months - 1; i >= 0; i-- {
		cutoff := monthStart(now.AddDate(0, -i, 0))
		score, err := s.Score(ctx, eco, name, Options{AsOf: cutoff})
		if err != nil {
			if ctx.Err() != nil {
				return series, err
			}
			contract.LogWarning(fmt.Sprintf("history point %s failed for %s:%s: %v", cutoff.Format(contract.CutoffFormat), eco, name, err))
			continue
		}
		series = append(series, HistoricalPoint{AsOf: cutoff, Score: score.Value, Level: score.Level})
	}
	return series, nil
}

// Refresh re-scores every package whose current score is older than maxAge,
// with a bounded worker pool. Individual failures are reported, not fatal.
func (s *Scorer) Refresh(ctx context.Context, eco schema.Ecosystem, maxAge time.Duration, workers int) (int, error) {
	if s.Store == nil {
		return 0, fmt.Errorf("%w: refresh requires a score store", schema.ErrInput)
	}
	if workers <= 0 {
		workers = contract.DefaultBatchWorkers
	}

	stale, err := s.Store.Stale(ctx, eco, maxAge)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	refreshed := 0
	done := make(chan struct{}, len(stale))
	for _, pkg := range stale {
		g.Go(func() error {
			if _, err := s.Score(gctx, pkg.Ecosystem, pkg.Name, Options{Force: true}); err != nil {
				contract.LogWarning(fmt.Sprintf("refresh failed for %s:%s: %v", pkg.Ecosystem, pkg.Name, err))
				return nil
			}
			done <- struct{}{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return refreshed, err
	}
	close(done)
	for range done {
		refreshed++
	}
	return refreshed, nil
}

// Movers surfaces the store's delta query.
func (s *Scorer) Movers(ctx context.Context, limit int, since time.Duration) ([]schema.MoverRow, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("%w: movers requires a score store", schema.ErrInput)
	}
	return s.Store.Movers(ctx, limit, since)
}

// monthStart normalizes a cutoff to the first instant of its month so
// historical buckets line up across runs.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
