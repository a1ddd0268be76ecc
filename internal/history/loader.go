package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/at-ishikawa/mathdrill/internal/api"
)

//go:generate mockgen -source=loader.go -destination=../mocks/history/mock_loader.go -package=mock_history
type Gateway interface {
	History(ctx context.Context) ([]api.HistoryRecord, error)
	Stats(ctx context.Context) (api.AggregateStats, error)
}

// Snapshot is the result of loading both views. A failure of one request
// does not affect the other.
type Snapshot struct {
	Records    []api.HistoryRecord
	HistoryErr error
	Stats      api.AggregateStats
	StatsErr   error
}

// SessionExpired reports whether either request ended the session.
func (s Snapshot) SessionExpired() bool {
	return api.IsSessionExpired(s.HistoryErr) || api.IsSessionExpired(s.StatsErr)
}

// Load fetches history and stats concurrently.
func Load(ctx context.Context, gateway Gateway) Snapshot {
	var snapshot Snapshot
	var wg sync.WaitGroup
	wg.Go(func() {
		records, err := gateway.History(ctx)
		if err != nil {
			snapshot.HistoryErr = fmt.Errorf("gateway.History() > %w", err)
			return
		}
		snapshot.Records = SortByCreatedDesc(records)
	})
	wg.Go(func() {
		stats, err := gateway.Stats(ctx)
		if err != nil {
			snapshot.StatsErr = fmt.Errorf("gateway.Stats() > %w", err)
			return
		}
		snapshot.Stats = stats
	})
	wg.Wait()
	return snapshot
}

// DashboardAccuracy formats the accuracy percentage the way the practice
// dashboard shows it.
func DashboardAccuracy(stats api.AggregateStats) string {
	return fmt.Sprintf("%.1f%%", stats.Accuracy)
}

// DetailAccuracy formats the accuracy percentage for the history page.
func DetailAccuracy(stats api.AggregateStats) string {
	return fmt.Sprintf("%.2f%%", stats.Accuracy)
}
