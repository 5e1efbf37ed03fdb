// Package merge reconciles a locally edited point list against the
// authoritative stored copy before persisting.
package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/courtside-data/pointlog/internal/monitoring"
	"github.com/courtside-data/pointlog/internal/point"
)

// Merge reconciles local rows against remote rows. Rows are keyed by
// PointStartMs; when both sides carry the same key the remote row wins, so a
// stale session cannot clobber edits another session already persisted. Any
// keys in deleted are dropped from both sides. The result is normalized and
// sorted ascending by key.
func Merge(local, remote []point.Record, deleted ...int64) []point.Record {
	combined := make([]point.Record, 0, len(local)+len(remote))
	combined = append(combined, local...)
	combined = append(combined, remote...)

	drop := make(map[int64]bool, len(deleted))
	for _, key := range deleted {
		drop[key] = true
	}

	// Scan from the end so the later (remote) occurrence of a key is the
	// one kept.
	seen := make(map[int64]bool, len(combined))
	merged := make([]point.Record, 0, len(combined))
	for i := len(combined) - 1; i >= 0; i-- {
		key := combined[i].PointStartMs
		if drop[key] || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, combined[i])
	}

	for i := range merged {
		merged[i].Normalize()
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].PointStartMs < merged[j].PointStartMs
	})
	return merged
}

// Store is the persistence collaborator. The merger knows nothing about the
// storage technology behind it.
type Store interface {
	FetchPoints(ctx context.Context, matchID string) ([]point.Record, error)
	SavePoints(ctx context.Context, matchID string, rows []point.Record) error
}

// Syncer runs the fetch-merge-save cycle for a match.
type Syncer struct {
	Store Store
}

// Sync fetches the stored point list, merges the session's rows over it, and
// persists the result. The merged rows are returned even when the save
// fails, so the tagging session keeps its reconciled view and a later action
// can retry the persist.
func (s *Syncer) Sync(ctx context.Context, matchID string, local []point.Record, deleted ...int64) ([]point.Record, error) {
	remote, err := s.Store.FetchPoints(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points for %s: %w", matchID, err)
	}

	merged := Merge(local, remote, deleted...)

	if err := s.Store.SavePoints(ctx, matchID, merged); err != nil {
		monitoring.Logf("point sync: save failed for %s: %v", matchID, err)
		return merged, fmt.Errorf("failed to save points for %s: %w", matchID, err)
	}
	return merged, nil
}
