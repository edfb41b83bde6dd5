package flows

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/session"
	"golang.org/x/sync/errgroup"
)

const (
	statisticsBatchSize   = 500
	statisticsConcurrency = 4
	defaultRecentLimit    = 10
)

// StatisticsDeps captures statistics aggregation dependencies.
type StatisticsDeps struct {
	ScanSessionIDs ScanFunc
	// LoadMany reads raw records; missing ids are simply absent from the result.
	LoadMany func(ctx context.Context, sessionIDs []string) ([]*session.Session, error)
	// Denylisted reports which ids are blacklisted; their records are stale
	// copies and are left out of every count. Optional.
	Denylisted  func(ctx context.Context, sessionIDs []string) (map[string]bool, error)
	RecentLimit int
	Now         func() time.Time
}

// ActivityEntry is one row of the recent-activity list.
type ActivityEntry struct {
	SessionID    string
	UserID       string
	TenantID     string
	LastActivity time.Time
}

// Statistics is a point-in-time aggregate over every stored record.
type Statistics struct {
	Total          int
	Active         int
	Expired        int
	PerUser        map[string]int
	PerTenant      map[string]int
	RecentActivity []ActivityEntry
	GeneratedAt    time.Time
}

// RunStatistics enumerates every record and aggregates counts. Records are
// loaded in batches, several batches at a time. Blacklisted records are not
// counted at all, matching what a lookup would report.
func RunStatistics(ctx context.Context, deps StatisticsDeps) (Statistics, error) {
	now := nowOrDefault(deps.Now)
	stats := Statistics{
		PerUser:     make(map[string]int),
		PerTenant:   make(map[string]int),
		GeneratedAt: now,
	}

	var ids []string
	if err := deps.ScanSessionIDs(ctx, func(sessionID string) error {
		ids = append(ids, sessionID)
		return nil
	}); err != nil {
		return stats, err
	}

	var (
		mu     sync.Mutex
		loaded []*session.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statisticsConcurrency)
	for batch := range slices.Chunk(ids, statisticsBatchSize) {
		g.Go(func() error {
			sessions, err := deps.LoadMany(gctx, batch)
			if err != nil {
				return err
			}
			if deps.Denylisted != nil {
				denied, err := deps.Denylisted(gctx, batch)
				if err != nil {
					return err
				}
				sessions = slices.DeleteFunc(sessions, func(s *session.Session) bool {
					return denied[s.SessionID]
				})
			}
			mu.Lock()
			loaded = append(loaded, sessions...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for _, sess := range loaded {
		stats.Total++
		if sess.Expired(now) {
			stats.Expired++
			continue
		}
		if sess.IsActive {
			stats.Active++
		}
		stats.PerUser[sess.UserID]++
		if sess.TenantID != "" {
			stats.PerTenant[sess.TenantID]++
		}
	}

	stats.RecentActivity = recentActivity(loaded, now, deps.RecentLimit)
	return stats, nil
}

func recentActivity(sessions []*session.Session, now time.Time, limit int) []ActivityEntry {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	live := make([]*session.Session, 0, len(sessions))
	for _, sess := range sessions {
		if !sess.Expired(now) {
			live = append(live, sess)
		}
	}
	slices.SortFunc(live, func(a, b *session.Session) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})

	out := make([]ActivityEntry, 0, min(limit, len(live)))
	for _, sess := range live[:min(limit, len(live))] {
		out = append(out, ActivityEntry{
			SessionID:    sess.SessionID,
			UserID:       sess.UserID,
			TenantID:     sess.TenantID,
			LastActivity: sess.LastActivity,
		})
	}
	return out
}
