// Package recognition reads the precomputed recognition views: the
// leaderboard, the hall of fame, monthly analytics, and portal stats.
package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/nomination"
)

// Collections read by Store.
const (
	LeaderboardCollection = "leaderboard"
	WinnersCollection     = "monthlyWinners"
	AnalyticsCollection   = "analytics"
	MetaCollection        = "meta"
	StatsID               = "stats"
)

// SortKey returns the "YYYY-MM" key that orders months chronologically.
// Unknown month names sort as January.
func SortKey(year int, month string) string {
	m := 1
	if t, err := time.Parse("January", month); err == nil {
		m = int(t.Month())
	} else if t, err := time.Parse("Jan", month); err == nil {
		m = int(t.Month())
	}
	return fmt.Sprintf("%04d-%02d", year, m)
}

// Store reads recognition views.
type Store struct {
	db docstore.Store
}

// NewStore creates a recognition store backed by db.
func NewStore(db docstore.Store) *Store {
	return &Store{db: db}
}

// Leaderboard returns the ranked entries, best first.
func (s *Store) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	docs, err := docstore.ListOrdered(ctx, s.db, LeaderboardCollection, "rank", docstore.Asc)
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard: %w", err)
	}
	out := make([]LeaderboardEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, LeaderboardEntry{
			Rank:         docstore.Int(d.Data["rank"]),
			Employee:     employee.FromData("", docstore.Map(d.Data["employee"])),
			Nominations:  docstore.Int(d.Data["nominations"]),
			Wins:         docstore.Int(d.Data["wins"]),
			Score:        docstore.Float(d.Data["score"]),
			Trend:        Trend(docstore.String(d.Data["trend"])),
			PreviousRank: docstore.Int(d.Data["previousRank"]),
		})
	}
	return out, nil
}

// MonthlyWinners returns the hall of fame, most recent month first.
func (s *Store) MonthlyWinners(ctx context.Context) ([]MonthlyWinner, error) {
	docs, err := docstore.ListOrdered(ctx, s.db, WinnersCollection, "sortKey", docstore.Desc)
	if err != nil {
		return nil, fmt.Errorf("listing monthly winners: %w", err)
	}
	out := make([]MonthlyWinner, 0, len(docs))
	for _, d := range docs {
		out = append(out, MonthlyWinner{
			Employee:   employee.FromData("", docstore.Map(d.Data["employee"])),
			Month:      docstore.String(d.Data["month"]),
			Year:       docstore.Int(d.Data["year"]),
			Category:   nomination.Category(docstore.String(d.Data["category"])),
			TotalVotes: docstore.Int(d.Data["totalVotes"]),
			Quote:      docstore.String(d.Data["quote"]),
		})
	}
	return out, nil
}

// Analytics returns monthly figures in chronological order.
func (s *Store) Analytics(ctx context.Context) ([]AnalyticsData, error) {
	docs, err := docstore.ListOrdered(ctx, s.db, AnalyticsCollection, "sortKey", docstore.Asc)
	if err != nil {
		return nil, fmt.Errorf("listing analytics: %w", err)
	}
	out := make([]AnalyticsData, 0, len(docs))
	for _, d := range docs {
		depts := map[string]int{}
		for k, v := range docstore.Map(d.Data["departments"]) {
			depts[k] = docstore.Int(v)
		}
		out = append(out, AnalyticsData{
			Month:             docstore.String(d.Data["month"]),
			Nominations:       docstore.Int(d.Data["nominations"]),
			ParticipationRate: docstore.Float(d.Data["participationRate"]),
			Departments:       depts,
		})
	}
	return out, nil
}

// Stats returns the aggregate document, or zero values when it has not
// been written yet.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	doc, err := s.db.Get(ctx, MetaCollection, StatsID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("getting stats: %w", err)
	}
	return Stats{
		TotalNominations:      docstore.Int(doc.Data["totalNominations"]),
		ActiveEmployees:       docstore.Int(doc.Data["activeEmployees"]),
		ParticipationRate:     docstore.Float(doc.Data["participationRate"]),
		AwardsGiven:           docstore.Int(doc.Data["awardsGiven"]),
		PendingReviews:        docstore.Int(doc.Data["pendingReviews"]),
		AvgVotesPerNomination: docstore.Float(doc.Data["avgVotesPerNomination"]),
	}, nil
}
