package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/nomination"
)

// SampleSet is a complete set of demo data for the portal.
type SampleSet struct {
	Employees   []employee.Employee
	Nominations []nomination.Nomination
	Leaderboard []LeaderboardEntry
	Winners     []MonthlyWinner
	Analytics   []AnalyticsData
	Stats       Stats
}

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Employees   int `json:"employees"`
	Nominations int `json:"nominations"`
	Leaderboard int `json:"leaderboard"`
	Winners     int `json:"monthlyWinners"`
	Analytics   int `json:"analytics"`
}

// Seed writes set in a single batch. Fixed document ids make it safe to
// run repeatedly: a second run overwrites the first.
func Seed(ctx context.Context, db docstore.Store, set SampleSet) (SeedResult, error) {
	var ops []docstore.Op

	for _, e := range set.Employees {
		// Seeded entries omit the active flag; readers default it to true.
		data := employee.ToData(e, false)
		delete(data, "active")
		ops = append(ops, docstore.SetOp(employee.Collection, e.ID, data))
	}
	for _, n := range set.Nominations {
		ops = append(ops, docstore.SetOp(nomination.Collection, n.ID, nomination.ToData(n)))
	}
	for i, entry := range set.Leaderboard {
		ops = append(ops, docstore.SetOp(LeaderboardCollection, fmt.Sprintf("rank-%d", i+1), map[string]any{
			"rank":         entry.Rank,
			"employee":     employee.ToData(entry.Employee, true),
			"nominations":  entry.Nominations,
			"wins":         entry.Wins,
			"score":        entry.Score,
			"trend":        string(entry.Trend),
			"previousRank": entry.PreviousRank,
		}))
	}
	for i, w := range set.Winners {
		data := map[string]any{
			"employee":   employee.ToData(w.Employee, true),
			"month":      w.Month,
			"year":       w.Year,
			"category":   string(w.Category),
			"totalVotes": w.TotalVotes,
			"quote":      nil,
			"sortKey":    SortKey(w.Year, w.Month),
		}
		if w.Quote != "" {
			data["quote"] = w.Quote
		}
		ops = append(ops, docstore.SetOp(WinnersCollection, fmt.Sprintf("winner-%d", i+1), data))
	}
	for i, a := range set.Analytics {
		depts := make(map[string]any, len(a.Departments))
		for k, v := range a.Departments {
			depts[k] = v
		}
		ops = append(ops, docstore.SetOp(AnalyticsCollection, fmt.Sprintf("month-%d", i+1), map[string]any{
			"month":             a.Month,
			"nominations":       a.Nominations,
			"participationRate": a.ParticipationRate,
			"departments":       depts,
			"sortKey":           analyticsSortKey(i),
		}))
	}
	ops = append(ops, docstore.SetOp(MetaCollection, StatsID, map[string]any{
		"totalNominations":      set.Stats.TotalNominations,
		"activeEmployees":       set.Stats.ActiveEmployees,
		"participationRate":     set.Stats.ParticipationRate,
		"awardsGiven":           set.Stats.AwardsGiven,
		"pendingReviews":        set.Stats.PendingReviews,
		"avgVotesPerNomination": set.Stats.AvgVotesPerNomination,
	}))

	if err := db.Batch(ctx, ops); err != nil {
		return SeedResult{}, fmt.Errorf("seeding sample data: %w", err)
	}
	return SeedResult{
		Employees:   len(set.Employees),
		Nominations: len(set.Nominations),
		Leaderboard: len(set.Leaderboard),
		Winners:     len(set.Winners),
		Analytics:   len(set.Analytics),
	}, nil
}

// Analytics rows are stored in display order; a zero-padded index keeps
// that order under a lexical sort.
func analyticsSortKey(i int) string {
	return fmt.Sprintf("%02d", i+1)
}

// Sample returns the built-in demo data set.
func Sample() SampleSet {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	emps := []employee.Employee{
		{ID: "emp-1", Name: "Sarah Chen", Role: "Senior Engineer", Department: "Engineering", JoinedDate: day(2021, time.March, 15)},
		{ID: "emp-2", Name: "Marcus Johnson", Role: "Product Manager", Department: "Product", JoinedDate: day(2020, time.July, 1)},
		{ID: "emp-3", Name: "Priya Patel", Role: "UX Designer", Department: "Design", JoinedDate: day(2022, time.January, 10)},
		{ID: "emp-4", Name: "David Kim", Role: "Customer Success Lead", Department: "Support", JoinedDate: day(2019, time.November, 4)},
		{ID: "emp-5", Name: "Elena Rodriguez", Role: "Marketing Manager", Department: "Marketing", JoinedDate: day(2021, time.September, 20)},
		{ID: "emp-6", Name: "James Wilson", Role: "DevOps Engineer", Department: "Engineering", JoinedDate: day(2022, time.May, 2)},
		{ID: "emp-7", Name: "Aisha Okafor", Role: "Data Analyst", Department: "Analytics", JoinedDate: day(2023, time.February, 13)},
		{ID: "emp-8", Name: "Tom Becker", Role: "Sales Director", Department: "Sales", JoinedDate: day(2018, time.June, 25)},
	}
	for i := range emps {
		emps[i].Active = true
	}
	byID := func(id string) employee.Employee {
		for _, e := range emps {
			if e.ID == id {
				return e
			}
		}
		return employee.Employee{}
	}

	nom := func(id, nominee, nominator string, cat nomination.Category, status nomination.Status, votes int, at time.Time, reason, impact string) nomination.Nomination {
		ne, nr := byID(nominee), byID(nominator)
		return nomination.Nomination{
			ID:                id,
			NomineeID:         ne.ID,
			NomineeName:       ne.Name,
			NomineeRole:       ne.Role,
			NomineeDepartment: ne.Department,
			NominatorID:       nr.ID,
			NominatorName:     nr.Name,
			Category:          cat,
			Reason:            reason,
			Impact:            impact,
			Status:            status,
			CreatedAt:         at,
			Votes:             votes,
		}
	}
	noms := []nomination.Nomination{
		nom("nom-1", "emp-1", "emp-2", nomination.CategoryInnovation, nomination.StatusApproved, 24, day(2025, time.January, 28),
			"Redesigned the caching layer and cut page load times in half.", "Faster product for every customer."),
		nom("nom-2", "emp-4", "emp-8", nomination.CategoryCustomerExcellence, nomination.StatusAwarded, 31, day(2025, time.January, 20),
			"Turned around three at-risk enterprise accounts.", "Retained key revenue."),
		nom("nom-3", "emp-3", "emp-5", nomination.CategoryTeamwork, nomination.StatusPending, 12, day(2025, time.February, 3),
			"Ran design workshops that unblocked two teams.", "Shorter delivery cycles."),
		nom("nom-4", "emp-6", "emp-1", nomination.CategoryAboveAndBeyond, nomination.StatusPending, 9, day(2025, time.February, 5),
			"Handled a weekend outage calmly and wrote the postmortem.", "Restored service within an hour."),
		nom("nom-5", "emp-2", "emp-3", nomination.CategoryLeadership, nomination.StatusApproved, 18, day(2025, time.January, 15),
			"Mentored two new product managers through their first launch.", "Stronger product org."),
		nom("nom-6", "emp-7", "emp-4", nomination.CategoryInnovation, nomination.StatusRejected, 4, day(2025, time.January, 9),
			"Built a churn dashboard.", "Earlier warning on churn."),
		nom("nom-7", "emp-5", "emp-7", nomination.CategoryCustomerExcellence, nomination.StatusPending, 7, day(2025, time.February, 7),
			"Rebuilt onboarding emails based on customer interviews.", "Higher activation."),
		nom("nom-8", "emp-8", "emp-6", nomination.CategoryLeadership, nomination.StatusApproved, 15, day(2024, time.December, 18),
			"Aligned sales and engineering on the roadmap.", "Fewer escalations."),
	}

	board := []LeaderboardEntry{
		{Rank: 1, Employee: byID("emp-1"), Nominations: 12, Wins: 3, Score: 94.5, Trend: TrendUp, PreviousRank: 2},
		{Rank: 2, Employee: byID("emp-4"), Nominations: 10, Wins: 2, Score: 89.0, Trend: TrendDown, PreviousRank: 1},
		{Rank: 3, Employee: byID("emp-2"), Nominations: 9, Wins: 2, Score: 85.5, Trend: TrendStable, PreviousRank: 3},
		{Rank: 4, Employee: byID("emp-3"), Nominations: 7, Wins: 1, Score: 78.0, Trend: TrendUp, PreviousRank: 6},
		{Rank: 5, Employee: byID("emp-6"), Nominations: 6, Wins: 1, Score: 72.5, Trend: TrendDown, PreviousRank: 4},
		{Rank: 6, Employee: byID("emp-8"), Nominations: 5, Wins: 0, Score: 64.0, Trend: TrendStable, PreviousRank: 5},
	}

	winners := []MonthlyWinner{
		{Employee: byID("emp-4"), Month: "January", Year: 2025, Category: nomination.CategoryCustomerExcellence, TotalVotes: 31, Quote: "Our customers are the reason we do this."},
		{Employee: byID("emp-1"), Month: "December", Year: 2024, Category: nomination.CategoryInnovation, TotalVotes: 28, Quote: "Small improvements compound."},
		{Employee: byID("emp-2"), Month: "November", Year: 2024, Category: nomination.CategoryLeadership, TotalVotes: 22},
		{Employee: byID("emp-3"), Month: "October", Year: 2024, Category: nomination.CategoryTeamwork, TotalVotes: 19, Quote: "Design is a team sport."},
		{Employee: byID("emp-6"), Month: "September", Year: 2024, Category: nomination.CategoryAboveAndBeyond, TotalVotes: 17},
		{Employee: byID("emp-1"), Month: "August", Year: 2024, Category: nomination.CategoryTeamwork, TotalVotes: 21},
	}

	months := []struct {
		name  string
		noms  int
		rate  float64
		depts map[string]int
	}{
		{"Sep", 18, 62, map[string]int{"Engineering": 6, "Product": 3, "Design": 2, "Support": 4, "Sales": 3}},
		{"Oct", 22, 66, map[string]int{"Engineering": 7, "Product": 4, "Design": 3, "Support": 5, "Sales": 3}},
		{"Nov", 25, 70, map[string]int{"Engineering": 8, "Product": 4, "Design": 4, "Support": 5, "Sales": 4}},
		{"Dec", 20, 64, map[string]int{"Engineering": 6, "Product": 3, "Design": 3, "Support": 4, "Sales": 4}},
		{"Jan", 29, 74, map[string]int{"Engineering": 9, "Product": 5, "Design": 4, "Support": 6, "Sales": 5}},
		{"Feb", 31, 78, map[string]int{"Engineering": 10, "Product": 5, "Design": 5, "Support": 6, "Sales": 5}},
	}
	analytics := make([]AnalyticsData, 0, len(months))
	for _, m := range months {
		analytics = append(analytics, AnalyticsData{Month: m.name, Nominations: m.noms, ParticipationRate: m.rate, Departments: m.depts})
	}

	var pending, votes int
	for _, n := range noms {
		if n.Status == nomination.StatusPending {
			pending++
		}
		votes += n.Votes
	}

	return SampleSet{
		Employees:   emps,
		Nominations: noms,
		Leaderboard: board,
		Winners:     winners,
		Analytics:   analytics,
		Stats: Stats{
			TotalNominations:      len(noms),
			ActiveEmployees:       len(emps),
			ParticipationRate:     78,
			AwardsGiven:           len(winners),
			PendingReviews:        pending,
			AvgVotesPerNomination: float64(votes) / float64(len(noms)),
		},
	}
}
