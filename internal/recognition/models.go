package recognition

import (
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/nomination"
)

// Trend is a leaderboard movement indicator.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank         int               `json:"rank"`
	Employee     employee.Employee `json:"employee"`
	Nominations  int               `json:"nominations"`
	Wins         int               `json:"wins"`
	Score        float64           `json:"score"`
	Trend        Trend             `json:"trend"`
	PreviousRank int               `json:"previousRank"`
}

// MonthlyWinner is one hall-of-fame entry.
type MonthlyWinner struct {
	Employee   employee.Employee   `json:"employee"`
	Month      string              `json:"month"`
	Year       int                 `json:"year"`
	Category   nomination.Category `json:"category"`
	TotalVotes int                 `json:"totalVotes"`
	Quote      string              `json:"quote,omitempty"`
}

// AnalyticsData is one month of participation figures.
type AnalyticsData struct {
	Month             string         `json:"month"`
	Nominations       int            `json:"nominations"`
	ParticipationRate float64        `json:"participationRate"`
	Departments       map[string]int `json:"departments"`
}

// Stats is the portal-wide aggregate.
type Stats struct {
	TotalNominations      int     `json:"totalNominations"`
	ActiveEmployees       int     `json:"activeEmployees"`
	ParticipationRate     float64 `json:"participationRate"`
	AwardsGiven           int     `json:"awardsGiven"`
	PendingReviews        int     `json:"pendingReviews"`
	AvgVotesPerNomination float64 `json:"avgVotesPerNomination"`
}
