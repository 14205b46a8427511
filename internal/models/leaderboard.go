package models

import (
	"time"
)

// Period selects the leaderboard time window
type Period string

const (
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "this_week"
	PeriodThisMonth Period = "this_month"
	PeriodAllTime   Period = "all_time"
)

// Periods lists every valid period
var Periods = []Period{PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodAllTime}

// ParsePeriod validates a period query value
func ParsePeriod(s string) (Period, bool) {
	for _, p := range Periods {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// LeaderboardEntry represents a single entry in the leaderboard
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Avatar      *string `json:"avatar"`
	TotalPoints int64   `json:"total_points"`
	GamesPlayed int64   `json:"games_played"`
}

// LeaderboardResponse represents the paginated leaderboard response
type LeaderboardResponse struct {
	Period      Period             `json:"period"`
	WindowStart *time.Time         `json:"window_start"`
	Data        []LeaderboardEntry `json:"data"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
	Total       int64              `json:"total"`
}
