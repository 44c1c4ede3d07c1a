package model

// SleepStats summarises the sessions of a date window. All fields are in
// minutes except TotalSessions, and all are zero for an empty window.
type SleepStats struct {
	AverageDuration float64 `json:"averageDuration"`
	TotalSessions   int     `json:"totalSessions"`
	LongestSession  float64 `json:"longestSession"`
	ShortestSession float64 `json:"shortestSession"`
}

// DayTotal is one bar of a per-day series.
type DayTotal struct {
	Date     string  `json:"date"`
	Weekday  string  `json:"day"`
	Duration float64 `json:"duration"` // in minutes
}

// Summary holds all-time totals over every recorded session.
type Summary struct {
	TotalDuration   float64 `json:"totalDuration"`
	AverageDuration float64 `json:"averageDuration"`
	Sessions        int     `json:"sessions"`
}
