package entity

import "github.com/guregu/null/v6"

// Summary is the aggregate shape shared by every statistics view.
// Only rows with index > 0 contribute. Averages, extremes and dates are null
// when no row qualifies.
type Summary struct {
	Days           int64       `json:"days"`
	AvgIndex       null.Float  `json:"avgIndex"`
	MinIndex       null.Float  `json:"minIndex"`
	MaxIndex       null.Float  `json:"maxIndex"`
	AvgHeadCount   null.Float  `json:"avgHeadCount"`
	TotalHeadCount int64       `json:"totalHeadCount"`
	AvgAmount      null.Float  `json:"avgAmount"`
	TotalAmount    float64     `json:"totalAmount"`
	FirstDate      null.String `json:"firstDate"`
	LastDate       null.String `json:"lastDate"`
}

// MonthlyStats aggregates one calendar month.
type MonthlyStats struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"monthName"`
	Summary
}

// RangeStats aggregates an inclusive date range.
// Volatility is the population standard deviation of the index.
type RangeStats struct {
	Start      string     `json:"start,omitempty"`
	End        string     `json:"end,omitempty"`
	Volatility null.Float `json:"volatility"`
	Summary
}

// PeriodTrend compares the average index of a period with the one before it.
type PeriodTrend struct {
	CurrentStart  string     `json:"currentStart"`
	CurrentEnd    string     `json:"currentEnd"`
	PreviousStart string     `json:"previousStart"`
	PreviousEnd   string     `json:"previousEnd"`
	CurrentAvg    null.Float `json:"currentAvg"`
	PreviousAvg   null.Float `json:"previousAvg"`
	ChangePct     null.Float `json:"changePct"`
}

// Trends holds the weekly and monthly period-over-period comparisons.
type Trends struct {
	Weekly  PeriodTrend `json:"weekly"`
	Monthly PeriodTrend `json:"monthly"`
}

// YearlyStats aggregates one calendar year with a per-month breakdown.
type YearlyStats struct {
	Year          int            `json:"year"`
	Volatility    null.Float     `json:"volatility"`
	VolatilityPct null.Float     `json:"volatilityPct"`
	Months        []MonthlyStats `json:"months"`
	Summary
}

// YearSummary is one row of the all-time per-year breakdown.
type YearSummary struct {
	Year       int        `json:"year"`
	Volatility null.Float `json:"volatility"`
	Summary
}

// AllTimeStats aggregates every stored day with a per-year breakdown.
type AllTimeStats struct {
	Volatility    null.Float    `json:"volatility"`
	VolatilityPct null.Float    `json:"volatilityPct"`
	Years         []YearSummary `json:"years"`
	Summary
}

// CleanupResult reports how many rows the cleanup pass removed.
type CleanupResult struct {
	InvalidDates int64 `json:"invalidDates"`
	ZeroIndex    int64 `json:"zeroIndex"`
}

// Total is the number of rows removed.
func (r CleanupResult) Total() int64 {
	return r.InvalidDates + r.ZeroIndex
}
