package models

import (
	"time"
)

// DateLayout is the calendar date format used in tables, URLs and provider queries
const DateLayout = "2006-01-02"

// DailyObservation is one row of a provider's daily table before cleaning.
// AvgTemp is nil when the provider has no value for that day.
type DailyObservation struct {
	Date    time.Time
	AvgTemp *float64
}

// HistoricalSample is one daily mean temperature used for training
type HistoricalSample struct {
	Date    time.Time `json:"date"`
	AvgTemp float64   `json:"avgTemp"` // in Celsius
}

// ForecastPoint is a predicted daily mean temperature
type ForecastPoint struct {
	Date        time.Time `json:"date"`
	Temperature float64   `json:"temperature"` // in Celsius
}

// DateLabel formats the forecast date for the table and chart axis
func (p ForecastPoint) DateLabel() string {
	return p.Date.Format(DateLayout)
}
