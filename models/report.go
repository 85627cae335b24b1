package models

import (
	"time"
)

// Stage names a step of the dashboard pipeline
type Stage string

const (
	StageCurrent  Stage = "current"
	StageHistory  Stage = "history"
	StageForecast Stage = "forecast"
)

// StageFailure is the user-facing account of a failed stage
type StageFailure struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Report is everything one city selection produces
type Report struct {
	RunID           string             `json:"runId"`
	City            City               `json:"city"`
	GeneratedAt     time.Time          `json:"generatedAt"`
	Current         *CurrentConditions `json:"current,omitempty"`
	Forecast        []ForecastPoint    `json:"forecast"`
	TrainingSamples int                `json:"trainingSamples"`
	Failures        []StageFailure     `json:"failures,omitempty"`
}

// Failure returns the failure recorded for a stage, if any
func (r *Report) Failure(stage Stage) (StageFailure, bool) {
	for _, f := range r.Failures {
		if f.Stage == stage {
			return f, true
		}
	}
	return StageFailure{}, false
}
