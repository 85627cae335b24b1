package pipeline

import (
	"fmt"

	"forecastwise/models"
)

// User-facing messages shown for a failed stage
const (
	MessageCurrentFailed       = "Could not fetch weather data."
	MessageHistoryFailed       = "Could not load historical temperature data."
	MessageInsufficientHistory = "Insufficient historical data to build a forecast."
	MessageForecastFailed      = "Could not compute the temperature forecast."
)

// StageError is a failed pipeline stage. Err is the cause, Message is safe to show to users.
type StageError struct {
	Stage   models.Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Failure converts the error to its report form
func (e *StageError) Failure() models.StageFailure {
	return models.StageFailure{Stage: e.Stage, Message: e.Message}
}
