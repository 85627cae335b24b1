package models

import (
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CurrentConditions represents the live weather for a city at the instant of the API call
type CurrentConditions struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"` // in Celsius
	Humidity    float64   `json:"humidity"`    // percentage
	WindSpeed   float64   `json:"windSpeed"`   // in m/s
	Description string    `json:"description"` // short text description
	Timestamp   time.Time `json:"timestamp"`   // when the provider was queried

	// Readings keeps the numbers exactly as the provider wrote them
	Readings Readings `json:"-"`
}

// Readings holds the literal numeric text of a provider payload
type Readings struct {
	Temperature string
	Humidity    string
	WindSpeed   string
}

// TemperatureLabel renders the temperature as shown on the dashboard, e.g. "27.5 °C"
func (c CurrentConditions) TemperatureLabel() string {
	return literal(c.Readings.Temperature, c.Temperature) + " °C"
}

// HumidityLabel renders the humidity, e.g. "60 %"
func (c CurrentConditions) HumidityLabel() string {
	return literal(c.Readings.Humidity, c.Humidity) + " %"
}

// WindSpeedLabel renders the wind speed in m/s without a unit suffix
func (c CurrentConditions) WindSpeedLabel() string {
	return literal(c.Readings.WindSpeed, c.WindSpeed)
}

// DescriptionTitle returns the description with every word capitalised, e.g. "Clear Sky"
func (c CurrentConditions) DescriptionTitle() string {
	// Casers keep state between calls and must not be shared
	return cases.Title(language.English).String(c.Description)
}

func literal(raw string, v float64) string {
	if raw != "" {
		return raw
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
