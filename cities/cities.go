// Package cities holds the fixed set of locations offered by the dashboard.
package cities

import (
	"strings"

	"forecastwise/models"
)

var table = []models.City{
	{Name: "Pune", Latitude: 18.52, Longitude: 73.85},
	{Name: "Mumbai", Latitude: 19.07, Longitude: 72.88},
	{Name: "Delhi", Latitude: 28.61, Longitude: 77.20},
	{Name: "Bangalore", Latitude: 12.97, Longitude: 77.59},
	{Name: "Hyderabad", Latitude: 17.38, Longitude: 78.48},
	{Name: "Kolkata", Latitude: 22.57, Longitude: 88.36},
	{Name: "Chennai", Latitude: 13.08, Longitude: 80.27},
}

// All returns the cities in display order. The slice is a copy.
func All() []models.City {
	out := make([]models.City, len(table))
	copy(out, table)
	return out
}

// Names returns the city names in display order
func Names() []string {
	names := make([]string, len(table))
	for i, c := range table {
		names[i] = c.Name
	}
	return names
}

// Default is the city selected when none is requested
func Default() models.City {
	return table[0]
}

// Lookup finds a city by name, ignoring case and surrounding spaces
func Lookup(name string) (models.City, bool) {
	name = strings.TrimSpace(name)
	for _, c := range table {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return models.City{}, false
}
