package api

import (
	"strconv"

	"forecastwise/cities"
	"forecastwise/models"
)

// dashboardView is the data behind one rendered page
type dashboardView struct {
	Title         string
	Tagline       string
	Cities        []string
	Selected      string
	Date          string
	Time          string
	Horizon       int
	Current       *models.CurrentConditions
	CurrentError  string
	ForecastError string
	Chart         forecastChart
	Rows          []forecastRow
	HistorySource string

	// Last training day and sample count; archives lag, so this can be days before today
	TrainedThrough  string
	TrainingSamples int
}

// forecastRow is one line of the forecast table
type forecastRow struct {
	Date        string
	Temperature string
}

func (s *Server) newDashboardView(report *models.Report) dashboardView {
	generated := report.GeneratedAt.In(s.dashboard.Location())
	horizon := s.dashboard.Horizon()

	view := dashboardView{
		Title:         pageTitle(horizon),
		Tagline:       pageTagline,
		Cities:        cities.Names(),
		Selected:      report.City.Name,
		Date:          generated.Format(headerDateLayout),
		Time:          generated.Format(headerTimeLayout),
		Horizon:       horizon,
		Current:       report.Current,
		Chart:         newForecastChart(report.City.Name, report.Forecast),
		HistorySource: s.historyCredit,
	}

	if failure, ok := report.Failure(models.StageCurrent); ok {
		view.CurrentError = failure.Message
		view.Current = nil
	}
	// History and forecast failures share the forecast section
	for _, stage := range []models.Stage{models.StageHistory, models.StageForecast} {
		if failure, ok := report.Failure(stage); ok {
			view.ForecastError = failure.Message
			break
		}
	}

	if len(report.Forecast) > 0 {
		view.TrainedThrough = report.Forecast[0].Date.AddDate(0, 0, -1).Format(models.DateLayout)
		view.TrainingSamples = report.TrainingSamples
	}

	view.Rows = make([]forecastRow, len(report.Forecast))
	for i, p := range report.Forecast {
		view.Rows[i] = forecastRow{
			Date:        p.DateLabel(),
			Temperature: strconv.FormatFloat(p.Temperature, 'f', 2, 64),
		}
	}
	return view
}
