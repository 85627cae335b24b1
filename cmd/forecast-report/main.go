package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"forecastwise/app"
	"forecastwise/cities"
	"forecastwise/datasource"
	"forecastwise/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	cityName := flag.String("city", cities.Default().Name, "City to report on: "+strings.Join(cities.Names(), ", "))
	configFile := flag.String("config", "", "Path to configuration file")
	asJSON := flag.Bool("json", false, "Print the report as JSON")
	verbose := flag.Bool("v", false, "Log pipeline progress to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	city, ok := cities.Lookup(*cityName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown city %q. Choose one of: %s\n", *cityName, strings.Join(cities.Names(), ", "))
		os.Exit(2)
	}

	config, err := datasource.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	dashboard, _, err := app.NewDashboard(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report, runErr := dashboard.Run(context.Background(), city)

	if *asJSON {
		if err := printJSON(os.Stdout, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
	} else {
		printReport(os.Stdout, report)
	}

	if runErr != nil {
		os.Exit(1)
	}
}

// printJSON writes the report as indented JSON
func printJSON(w io.Writer, report *models.Report) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(out)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// printReport writes a plain-text rendering of the dashboard
func printReport(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "ForecastWise report for %s\n", report.City.Name)
	fmt.Fprintf(w, "%s, %s\n", report.GeneratedAt.Format("Monday, 02 January 2006"), report.GeneratedAt.Format("03:04 PM"))
	fmt.Fprintln(w, strings.Repeat("=", 40))

	if failure, ok := report.Failure(models.StageCurrent); ok {
		fmt.Fprintln(w, failure.Message)
	} else if c := report.Current; c != nil {
		fmt.Fprintln(w, "Current Weather")
		fmt.Fprintf(w, "  Temperature (°C): %s\n", c.TemperatureLabel())
		fmt.Fprintf(w, "  Humidity (%%):     %s\n", c.HumidityLabel())
		fmt.Fprintf(w, "  Wind Speed (m/s): %s\n", c.WindSpeedLabel())
		fmt.Fprintf(w, "  Description:      %s\n", c.DescriptionTitle())
	}
	fmt.Fprintln(w)

	for _, stage := range []models.Stage{models.StageHistory, models.StageForecast} {
		if failure, ok := report.Failure(stage); ok {
			fmt.Fprintln(w, failure.Message)
		}
	}
	if len(report.Forecast) == 0 {
		return
	}

	fmt.Fprintf(w, "%d-Day Forecast (trained on %d days)\n", len(report.Forecast), report.TrainingSamples)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tForecast Temp (°C)")
	for _, p := range report.Forecast {
		fmt.Fprintf(tw, "%s\t%.2f\n", p.DateLabel(), p.Temperature)
	}
	tw.Flush()
}
