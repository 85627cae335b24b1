// Package meteostat reads daily point data from the Meteostat JSON API served through RapidAPI.
package meteostat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"forecastwise/datasource"
	"forecastwise/models"
)

// DefaultBaseURL is the RapidAPI endpoint for Meteostat
const DefaultBaseURL = "https://meteostat.p.rapidapi.com"

// DailySource implements datasource.HistorySource on top of /point/daily
type DailySource struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ datasource.HistorySource = (*DailySource)(nil)

// NewDailySource creates a Meteostat source. An empty baseURL selects the RapidAPI host.
func NewDailySource(apiKey, baseURL string, client *http.Client) *DailySource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DailySource{apiKey: apiKey, baseURL: baseURL, httpClient: client}
}

// Name returns the source name
func (d *DailySource) Name() string {
	return "Meteostat"
}

type dailyResponse struct {
	Data []struct {
		Date string   `json:"date"`
		Tavg *float64 `json:"tavg"`
	} `json:"data"`
	Message string `json:"message"`
}

// FetchHistory fetches the tavg column for the point between start and end
func (d *DailySource) FetchHistory(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("start", start.Format(models.DateLayout))
	params.Set("end", end.Format(models.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/point/daily?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", d.apiKey)
	if u, err := url.Parse(d.baseURL); err == nil {
		req.Header.Set("x-rapidapi-host", u.Host)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", datasource.ErrUpstreamStatus, resp.StatusCode,
			strings.TrimSpace(string(body)))
	}

	var response dailyResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", datasource.ErrMalformedPayload, err)
	}

	rows := make([]models.DailyObservation, 0, len(response.Data))
	for _, item := range response.Data {
		// Meteostat dates may carry a time part
		day := item.Date
		if len(day) > len(models.DateLayout) {
			day = day[:len(models.DateLayout)]
		}
		date, err := time.Parse(models.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %v", datasource.ErrMalformedPayload, item.Date, err)
		}
		rows = append(rows, models.DailyObservation{Date: date, AvgTemp: item.Tavg})
	}
	return rows, nil
}
