// Package openmeteo reads daily mean temperatures from the Open-Meteo historical weather archive.
package openmeteo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"forecastwise/datasource"
	"forecastwise/models"
)

// DefaultBaseURL is the archive API host
const DefaultBaseURL = "https://archive-api.open-meteo.com"

// ArchiveSource implements datasource.HistorySource on top of /v1/archive
type ArchiveSource struct {
	baseURL    string
	httpClient *http.Client
}

var _ datasource.HistorySource = (*ArchiveSource)(nil)

// NewArchiveSource creates a new archive source. An empty baseURL selects the public API.
func NewArchiveSource(baseURL string, client *http.Client) *ArchiveSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArchiveSource{baseURL: baseURL, httpClient: client}
}

// Name returns the source name
func (a *ArchiveSource) Name() string {
	return "Open-Meteo"
}

type archiveResponse struct {
	Daily struct {
		Time []string   `json:"time"`
		Mean []*float64 `json:"temperature_2m_mean"`
	} `json:"daily"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// FetchHistory fetches daily mean temperatures for the point between start and end
func (a *ArchiveSource) FetchHistory(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("start_date", start.Format(models.DateLayout))
	params.Set("end_date", end.Format(models.DateLayout))
	params.Set("daily", "temperature_2m_mean")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/archive?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response archiveResponse
	decodeErr := json.Unmarshal(body, &response)

	if resp.StatusCode != http.StatusOK || response.Error {
		reason := response.Reason
		if decodeErr != nil || reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", datasource.ErrUpstreamStatus, resp.StatusCode, reason)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", datasource.ErrMalformedPayload, decodeErr)
	}
	if len(response.Daily.Time) != len(response.Daily.Mean) {
		return nil, fmt.Errorf("%w: %d dates but %d temperatures", datasource.ErrMalformedPayload,
			len(response.Daily.Time), len(response.Daily.Mean))
	}

	rows := make([]models.DailyObservation, 0, len(response.Daily.Time))
	for i, day := range response.Daily.Time {
		date, err := time.Parse(models.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %v", datasource.ErrMalformedPayload, day, err)
		}
		rows = append(rows, models.DailyObservation{Date: date, AvgTemp: response.Daily.Mean[i]})
	}
	return rows, nil
}
