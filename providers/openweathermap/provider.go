package openweathermap

import (
	"bytes"
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

// DefaultBaseURL is the OpenWeatherMap 2.5 API root
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Provider fetches current conditions from the OpenWeatherMap current weather endpoint
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Ensure Provider implements datasource.WeatherProvider
var _ datasource.WeatherProvider = (*Provider)(nil)

// Option customises a Provider
type Option func(*Provider)

// WithBaseURL points the provider at another API root, e.g. a test server
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProvider creates a new OpenWeatherMap provider
func NewProvider(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "OpenWeatherMap"
}

// statusCode is the "cod" field: a number on success, a string on errors
type statusCode int

func (s *statusCode) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("invalid cod %q: %w", b, err)
	}
	*s = statusCode(n)
	return nil
}

// currentResponse is the subset of the current weather payload the dashboard uses
type currentResponse struct {
	Cod     statusCode `json:"cod"`
	Message string     `json:"message"`
	Main    *struct {
		Temp     json.Number `json:"temp"`
		Humidity json.Number `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed json.Number `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// GetWeather fetches current weather for a city in metric units
func (p *Provider) GetWeather(ctx context.Context, city string) (models.CurrentConditions, error) {
	params := url.Values{}
	params.Add("q", city)
	params.Add("appid", p.apiKey)
	params.Add("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("failed to create request: %w", err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	queriedAt := p.now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("failed to read response body: %w", err)
	}

	// Errors come back with a JSON body whose cod carries the status
	var response currentResponse
	if err := json.Unmarshal(body, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return models.CurrentConditions{}, fmt.Errorf("%w: status %d", datasource.ErrUpstreamStatus, resp.StatusCode)
		}
		return models.CurrentConditions{}, fmt.Errorf("%w: %v", datasource.ErrMalformedPayload, err)
	}
	if response.Cod != http.StatusOK {
		return models.CurrentConditions{}, fmt.Errorf("%w: cod %d: %s", datasource.ErrUpstreamStatus, response.Cod, response.Message)
	}

	return toConditions(city, queriedAt, response)
}

func toConditions(city string, queriedAt time.Time, r currentResponse) (models.CurrentConditions, error) {
	if r.Main == nil || r.Wind == nil || len(r.Weather) == 0 {
		return models.CurrentConditions{}, fmt.Errorf("%w: missing main, wind or weather", datasource.ErrMalformedPayload)
	}

	temp, err := r.Main.Temp.Float64()
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("%w: main.temp: %v", datasource.ErrMalformedPayload, err)
	}
	humidity, err := r.Main.Humidity.Float64()
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("%w: main.humidity: %v", datasource.ErrMalformedPayload, err)
	}
	wind, err := r.Wind.Speed.Float64()
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("%w: wind.speed: %v", datasource.ErrMalformedPayload, err)
	}

	return models.CurrentConditions{
		City:        city,
		Temperature: temp,
		Humidity:    humidity,
		WindSpeed:   wind,
		Description: r.Weather[0].Description,
		Timestamp:   queriedAt,
		Readings: models.Readings{
			Temperature: r.Main.Temp.String(),
			Humidity:    r.Main.Humidity.String(),
			WindSpeed:   r.Wind.Speed.String(),
		},
	}, nil
}
