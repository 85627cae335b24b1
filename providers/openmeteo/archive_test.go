package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastwise/datasource"
)

var (
	start = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC)
)

func TestFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v1/archive", r.URL.Path)
		assert.Equal(t, "18.52", q.Get("latitude"))
		assert.Equal(t, "73.85", q.Get("longitude"))
		assert.Equal(t, "2018-01-01", q.Get("start_date"))
		assert.Equal(t, "2018-01-03", q.Get("end_date"))
		assert.Equal(t, "temperature_2m_mean", q.Get("daily"))

		_, _ = w.Write([]byte(`{
			"latitude": 18.5, "longitude": 73.875,
			"daily": {
				"time": ["2018-01-01", "2018-01-02", "2018-01-03"],
				"temperature_2m_mean": [21.4, null, 22.9]
			}
		}`))
	}))
	defer srv.Close()

	rows, err := NewArchiveSource(srv.URL, srv.Client()).FetchHistory(context.Background(), 18.52, 73.85, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, start, rows[0].Date)
	require.NotNil(t, rows[0].AvgTemp)
	assert.Equal(t, 21.4, *rows[0].AvgTemp)
	assert.Nil(t, rows[1].AvgTemp)
	assert.Equal(t, end, rows[2].Date)
}

func TestFetchHistoryUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	_, err := NewArchiveSource(srv.URL, srv.Client()).FetchHistory(context.Background(), 1, 2, start, end)
	require.ErrorIs(t, err, datasource.ErrUpstreamStatus)
	assert.Contains(t, err.Error(), "out of allowed range")
}

func TestFetchHistoryMismatchedColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily": {"time": ["2018-01-01", "2018-01-02"], "temperature_2m_mean": [21.4]}}`))
	}))
	defer srv.Close()

	_, err := NewArchiveSource(srv.URL, srv.Client()).FetchHistory(context.Background(), 1, 2, start, end)
	assert.ErrorIs(t, err, datasource.ErrMalformedPayload)
}

func TestNewArchiveSourceDefaults(t *testing.T) {
	a := NewArchiveSource("", nil)
	assert.Equal(t, DefaultBaseURL, a.baseURL)
	assert.NotNil(t, a.httpClient)
	assert.Equal(t, "Open-Meteo", a.Name())
}
