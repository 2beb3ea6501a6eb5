package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/blob"
	"voyage-routing-service/internal/platform/clock"
	"voyage-routing-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.Handler) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewHTTPProvider(srv.URL+"/", WithAPIKey("secret"), WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	return p
}

func TestHTTPProviderLatestRun(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/runs/latest", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"source":"gfs","run_time":"2024-03-05T06:00:00Z","step_hours":3,"horizon_hours":240}`))
	}))

	run, err := p.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ports.ForecastRun{
		Source:       "gfs",
		RunTime:      time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC),
		StepHours:    3,
		HorizonHours: 240,
	}, run)
}

func TestHTTPProviderForecastGrid(t *testing.T) {
	key := grid.Key{
		Parameter:  grid.ParameterWind,
		BBox:       atlantic,
		Resolution: 1,
		Time:       time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		RunTime:    time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC),
	}
	want, err := NewSynthetic(clock.RealClock{}, 3, 240).ForecastGrid(context.Background(), key)
	require.NoError(t, err)
	payload, err := blob.EncodeGrid(want)
	require.NoError(t, err)

	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/grids/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "wind", q.Get("param"))
		assert.Equal(t, "30,-70,50,-10", q.Get("bbox"))
		assert.Equal(t, "1", q.Get("res"))
		assert.Equal(t, "2024-03-05T09:00:00Z", q.Get("time"))
		assert.Equal(t, "2024-03-05T06:00:00Z", q.Get("run"))
		_, _ = w.Write(payload)
	}))

	got, err := p.ForecastGrid(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, want.Snapshot(), got.Snapshot())
}

func TestHTTPProviderClimatologyUsesDayOfYear(t *testing.T) {
	var day string
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		day = r.URL.Query().Get("day")
		http.Error(w, "no such day", http.StatusNotFound)
	}))

	_, err := p.ClimatologyGrid(context.Background(), grid.Key{
		Parameter:  grid.ParameterCurrents,
		BBox:       atlantic,
		Resolution: 1,
		Time:       time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ports.ErrGridNotFound)
	assert.Equal(t, "32", day)
}

func TestHTTPProviderRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"source":"gfs","run_time":"2024-03-05T06:00:00Z","step_hours":3,"horizon_hours":120}`))
	}))

	run, err := p.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, run.HorizonHours)
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPProviderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad bbox", http.StatusBadRequest)
	}))

	_, err := p.ForecastGrid(context.Background(), grid.Key{Parameter: grid.ParameterWind, BBox: atlantic, Resolution: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrGridNotFound)
	assert.Contains(t, err.Error(), "bad bbox")
	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPProviderRejectsIncompleteRun(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"source":"gfs"}`))
	}))
	_, err := p.LatestRun(context.Background())
	assert.Error(t, err)
}

func TestNewHTTPProviderNeedsURL(t *testing.T) {
	_, err := NewHTTPProvider("  ")
	assert.Error(t, err)
}
