package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Weather.HorizonDays)
	assert.Equal(t, 2.0, cfg.Weather.BlendWindowDays)
	assert.Equal(t, 49000.0, cfg.Vessel.DWT)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeFile(t, `
vessel:
  name: Test Tanker
  laden:
    draft_m: 12.1
weather:
  horizon_days: 7
  blend_window_days: 1.5
routing:
  lambda: 0.4
  time_limit: 5s
  max_wave_height_m: 4
service:
  parallelism: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Tanker", cfg.Vessel.Name)
	assert.Equal(t, 12.1, cfg.Vessel.Laden.DraftM)
	assert.Equal(t, 0.82, cfg.Vessel.Laden.BlockCoeff)
	assert.Equal(t, 8840.0, cfg.Vessel.MCRKW)

	assert.Equal(t, 7.0, cfg.Weather.HorizonDays)
	assert.Equal(t, 1.5, cfg.Weather.BlendWindowDays)
	assert.Equal(t, 3, cfg.Weather.StepHours)

	assert.Equal(t, 0.4, cfg.Routing.Lambda)
	assert.Equal(t, 5*time.Second, cfg.Routing.TimeLimit)
	assert.Equal(t, 4.0, cfg.Routing.MaxWaveHeightM)
	assert.Equal(t, 25.0, cfg.Routing.MaxWindSpeedMS)

	assert.Equal(t, 3, cfg.Service.Parallelism)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"blend wider than horizon", "weather:\n  horizon_days: 2\n  blend_window_days: 3\n", "blend_window_days"},
		{"negative lambda", "routing:\n  lambda: -1\n", "lambda"},
		{"power response above one", "vessel:\n  power_response: 1.5\n", "power_response"},
		{"negative parallelism", "service:\n  parallelism: -2\n", "parallelism"},
		{"not yaml", "weather: [", "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	t.Setenv("VOYAGE_TEST_KEY", "set")
	assert.Equal(t, "set", Get("VOYAGE_TEST_KEY", "fallback"))

	t.Setenv("VOYAGE_TEST_KEY", "")
	assert.Equal(t, "fallback", Get("VOYAGE_TEST_KEY", "fallback"))
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.Weather.IncludeCurrents)
	assert.Equal(t, 20*time.Second, cfg.Routing.TimeLimit)
	assert.Equal(t, 6, cfg.Service.Parallelism)
}
