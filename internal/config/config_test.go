package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "cli", cfg.Mode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Slots)
	assert.Equal(t, Rates{Car: 20, Bike: 10, Truck: 40}, cfg.Rates)
	assert.True(t, cfg.OTel.Enabled)
	assert.Equal(t, "parking-lot-service", cfg.OTel.ServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTel.Endpoint)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PARKING_MODE", "server")
	t.Setenv("PORT", "9090")
	t.Setenv("PARKING_SLOTS", "12")
	t.Setenv("PARKING_RATES_TRUCK", "55.5")
	t.Setenv("OTEL_SERVICE_NAME", "lot-a")
	t.Setenv("OTEL_SDK_DISABLED", "true")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 12, cfg.Slots)
	assert.InDelta(t, 55.5, cfg.Rates.Truck, 0.001)
	assert.InDelta(t, 20, cfg.Rates.Car, 0.001)
	assert.Equal(t, "lot-a", cfg.OTel.ServiceName)
	assert.False(t, cfg.OTel.Enabled)
	assert.False(t, cfg.IsDevelopment())
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PARKING_SLOTS", "12")

	cfg, err := Load([]string{"--slots", "3", "--mode", "both", "--port", "7000"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Slots)
	assert.Equal(t, "both", cfg.Mode)
	assert.Equal(t, "7000", cfg.Port)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lot.yaml")
	content := "slots: 8\nrates:\n  car: 25\n  bike: 5\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Slots)
	assert.InDelta(t, 25, cfg.Rates.Car, 0.001)
	assert.InDelta(t, 5, cfg.Rates.Bike, 0.001)
	assert.InDelta(t, 40, cfg.Rates.Truck, 0.001)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown mode", args: []string{"--mode", "gui"}},
		{name: "zero slots", args: []string{"--slots", "0"}},
		{name: "negative rate", env: map[string]string{"PARKING_RATES_BIKE": "-1"}},
		{name: "NaN rate", env: map[string]string{"PARKING_RATES_CAR": "NaN"}},
		{name: "infinite rate", env: map[string]string{"PARKING_RATES_TRUCK": "+Inf"}},
		{name: "missing config file", args: []string{"--config", "/nonexistent/parking.yaml"}},
		{name: "unknown flag", args: []string{"--capacity", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}
