package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fridge-controller/internal/logic"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Loop.Tick)
	assert.Equal(t, 4*time.Second, cfg.Loop.Sensors)
	assert.Equal(t, 5*time.Second, cfg.Loop.Upload)
	assert.Equal(t, 120*time.Second, cfg.Loop.Save)
	assert.Equal(t, 4.0, cfg.Control.TargetTemperature)
	assert.Equal(t, -10.0, cfg.Control.DefrostThreshold)
	assert.Equal(t, "AUTO", cfg.Control.DefrostType)
	assert.Equal(t, 26, cfg.Relays.Compressor)
	assert.Equal(t, 20, cfg.Relays.Ventilation)
	assert.Equal(t, 21, cfg.Relays.Heater)
	assert.True(t, cfg.Relays.ActiveLow)
	assert.Equal(t, 5*time.Second, cfg.Uplink.Timeout)
	assert.Empty(t, cfg.Tag.TrustedUID)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFlagsOverride(t *testing.T) {
	cfg, err := Load([]string{
		"--tick", "100ms",
		"--broker", "tcp://broker:1883",
		"--http", ":9000",
		"--log-level", "debug",
		"--device-id", "walk-in-2",
	})
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Loop.Tick)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "walk-in-2", cfg.DeviceID)
}

func TestLoadUnsetFlagsKeepDefaults(t *testing.T) {
	cfg, err := Load([]string{"--broker", "tcp://b:1883"})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "fridge-1", cfg.DeviceID)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("FRIDGE_LOOP_UPLOAD", "10s")
	t.Setenv("FRIDGE_UPLINK_USERNAME", "unit")
	t.Setenv("FRIDGE_CONTROL_TARGET_TEMPERATURE", "2.5")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Loop.Upload)
	assert.Equal(t, "unit", cfg.Uplink.Username)
	assert.Equal(t, 2.5, cfg.Control.TargetTemperature)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fridge.yml")
	data := `
device_id: cold-room
control:
  target_temperature: 3
  defrost_type: HEATER
relays:
  active_low: false
tag:
  trusted_uid: "DE:AD:BE:EF"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "cold-room", cfg.DeviceID)
	assert.Equal(t, 3.0, cfg.Control.TargetTemperature)
	assert.Equal(t, "HEATER", cfg.Control.DefrostType)
	assert.False(t, cfg.Relays.ActiveLow)
	assert.Equal(t, "DE:AD:BE:EF", cfg.Tag.TrustedUID)
	// Untouched keys keep defaults.
	assert.Equal(t, -10.0, cfg.Control.DefrostThreshold)
	require.NoError(t, cfg.Validate())

	st := cfg.DefaultState()
	assert.Equal(t, logic.DefrostHeater, st.DefrostType)
	assert.Equal(t, 3.0, st.TargetTemperature)
}

func TestLoadFlagBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fridge.yml")
	require.NoError(t, os.WriteFile(path, []byte("device_id: from-file\n"), 0o644))

	cfg, err := Load([]string{"--config", path, "--device-id", "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.DeviceID)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yml")})
	assert.Error(t, err)
}

func TestLoadBadFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(nil)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.Loop.Tick = 0 }},
		{"negative save", func(c *Config) { c.Loop.Save = -time.Second }},
		{"negative heartbeat", func(c *Config) { c.Loop.Heartbeat = -time.Second }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad defrost type", func(c *Config) { c.Control.DefrostType = "STEAM" }},
		{"shared pin", func(c *Config) { c.Relays.Heater = c.Relays.Compressor }},
		{"negative pin", func(c *Config) { c.Relays.Ventilation = -1 }},
		{"bad uid", func(c *Config) { c.Tag.TrustedUID = "XYZ" }},
		{"no uplink", func(c *Config) { c.Uplink.URL = "" }},
		{"no state path", func(c *Config) { c.StatePath = "" }},
		{"zero stable cycles", func(c *Config) { c.Control.StableCycles = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRegulatorConfig(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, logic.DefaultRegulatorConfig(), cfg.RegulatorConfig())
}
