package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8086", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "chance.simulations", cfg.Redis.Stream)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Postgres.Enabled)
	assert.Equal(t, 100000, cfg.Simulation.DefaultTrials)
	assert.Equal(t, 10000000, cfg.Simulation.MaxTrials)
	assert.Equal(t, 4, cfg.Simulation.Workers)
	assert.Equal(t, 0.01, cfg.Simulation.Tolerance)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://fortuna.app")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("SIMULATION_WORKERS", "8")
	t.Setenv("SIMULATION_TOLERANCE", "0.005")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "https://fortuna.app"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.URL)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 8, cfg.Simulation.Workers)
	assert.Equal(t, 0.005, cfg.Simulation.Tolerance)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	t.Setenv("SIMULATION_WORKERS", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Addr: ":8086"},
			Simulation: SimulationConfig{
				DefaultTrials: 1000,
				MaxTrials:     10000,
				Workers:       2,
				Tolerance:     0.01,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing addr", func(c *Config) { c.Server.Addr = " " }, "SERVER_ADDR"},
		{"zero default trials", func(c *Config) { c.Simulation.DefaultTrials = 0 }, "SIMULATION_DEFAULT_TRIALS must be positive"},
		{"default above max", func(c *Config) { c.Simulation.DefaultTrials = 20000 }, "exceeds SIMULATION_MAX_TRIALS"},
		{"no workers", func(c *Config) { c.Simulation.Workers = 0 }, "SIMULATION_WORKERS"},
		{"tolerance of one", func(c *Config) { c.Simulation.Tolerance = 1 }, "SIMULATION_TOLERANCE"},
		{"redis without url", func(c *Config) { c.Redis.Enabled = true }, "REDIS_URL"},
		{"postgres without dsn", func(c *Config) { c.Postgres.Enabled = true }, "CHANCE_DSN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
