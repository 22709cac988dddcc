package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCluster(t *testing.T) {
	v := viper.New()
	v.Set(EnvHost, "https://search.example.com")
	v.Set(EnvPort, "9243")
	v.Set(EnvAPIKey, "key")

	cfg, err := LoadCluster(v)
	require.NoError(t, err)
	assert.Equal(t, "https://search.example.com:9243", cfg.Address())
	assert.Equal(t, "key", cfg.APIKey)
}

func TestLoadClusterMissing(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		missing []string
	}{
		{
			name:    "nothing set",
			values:  map[string]string{},
			missing: []string{EnvHost, EnvPort, EnvAPIKey},
		},
		{
			name:    "api key missing",
			values:  map[string]string{EnvHost: "http://localhost", EnvPort: "9200"},
			missing: []string{EnvAPIKey},
		},
		{
			name:    "blank port",
			values:  map[string]string{EnvHost: "http://localhost", EnvPort: "  ", EnvAPIKey: "key"},
			missing: []string{EnvPort},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}

			_, err := LoadCluster(v)
			require.ErrorIs(t, err, ErrMissingEnv)
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestBindEnvReadsEnvironment(t *testing.T) {
	t.Setenv(EnvHost, "http://localhost/")
	t.Setenv(EnvPort, "9200")
	t.Setenv(EnvAPIKey, "secret")

	v := viper.New()
	BindEnv(v)

	cfg, err := LoadCluster(v)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9200", cfg.Address())
}
