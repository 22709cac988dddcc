package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
)

const (
	// EnvHost is the environment variable holding the cluster host, including scheme
	EnvHost = "ES_HOST"

	// EnvPort is the environment variable holding the cluster port
	EnvPort = "ES_PORT"

	// EnvAPIKey is the environment variable holding the cluster API key
	EnvAPIKey = "ES_API_KEY"

	// EnvLogLevel is the environment variable overriding the log level
	EnvLogLevel = "LOG_LEVEL"
)

// ErrMissingEnv is returned when a required environment variable is not set
var ErrMissingEnv = errors.New("missing required environment variable")

// Cluster contains the connection parameters for the search cluster
type Cluster struct {
	Host   string
	Port   string
	APIKey string
}

// Address joins host and port the way the cluster client expects them
func (c Cluster) Address() string {
	return fmt.Sprintf("%s:%s", strings.TrimSuffix(c.Host, "/"), c.Port)
}

// BindEnv registers the environment variables this tool reads with v.
func BindEnv(v *viper.Viper) {
	for _, key := range []string{EnvHost, EnvPort, EnvAPIKey, EnvLogLevel} {
		_ = v.BindEnv(key)
	}
}

// LoadCluster reads the cluster connection parameters from v.
// Every missing variable is reported in a single error.
func LoadCluster(v *viper.Viper) (Cluster, error) {
	cfg := Cluster{
		Host:   strings.TrimSpace(v.GetString(EnvHost)),
		Port:   strings.TrimSpace(v.GetString(EnvPort)),
		APIKey: strings.TrimSpace(v.GetString(EnvAPIKey)),
	}

	var missing []string
	if cfg.Host == "" {
		missing = append(missing, EnvHost)
	}
	if cfg.Port == "" {
		missing = append(missing, EnvPort)
	}
	if cfg.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if len(missing) > 0 {
		return Cluster{}, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	logger.Debug("Loaded cluster configuration",
		zap.String("address", cfg.Address()))

	return cfg, nil
}
