// Package config loads and normalizes the store-level config.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
)

// starterConfig is written on first run so users edit a commented file
// instead of guessing key names.
const starterConfig = `# flowmcp configuration
#
# Values may reference environment variables with ${VAR} syntax.

# Timeout for manifest and schema file downloads.
fetchTimeoutSeconds: 10

# Timeout for a single route invocation.
invokeTimeoutSeconds: 30

# Default lifetime of cached invocation results.
cacheTTLSeconds: 300

# Listener for /metrics and /healthz in serve mode.
observability:
  listenAddress: "0.0.0.0:9090"

# Credentials substituted into schema routes, keyed by the names the
# schemas declare under requiredServerParams. FLOWMCP_<NAME> environment
# variables override these at call time.
#serverParams:
#  COINGECKO_API_KEY: ${COINGECKO_API_KEY}
`

type Loader struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("fetchTimeoutSeconds", domain.DefaultFetchTimeoutSeconds)
	v.SetDefault("invokeTimeoutSeconds", domain.DefaultInvokeTimeoutSeconds)
	v.SetDefault("cacheTTLSeconds", domain.DefaultCacheTTLSeconds)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
}

type rawConfig struct {
	FetchTimeoutSeconds  int                    `mapstructure:"fetchTimeoutSeconds"`
	InvokeTimeoutSeconds int                    `mapstructure:"invokeTimeoutSeconds"`
	CacheTTLSeconds      int                    `mapstructure:"cacheTTLSeconds"`
	Observability        rawObservabilityConfig `mapstructure:"observability"`
	ServerParams         map[string]string      `mapstructure:"serverParams"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

// Load reads the config file at path, writing the starter file first when
// none exists yet. ${VAR} references are expanded from the environment
// before decoding.
func (l *Loader) Load(path string) (domain.Config, error) {
	if path == "" {
		return domain.Config{}, errors.New("config path is required")
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if writeErr := fsutil.WriteFileAtomic(path, []byte(starterConfig), fsutil.DefaultFileMode); writeErr != nil {
			return domain.Config{}, fmt.Errorf("write starter config: %w", writeErr)
		}
		l.logger.Info("wrote starter config", zap.String("path", path))
		data = []byte(starterConfig)
	case err != nil:
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	expanded, missing, err := expandConfigEnv(data)
	if err != nil {
		return domain.Config{}, err
	}
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config",
			zap.String("path", path), zap.Strings("missing", missing))
	}

	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return domain.Config{}, fmt.Errorf("parse config: %w", err)
	}
	var cfg rawConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}

	normalized, errs := normalizeConfig(cfg)
	if len(errs) > 0 {
		return domain.Config{}, errors.New(strings.Join(errs, "; "))
	}
	return normalized, nil
}

func normalizeConfig(cfg rawConfig) (domain.Config, []string) {
	var errs []string

	if cfg.FetchTimeoutSeconds <= 0 {
		errs = append(errs, "fetchTimeoutSeconds must be > 0")
	}
	if cfg.InvokeTimeoutSeconds <= 0 {
		errs = append(errs, "invokeTimeoutSeconds must be > 0")
	}
	if cfg.CacheTTLSeconds <= 0 {
		errs = append(errs, "cacheTTLSeconds must be > 0")
	}

	addr := strings.TrimSpace(cfg.Observability.ListenAddress)
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}

	params := make(map[string]string, len(cfg.ServerParams))
	for name, value := range cfg.ServerParams {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			errs = append(errs, "serverParams contains an empty key")
			continue
		}
		params[trimmed] = value
	}

	return domain.Config{
		FetchTimeoutSeconds:  cfg.FetchTimeoutSeconds,
		InvokeTimeoutSeconds: cfg.InvokeTimeoutSeconds,
		CacheTTLSeconds:      cfg.CacheTTLSeconds,
		Observability:        domain.ObservabilityConfig{ListenAddress: addr},
		ServerParams:         params,
	}, errs
}
