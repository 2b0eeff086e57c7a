package domain

import "time"

// Config is the store-level runtime configuration loaded from config.yaml.
type Config struct {
	FetchTimeoutSeconds  int
	InvokeTimeoutSeconds int
	CacheTTLSeconds      int
	Observability        ObservabilityConfig
	ServerParams         map[string]string
}

// ObservabilityConfig addresses the /metrics and /healthz listener started
// by serve mode.
type ObservabilityConfig struct {
	ListenAddress string
}

// FetchTimeout returns the manifest/file fetch timeout, defaulting when unset.
func (c Config) FetchTimeout() time.Duration {
	seconds := c.FetchTimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultFetchTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// InvokeTimeout returns the route invocation timeout, defaulting when unset.
func (c Config) InvokeTimeout() time.Duration {
	seconds := c.InvokeTimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultInvokeTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// CacheTTL returns the default cache entry lifetime in seconds.
func (c Config) CacheTTL() int {
	if c.CacheTTLSeconds <= 0 {
		return DefaultCacheTTLSeconds
	}
	return c.CacheTTLSeconds
}
