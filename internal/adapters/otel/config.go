package otel

import "errors"

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Enabled  bool   `yaml:"enabled"`
	Insecure bool   `yaml:"insecure"`
}

// ErrDisabled is returned by NewExporter when metrics are not configured.
var ErrDisabled = errors.New("OTEL exporter is disabled or endpoint not configured")

// Active reports whether an exporter should be created.
func (c Config) Active() bool {
	return c.Enabled && c.Endpoint != ""
}
