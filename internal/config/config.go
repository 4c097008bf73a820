// Package config loads deeplink settings from defaults, an optional YAML
// file and DEEPLINK_* environment variables, and validates the result
// against an embedded CUE schema.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/idresolve"
	"github.com/roach88/deeplink/internal/route"
)

// Defaults. Link and lookup defaults come from the packages that use them.
const (
	DefaultProtocolScheme  = deeplink.DefaultProtocolScheme
	DefaultWebsiteHost     = deeplink.DefaultWebsiteHost
	DefaultAttributionHost = deeplink.DefaultAttributionHost
	DefaultAPIDomain       = idresolve.DefaultAPIDomain
	DefaultHTTPTimeout     = idresolve.DefaultTimeout
	DefaultLogLevel        = "info"
	DefaultServeAddr       = ":8080"
	DefaultCorpusPath      = "deeplink.db"
)

// Config is the top-level configuration.
// mapstructure tags drive viper; json tags drive schema validation.
type Config struct {
	ProtocolScheme  string        `mapstructure:"protocol_scheme" json:"protocol_scheme"`
	WebsiteHost     string        `mapstructure:"website_host" json:"website_host"`
	AttributionHost string        `mapstructure:"attribution_host" json:"attribution_host"`
	APIDomain       string        `mapstructure:"api_domain" json:"api_domain"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout" json:"-"`
	LogLevel        string        `mapstructure:"log_level" json:"log_level"`

	// DisallowedParams lists parameters dropped when building links. It is a
	// list rather than a map because viper lowercases map keys and route
	// names are case-sensitive.
	DisallowedParams []DisallowedRule `mapstructure:"disallowed_params" json:"disallowed_params,omitempty"`

	Serve  ServeConfig  `mapstructure:"serve" json:"serve"`
	Corpus CorpusConfig `mapstructure:"corpus" json:"corpus"`
}

// ServeConfig holds HTTP service settings.
type ServeConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// CorpusConfig holds link corpus settings.
type CorpusConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// DisallowedRule names parameters Create drops for one route.
type DisallowedRule struct {
	Route  string   `mapstructure:"route" json:"route"`
	Params []string `mapstructure:"params" json:"params,omitempty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ProtocolScheme:   DefaultProtocolScheme,
		WebsiteHost:      DefaultWebsiteHost,
		AttributionHost:  DefaultAttributionHost,
		APIDomain:        DefaultAPIDomain,
		HTTPTimeout:      DefaultHTTPTimeout,
		LogLevel:         DefaultLogLevel,
		DisallowedParams: []DisallowedRule{},
		Serve:            ServeConfig{Addr: DefaultServeAddr},
		Corpus:           CorpusConfig{Path: DefaultCorpusPath},
	}
}

// Disallowed returns DisallowedParams keyed by route name.
func (c *Config) Disallowed() map[route.Name][]string {
	out := make(map[route.Name][]string, len(c.DisallowedParams))
	for _, rule := range c.DisallowedParams {
		name := route.Name(rule.Route)
		out[name] = append(out[name], rule.Params...)
	}
	return out
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
