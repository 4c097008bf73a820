package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = "deeplink"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix.
const envPrefix = "DEEPLINK"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

//go:embed schema.cue
var schemaSource string

// ValidationError reports configuration values rejected by the schema.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Messages, "; ")
}

// Load loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise deeplink.yaml is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// decodeHook lets env vars carry durations and comma-separated lists.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func applyDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("protocol_scheme", d.ProtocolScheme)
	v.SetDefault("website_host", d.WebsiteHost)
	v.SetDefault("attribution_host", d.AttributionHost)
	v.SetDefault("api_domain", d.APIDomain)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("disallowed_params", d.DisallowedParams)

	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("corpus.path", d.Corpus.Path)
}

// Validate checks c against the embedded schema, then the constraints the
// schema cannot express.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		verr := &ValidationError{}
		for _, e := range cueerrors.Errors(err) {
			verr.Messages = append(verr.Messages, e.Error())
		}
		return verr
	}

	if c.HTTPTimeout <= 0 {
		return &ValidationError{Messages: []string{"http_timeout: must be positive"}}
	}
	return nil
}
