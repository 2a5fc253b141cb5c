package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	yamlparser "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, e.g.
// LITESTORE_DATABASE_MAX_OPEN_CONNS=50.
const envPrefix = "LITESTORE_"

type loadOptions struct {
	filePath string
}

// LoadOption customizes configuration loading.
type LoadOption func(*loadOptions)

// WithFile adds a YAML file as a configuration source. The file overrides
// defaults and is overridden by environment variables.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.filePath = path }
}

// Load assembles the configuration from defaults, the optional file source,
// and the environment, then validates it. The returned Config is ready to be
// passed to store.New.
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if o.filePath != "" {
		if err := k.Load(file.Provider(o.filePath), yamlparser.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", o.filePath, err)
		}
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnvKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg, err := unmarshalAndValidate(k)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// transformEnvKey maps LITESTORE_<SECTION>_<FIELD> onto the dotted koanf path
// <section>.<field>, keeping underscores inside the field name.
func transformEnvKey(key string, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if section, field, found := strings.Cut(key, "_"); found {
		return section + "." + field, value
	}
	return key, value
}

func unmarshalAndValidate(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg.Log); err != nil {
		return nil, fmt.Errorf("config: validate log: %w", err)
	}
	// Database owns its own validation so violations surface as *store.ConfigError.
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
