package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/paths"
	"github.com/thoreinstein/docvalidate/pkg/fileutil"
)

// AppName is the application name used for config file naming.
const AppName = "docvalidate"

// EnvPrefix prefixes every environment variable read by the config layer.
const EnvPrefix = "DOCVALIDATE"

// Metaschema sources.
const (
	SourceBundled = "bundled"
	SourceRemote  = "remote"
)

// DefaultMetaschemaURL is where the remote source fetches from by default.
const DefaultMetaschemaURL = "https://json-schema.org/draft/2020-12/schema"

// Config represents the top-level configuration structure.
type Config struct {
	Root        string           `mapstructure:"root" yaml:"root"`
	FailFast    bool             `mapstructure:"fail_fast" yaml:"fail_fast"`
	Format      string           `mapstructure:"format" yaml:"format"`
	Exclude     []string         `mapstructure:"exclude" yaml:"exclude"`
	MaxFileSize int64            `mapstructure:"max_file_size" yaml:"max_file_size"`
	Metaschema  MetaschemaConfig `mapstructure:"metaschema" yaml:"metaschema"`
	OpenAPI     OpenAPIConfig    `mapstructure:"openapi" yaml:"openapi"`
	ReportFile  string           `mapstructure:"report_file" yaml:"report_file"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// MetaschemaConfig selects the Draft 2020-12 metaschema source.
type MetaschemaConfig struct {
	Source  string        `mapstructure:"source" yaml:"source"`
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OpenAPIConfig tunes OpenAPI validation.
type OpenAPIConfig struct {
	Strict          bool `mapstructure:"strict" yaml:"strict"`
	IncludeWarnings bool `mapstructure:"include_warnings" yaml:"include_warnings"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName(AppName)
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(paths.ConfigDir())

	// Environment variable support
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("root", ".")
	viper.SetDefault("fail_fast", true)
	viper.SetDefault("format", "text")
	viper.SetDefault("exclude", []string{".git", "node_modules"})
	viper.SetDefault("max_file_size", fileutil.DefaultMaxFileSize)
	viper.SetDefault("metaschema.source", SourceBundled)
	viper.SetDefault("metaschema.url", DefaultMetaschemaURL)
	viper.SetDefault("metaschema.timeout", 10*time.Second)
	viper.SetDefault("openapi.strict", false)
	viper.SetDefault("openapi.include_warnings", false)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit load: defaults are fine.
		case errors.As(err, &notFound):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	cfg.File = viper.ConfigFileUsed()

	return &cfg, nil
}
