package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the CLI-level options. Precedence: flags > TRIAGE_* env >
// .triage/settings.yaml > defaults.
type Settings struct {
	Format        string   `mapstructure:"format"`
	MaxFiles      int      `mapstructure:"max_files"`
	CriticalPaths []string `mapstructure:"critical_paths"`
	ConfigPath    string   `mapstructure:"config"`
	ProfilesDir   string   `mapstructure:"profiles"`
	FailOn        string   `mapstructure:"fail_on"`
	DiffChecks    bool     `mapstructure:"diff_checks"`
	SkipChecks    []string `mapstructure:"skip_checks"`
}

// DefaultMaxFiles bounds the deep-review selection when nothing else is set.
const DefaultMaxFiles = 10

// NewViper returns a viper instance rooted at base with defaults and env binding.
func NewViper(base string) *viper.Viper {
	v := viper.New()
	v.SetDefault("format", "text")
	v.SetDefault("max_files", DefaultMaxFiles)
	v.SetDefault("critical_paths", []string{})
	v.SetDefault("config", "")
	v.SetDefault("profiles", "")
	v.SetDefault("fail_on", "")
	v.SetDefault("diff_checks", false)
	v.SetDefault("skip_checks", []string{})

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(base, Dir))

	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads the optional settings file and unmarshals the result.
func LoadSettings(v *viper.Viper) (Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("reading settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if s.MaxFiles <= 0 {
		s.MaxFiles = DefaultMaxFiles
	}
	return s, nil
}
