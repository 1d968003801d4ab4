// Package config loads CLI settings from an optional recordstore.yaml file
// and RECORDSTORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "RECORDSTORE"

	// FileName is the config file looked up in the search paths.
	FileName = "recordstore"

	KeyFormat  = "format"
	KeyVerbose = "verbose"
	KeyJournal = "journal"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config is the resolved CLI configuration.
type Config struct {
	Format  string
	Verbose bool
	Journal string // journal database path; empty disables journaling

	// File is the config file that was read, empty if none.
	File string
}

// Load reads configuration.
//
// If path is set, that file must exist. Otherwise recordstore.yaml is looked
// up in each of searchPaths (the current directory when none are given) and
// a missing file is not an error. Environment variables override file
// values; defaults fill the rest.
func Load(path string, searchPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyJournal, "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		if len(searchPaths) == 0 {
			searchPaths = []string{"."}
		}
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Format:  v.GetString(KeyFormat),
		Verbose: v.GetBool(KeyVerbose),
		Journal: v.GetString(KeyJournal),
		File:    v.ConfigFileUsed(),
	}

	if !slices.Contains(ValidFormats, cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}

	return cfg, nil
}
