// Copyright © 2021 Rak Laptudirm <raklaptudirm@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the tracker-profile and default-flags file. It is
// an external collaborator: the build pipeline itself never reads a
// config file, it only ever consumes the resolved build.Options a
// caller assembles from Profile fields and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrProfileNotFound is returned by Profile when the requested profile
// name is not present in the loaded config.
var ErrProfileNotFound = errors.New("config: profile not found")

// Profile is one named tracker profile from the config file.
type Profile struct {
	Announces   []string `mapstructure:"announce"`
	PieceLenExp int      `mapstructure:"piece_length_exp"`
	Source      string   `mapstructure:"source"`
	Private     bool     `mapstructure:"private"`
}

// Config is the fully decoded config file.
type Config struct {
	Profiles map[string]Profile `mapstructure:"profiles"`
}

// Load reads the config file at path, or the default
// $XDG_CONFIG_HOME/mktorrent/config.toml location when path is empty. A
// missing file at the default location is not an error: Load returns a
// zero-value Config. A missing file at an explicitly supplied path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		dir, err := defaultConfigDir()
		if err != nil {
			return &Config{Profiles: map[string]Profile{}}, nil
		}
		v.SetConfigName("config")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || os.IsNotExist(err)) {
			return &Config{Profiles: map[string]Profile{}}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}

	return &cfg, nil
}

// Profile looks up name in c, returning ErrProfileNotFound if absent.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mktorrent"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mktorrent"), nil
}
