// Package config reads keyforge's CLI configuration: a YAML file under
// $KEYFORGE_CONFIG_DIR (default $HOME/.keyforge), overridable by
// environment variables and command-line flags. The core packages
// never import this package — configuration is a CLI-only concern.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/keyforge/keyforge/internal/corefail"
)

const (
	// EnvConfigDir overrides the default config directory.
	EnvConfigDir = "KEYFORGE_CONFIG_DIR"

	defaultDirName  = ".keyforge"
	configFileName  = "config"
	configFileType  = "yaml"
	defaultUserLbl  = "default"
	defaultVersion  = 1
	defaultDigits   = 6
	defaultPeriod   = 30
	vaultFileName   = "vault.enc"
)

// Config is the resolved set of CLI defaults, after merging flags, env,
// file, and built-in defaults (in that precedence order, highest first
// — viper's standard precedence).
type Config struct {
	UserLabel         string
	Version           uint
	VaultPath         string
	DefaultTOTPDigits int
	DefaultTOTPPeriod int64
	ConfigDir         string
}

// Dir returns the resolved configuration directory: $KEYFORGE_CONFIG_DIR
// if set, else $HOME/.keyforge.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", corefail.New(corefail.Io, "config.Dir", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// Load reads config.yaml from the resolved config directory, merging in
// environment variables prefixed KEYFORGE_ and the given flag overrides.
// A missing config file is not an error: Load falls back to defaults.
func Load(flagOverrides map[string]any) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix("keyforge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("user_label", defaultUserLbl)
	v.SetDefault("version", defaultVersion)
	v.SetDefault("vault_path", filepath.Join(dir, vaultFileName))
	v.SetDefault("totp.digits", defaultDigits)
	v.SetDefault("totp.period", defaultPeriod)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, corefail.New(corefail.Io, "config.Load", err)
		}
	}

	for key, val := range flagOverrides {
		v.Set(key, val)
	}

	return &Config{
		UserLabel:         v.GetString("user_label"),
		Version:           uint(v.GetUint("version")),
		VaultPath:         v.GetString("vault_path"),
		DefaultTOTPDigits: v.GetInt("totp.digits"),
		DefaultTOTPPeriod: v.GetInt64("totp.period"),
		ConfigDir:         dir,
	}, nil
}

// Editor returns the editor command to use for `keyforge config edit`:
// $VISUAL, then $EDITOR, then "vi".
func Editor() string {
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}
