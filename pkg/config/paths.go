package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "dripctl"
	defaultConfigFile    = "config.yaml"
	defaultTokenFile     = "tokens.json"
)

// DefaultConfigPath resolves the config file location: the DRIPCTL_CONFIG
// env var, then the user config dir, then a dotdir in the home directory.
func DefaultConfigPath() string {
	if env := os.Getenv("DRIPCTL_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+defaultConfigDirName, defaultConfigFile)
}

// DefaultTokenPath resolves where the file-backed token store lives.
func DefaultTokenPath() string {
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultTokenFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+defaultConfigDirName, defaultTokenFile)
}
