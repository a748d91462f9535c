// Package paths resolves where netherland keeps its configuration and its
// core database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "netherland"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".netherland"
	DefaultDataDirName   = ".netherland-db"
)

// File names inside the config directory.
const (
	ConfigFileName    = "config.yaml"
	ConstantsFileName = "constants.toml"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "NETHERLAND_CONFIG_DIR"
	EnvDataDir   = "NETHERLAND_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/netherland (fallback ~/.config/netherland)
// macOS:   ~/Library/Application Support/netherland
// Windows: %APPDATA%/netherland
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/netherland (fallback ~/.local/share/netherland)
// macOS:   ~/Library/Application Support/netherland
// Windows: %APPDATA%/netherland
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformPath(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > NETHERLAND_CONFIG_DIR env > CWD-relative
// .netherland if it exists > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if info, err := os.Stat(DefaultConfigDirName); err == nil && info.IsDir() {
		return filepath.Abs(DefaultConfigDirName)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > NETHERLAND_DATA_DIR env > $(CWD)/.netherland-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	for _, v := range []string{flag, configYAMLValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the path of config.yaml in configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// ConstantsFile resolves the constants file named in config.yaml. An empty
// name means ConstantsFileName; relative names are taken from configDir.
func ConstantsFile(configDir, name string) string {
	if name == "" {
		name = ConstantsFileName
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(configDir, name)
}
