// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global Gainhour directory.
	GlobalDirName = ".gainhour"

	// IconsDirName is the name of the icon cache directory.
	IconsDirName = "icons"
)

// File names
const (
	DaemonFileName = "daemon.yaml"
	ConfigFileName = "config.yaml"
	DBFileName     = "gainhour.db"
)

// GlobalDir returns the path to the global Gainhour directory (~/.gainhour/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalConfigFile returns the path to the config.yaml file.
func GlobalConfigFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// GlobalDBFile returns the path to the SQLite database file.
func GlobalDBFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFileName), nil
}

// GlobalIconsDir returns the path to the icon cache directory.
func GlobalIconsDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, IconsDirName), nil
}

// EnsureGlobalDir creates the global Gainhour directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
