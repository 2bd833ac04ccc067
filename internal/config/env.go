package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// DefaultListen is where `iconic serve` answers status queries.
const DefaultListen = "127.0.0.1:25566"

// Env holds process-level settings read from the environment.
type Env struct {
	DataDir  string `env:"ICONIC_DATA_DIR"`
	Listen   string `env:"ICONIC_LISTEN" envDefault:"127.0.0.1:25566"`
	LogLevel string `env:"ICONIC_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Paths is the on-disk layout under a data directory.
type Paths struct {
	Root   string
	Icons  string
	Input  string
	Config string
}

func NewPaths(root string) Paths {
	return Paths{
		Root:   root,
		Icons:  filepath.Join(root, "icons"),
		Input:  filepath.Join(root, "input-icons"),
		Config: filepath.Join(root, "config.toml"),
	}
}

// Ensure creates the icon and drop directories.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Icons, p.Input} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultDataDir is used when neither --data-dir nor ICONIC_DATA_DIR is set.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "iconic")
	}
	return "iconic-data"
}

// ResolveDataDir picks the flag value, then the environment, then the default.
func ResolveDataDir(flag string, e Env) string {
	switch {
	case flag != "":
		return flag
	case e.DataDir != "":
		return e.DataDir
	default:
		return DefaultDataDir()
	}
}
