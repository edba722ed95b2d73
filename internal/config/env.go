package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvListen   = "CLINICDASH_LISTEN"
	EnvTimezone = "CLINICDASH_TIMEZONE"
	EnvLogLevel = "CLINICDASH_LOG_LEVEL"
	EnvFixture  = "CLINICDASH_FIXTURE"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding values already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config fields from the process environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvFixture); v != "" {
		c.FixturePath = v
	}
}
