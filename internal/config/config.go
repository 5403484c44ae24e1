// Package config loads runtime settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Command-line flags override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvTokenFile       = "GMAIL_TOKEN_FILE"
	EnvCredentialsFile = "GMAIL_CREDENTIALS_FILE"
	EnvInteractiveAuth = "GMAIL_INTERACTIVE_AUTH"
	EnvAuthListenAddr  = "GMAIL_AUTH_LISTEN_ADDR"
	EnvChatterDBPath   = "CHATTER_DB_PATH"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
)

// Defaults, relative to the working directory.
const (
	DefaultTokenFile       = "token.json"
	DefaultCredentialsFile = "credentials.json"
	DefaultAuthListenAddr  = "127.0.0.1:0"
	DefaultChatterDBPath   = "community.db"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Config holds the settings shared by every command.
type Config struct {
	// TokenFile is where the Gmail OAuth token is persisted.
	TokenFile string

	// CredentialsFile is the OAuth client registration downloaded from Google Cloud Console.
	CredentialsFile string

	// InteractiveAuth allows the browser consent flow when no usable token exists.
	InteractiveAuth bool

	// AuthListenAddr is the loopback address of the consent redirect listener.
	AuthListenAddr string

	// ChatterDBPath is the SQLite database holding the chatters table.
	ChatterDBPath string

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", f, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// FromEnv builds a Config from environment variables, falling back to defaults.
func FromEnv() Config {
	return Config{
		TokenFile:       getEnvOrDefault(EnvTokenFile, DefaultTokenFile),
		CredentialsFile: getEnvOrDefault(EnvCredentialsFile, DefaultCredentialsFile),
		InteractiveAuth: getEnvBoolOrDefault(EnvInteractiveAuth, true),
		AuthListenAddr:  getEnvOrDefault(EnvAuthListenAddr, DefaultAuthListenAddr),
		ChatterDBPath:   getEnvOrDefault(EnvChatterDBPath, DefaultChatterDBPath),
		LogLevel:        getEnvOrDefault(EnvLogLevel, DefaultLogLevel),
		LogFormat:       getEnvOrDefault(EnvLogFormat, DefaultLogFormat),
	}
}

// Validate rejects empty paths and unknown log formats.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TokenFile) == "" {
		errs = append(errs, errors.New("token file path must not be empty"))
	}
	if strings.TrimSpace(c.CredentialsFile) == "" {
		errs = append(errs, errors.New("credentials file path must not be empty"))
	}
	if strings.TrimSpace(c.ChatterDBPath) == "" {
		errs = append(errs, errors.New("chatter database path must not be empty"))
	}
	if c.InteractiveAuth && strings.TrimSpace(c.AuthListenAddr) == "" {
		errs = append(errs, errors.New("auth listen address must not be empty when interactive auth is enabled"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q, must be one of: text, json", c.LogFormat))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
