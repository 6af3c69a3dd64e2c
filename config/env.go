package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvAlchemyKey = "ALCHEMY_API_KEY"
	EnvFile       = ".env"
)

// LoadEnv loads environment variables from a .env file in the working
// directory. A missing file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(EnvFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", EnvFile, err)
	}
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
