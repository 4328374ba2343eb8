package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"contentanalyzer/internal/config"
)

// ErrNotFound reports that no provider in a chain knows the key.
var ErrNotFound = errors.New("credential not found")

// Provider resolves named secrets from one source.
type Provider interface {
	Name() string
	// Lookup returns the value for key, or "" when the source lacks it.
	Lookup(key string) (string, error)
}

// Credential is a resolved secret and where it came from.
type Credential struct {
	Key    string
	Value  string
	Source string
}

// Chain tries providers in order; the first non-empty value wins.
type Chain []Provider

// Resolve returns the first non-empty value for key.
func (c Chain) Resolve(key string) (Credential, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Credential{}, errors.New("credential key required")
	}
	for _, provider := range c {
		value, err := provider.Lookup(key)
		if err != nil {
			return Credential{}, fmt.Errorf("%s: %w", provider.Name(), err)
		}
		if value = strings.TrimSpace(value); value != "" {
			return Credential{Key: key, Value: value, Source: provider.Name()}, nil
		}
	}
	return Credential{}, fmt.Errorf("%w: %s (checked %s)", ErrNotFound, key, strings.Join(c.names(), ", "))
}

func (c Chain) names() []string {
	names := make([]string, 0, len(c))
	for _, provider := range c {
		names = append(names, provider.Name())
	}
	return names
}

// ForConfig returns the standard chain: the secrets file, then the environment.
func ForConfig(cfg *config.Config) Chain {
	return Chain{SecretsFile{Path: cfg.Paths.SecretsFile}, Env{}}
}

// SecretsFile reads top-level string keys from a TOML file. A missing file
// resolves nothing.
type SecretsFile struct {
	Path string
}

func (s SecretsFile) Name() string {
	return "secrets file"
}

func (s SecretsFile) Lookup(key string) (string, error) {
	if strings.TrimSpace(s.Path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", s.Path, err)
	}
	var secrets map[string]any
	if err := toml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if value, ok := secrets[key].(string); ok {
		return value, nil
	}
	for name, raw := range secrets {
		if value, ok := raw.(string); ok && strings.EqualFold(name, key) {
			return value, nil
		}
	}
	return "", nil
}

// Env reads the process environment.
type Env struct{}

func (Env) Name() string {
	return "environment"
}

func (Env) Lookup(key string) (string, error) {
	value, _ := os.LookupEnv(key)
	return value, nil
}

// LoadEnvFile merges a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("load env file %s: %w", path, err)
	}
	return true, nil
}
