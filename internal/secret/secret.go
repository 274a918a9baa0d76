// Package secret decouples credential storage from the polling logic.
// Config entries name secrets; a Provider resolves those names at startup so
// passwords never live as plaintext constants in the daemon's config structs.
package secret

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider resolves a named secret to its value.
type Provider interface {
	Fetch(name string) (string, error)
}

// EnvPrefix is the prefix for environment-backed secrets.
const EnvPrefix = "SERVERMON_SECRET_"

// envProvider resolves secrets from environment variables.
// Secret "probe_password" is read from SERVERMON_SECRET_PROBE_PASSWORD.
type envProvider struct{}

// NewEnvProvider returns a Provider backed by environment variables.
func NewEnvProvider() Provider {
	return &envProvider{}
}

func (p *envProvider) Fetch(name string) (string, error) {
	key := EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	val, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %q not found (environment variable %s is unset)", name, key)
	}
	return val, nil
}

// fileProvider resolves secrets from a YAML file of name: value pairs.
type fileProvider struct {
	secrets map[string]string
}

// NewFileProvider loads a YAML secrets file. The file is a flat mapping:
//
//	probe_password: hunter2
//	probe_password_fallback: hunter3
func NewFileProvider(path string) (Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}

	secrets := make(map[string]string)
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", path, err)
	}

	return &fileProvider{secrets: secrets}, nil
}

func (p *fileProvider) Fetch(name string) (string, error) {
	val, ok := p.secrets[name]
	if !ok {
		return "", fmt.Errorf("secret %q not found in secrets file", name)
	}
	return val, nil
}

// Static is a fixed-map Provider for tests.
type Static map[string]string

func (s Static) Fetch(name string) (string, error) {
	val, ok := s[name]
	if !ok {
		return "", fmt.Errorf("secret %q not found", name)
	}
	return val, nil
}

// Chain tries each provider in order and returns the first hit.
// Lets a deployment keep most secrets in a file while overriding
// individual ones through the environment.
type Chain []Provider

func (c Chain) Fetch(name string) (string, error) {
	var lastErr error
	for _, p := range c {
		val, err := p.Fetch(name)
		if err == nil {
			return val, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("secret %q not found (no providers configured)", name)
	}
	return "", lastErr
}
