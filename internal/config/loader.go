package config

import (
	"os"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/errors"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/secret"
	"github.com/spf13/viper"
)

// ConfigFileName is the default config file name, searched for in the
// working directory when no explicit path is given.
const ConfigFileName = "servermon.yaml"

// Load reads config from the specified path, falling back to
// servermon.yaml in the working directory when path is empty.
// The result is validated; an invalid config is fatal at startup.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Create a servermon.yaml or point at one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to parse config file",
			"Check field names and types against the documented schema")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveSecrets replaces *_secret references with values from the provider.
// Inline passwords win over secret references when both are set.
func (c *Config) ResolveSecrets(p secret.Provider) error {
	for i := range c.Credentials {
		cred := &c.Credentials[i]
		if cred.Password != "" || cred.PasswordSecret == "" {
			continue
		}
		val, err := p.Fetch(cred.PasswordSecret)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to resolve credential secret for user "+cred.Username,
				"Check the secrets file or SERVERMON_SECRET_* environment")
		}
		cred.Password = val
	}

	if c.Database.Password == "" && c.Database.PasswordSecret != "" {
		val, err := p.Fetch(c.Database.PasswordSecret)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to resolve database password secret",
				"Check the secrets file or SERVERMON_SECRET_* environment")
		}
		c.Database.Password = val
	}

	return nil
}

// SecretProvider builds the provider chain for this config: the secrets file
// (when configured) first, then environment variables.
func (c *Config) SecretProvider() (secret.Provider, error) {
	providers := secret.Chain{}
	if c.SecretsFile != "" {
		fp, err := secret.NewFileProvider(c.SecretsFile)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to load secrets file "+c.SecretsFile,
				"Check the path and that the file is a flat YAML mapping")
		}
		providers = append(providers, fp)
	}
	providers = append(providers, secret.NewEnvProvider())
	return providers, nil
}
