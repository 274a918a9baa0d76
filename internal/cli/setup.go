package cli

import (
	"context"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/config"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/daemon"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/probe"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/store"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/pkg/sshutil"
)

// loadConfig reads and validates the config file, then resolves secret
// references so passwords are usable downstream.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	provider, err := cfg.SecretProvider()
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(provider); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, func(), error) {
	return logger.NewProduction(logger.FileConfig{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

func sshCredentials(cfg *config.Config) []sshutil.Credential {
	creds := make([]sshutil.Credential, 0, len(cfg.Credentials))
	for _, c := range cfg.Credentials {
		creds = append(creds, sshutil.Credential{Username: c.Username, Password: c.Password})
	}
	return creds
}

// buildDaemon wires config into a ready-to-run daemon. The returned cleanup
// closes the store and flushes the logger.
func buildDaemon(ctx context.Context, cfg *config.Config, log logger.Logger) (*daemon.Daemon, func(), error) {
	st, err := store.New(ctx, cfg.Database.ConnString(), log)
	if err != nil {
		return nil, nil, err
	}

	prober := probe.New(sshCredentials(cfg), cfg.Probe.Timeout,
		cfg.Probe.ClientSubnet, cfg.Probe.ServicePort, log)
	fleet := probe.NewFleet(prober, cfg.Probe.MaxInFlight, log)

	return daemon.New(st, fleet, log), st.Close, nil
}
