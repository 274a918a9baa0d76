package config

import (
	"fmt"
	"time"
)

// Config represents the complete servermon.yaml configuration file.
type Config struct {
	// Credentials is the ordered list of credential pairs tried per host.
	Credentials []Credential `yaml:"credentials" mapstructure:"credentials"`

	// SecretsFile optionally points at a YAML secrets file used to resolve
	// *_secret references below.
	SecretsFile string `yaml:"secrets_file" mapstructure:"secrets_file"`

	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Check is the connectivity + disk job interval (long cadence).
	Check Interval `yaml:"check" mapstructure:"check"`

	// Extract is the CPU/memory/users/IPs job interval (short cadence).
	Extract Interval `yaml:"extract" mapstructure:"extract"`

	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// Credential is one username/password pair for remote sessions.
// Password may be given inline or as a secret name to resolve at startup.
type Credential struct {
	Username       string `yaml:"username" mapstructure:"username"`
	Password       string `yaml:"password" mapstructure:"password"`
	PasswordSecret string `yaml:"password_secret" mapstructure:"password_secret"`
}

// DatabaseConfig holds the relational store connection parameters.
type DatabaseConfig struct {
	Host           string `yaml:"host" mapstructure:"host"`
	Port           int    `yaml:"port" mapstructure:"port"`
	User           string `yaml:"user" mapstructure:"user"`
	Password       string `yaml:"password" mapstructure:"password"`
	PasswordSecret string `yaml:"password_secret" mapstructure:"password_secret"`
	Name           string `yaml:"name" mapstructure:"name"`
	SSLMode        string `yaml:"sslmode" mapstructure:"sslmode"`
}

// ConnString builds the pgx connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Interval is a job period expressed as minutes plus seconds, matching how
// operators think about the two cadences (e.g. check every 60m0s, extract
// every 0m5s).
type Interval struct {
	Minutes int     `yaml:"minutes" mapstructure:"minutes"`
	Seconds float64 `yaml:"seconds" mapstructure:"seconds"`
}

// Duration converts the interval to a time.Duration.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.Minutes)*time.Minute +
		time.Duration(i.Seconds*float64(time.Second))
}

// ProbeConfig controls remote probing behavior.
type ProbeConfig struct {
	// Timeout bounds remote session establishment per attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxInFlight caps concurrent remote sessions across the fleet.
	MaxInFlight int `yaml:"max_in_flight" mapstructure:"max_in_flight"`

	// ClientSubnet is the dotted IPv4 prefix that active client addresses
	// must fall in (e.g. "192.168.1").
	ClientSubnet string `yaml:"client_subnet" mapstructure:"client_subnet"`

	// ServicePort is the remote service port whose established sessions
	// identify active clients (e.g. 3389 for RDP).
	ServicePort int `yaml:"service_port" mapstructure:"service_port"`
}

// LoggingConfig controls the daemon's structured log output.
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "servermon",
			Name:    "server_resources",
			SSLMode: "disable",
		},
		Check:   Interval{Minutes: 60},
		Extract: Interval{Seconds: 5},
		Probe: ProbeConfig{
			Timeout:      10 * time.Second,
			MaxInFlight:  100,
			ClientSubnet: "192.168.1",
			ServicePort:  3389,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
	}
}
