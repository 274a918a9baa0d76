package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/errors"
)

// Timeout bounds for remote session establishment. One-shot diagnostic
// commands finish fast; anything past ten seconds just delays the cycle.
const (
	MinProbeTimeout = 1500 * time.Millisecond
	MaxProbeTimeout = 10 * time.Second
)

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	if len(c.Credentials) == 0 {
		return errors.New(errors.ErrConfig,
			"No credentials configured",
			"Add at least one username/password pair under 'credentials'")
	}
	for i, cred := range c.Credentials {
		if cred.Username == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Credential %d has no username", i+1),
				"Every credential entry needs a username")
		}
		if cred.Password == "" && cred.PasswordSecret == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Credential for %q has neither password nor password_secret", cred.Username),
				"Set password_secret to keep passwords out of the config file")
		}
	}

	if err := validateInterval("check", c.Check); err != nil {
		return err
	}
	if err := validateInterval("extract", c.Extract); err != nil {
		return err
	}
	if c.Check.Duration() == 0 && c.Extract.Duration() == 0 {
		return errors.New(errors.ErrConfig,
			"Both job intervals are zero",
			"At least one of check/extract must have a total interval > 0")
	}

	if c.Probe.Timeout < MinProbeTimeout || c.Probe.Timeout > MaxProbeTimeout {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Probe timeout %s is out of range", c.Probe.Timeout),
			fmt.Sprintf("Use a timeout between %s and %s", MinProbeTimeout, MaxProbeTimeout))
	}
	if c.Probe.MaxInFlight <= 0 {
		return errors.New(errors.ErrConfig,
			"probe.max_in_flight must be positive",
			"50-200 is a reasonable cap for most fleets")
	}
	if c.Probe.ServicePort <= 0 || c.Probe.ServicePort > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("probe.service_port %d is not a valid port", c.Probe.ServicePort),
			"Use the service port whose sessions identify active clients, e.g. 3389")
	}
	if !validSubnetPrefix(c.Probe.ClientSubnet) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("probe.client_subnet %q is not a dotted IPv4 prefix", c.Probe.ClientSubnet),
			`Use one to three dotted octets, e.g. "192.168.1"`)
	}

	if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
		return errors.New(errors.ErrConfig,
			"Incomplete database configuration",
			"database.host, database.name and database.user are required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("database.port %d is not a valid port", c.Database.Port),
			"PostgreSQL defaults to 5432")
	}

	return nil
}

func validateInterval(name string, iv Interval) error {
	if iv.Minutes < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s.minutes must be a non-negative integer", name),
			"")
	}
	if iv.Seconds < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s.seconds must be non-negative", name),
			"")
	}
	return nil
}

// validSubnetPrefix accepts one to three dotted octets, each 0-255.
func validSubnetPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	parts := strings.Split(prefix, ".")
	if len(parts) < 1 || len(parts) > 3 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		// Reject leading zeros like "01" which regexp-quoting would accept.
		if strconv.Itoa(n) != part {
			return false
		}
	}
	return true
}
