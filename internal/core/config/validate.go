package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/todod/internal/core/todo"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("server.addr", c.Server.Addr, validAddr),
		c.validateServerLimits(),
		criterio.Run("store.id_policy", string(c.Store.IDPolicy), knownPolicy),
		criterio.Run("debug.pprof_addr", c.Debug.PprofAddr, optionalAddr),
	)
}

func (c *Config) validateServerLimits() error {
	var errs criterio.FieldErrorsBuilder

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = errs.Append(t.field, fmt.Errorf("must not be negative"))
		}
	}

	if c.Server.ShutdownTimeout <= 0 {
		errs = errs.Append("server.shutdown_timeout", fmt.Errorf("must be greater than zero"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = errs.Append("server.max_body_bytes", fmt.Errorf("must be greater than zero"))
	}

	return errs.ToError()
}

// ValidateDeep runs Validate and additionally checks that configPath, when
// set and present, is a readable regular file.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return validateConfigFile(configPath)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validAddr accepts host:port where host may be empty and port is 0-65535.
func validAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("must be host:port: %w", err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func optionalAddr(addr string) error {
	if addr == "" {
		return nil
	}
	return validAddr(addr)
}

func knownPolicy(p string) error {
	if !todo.IDPolicy(p).IsValid() {
		return fmt.Errorf("unknown policy %q: must be one of %s, %s", p, todo.IDPolicyLength, todo.IDPolicySequence)
	}
	return nil
}
