package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todod/internal/core/todo"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	names := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		names = append(names, e.Field)
	}
	return names
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), *cfg)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, cfg.Server.Addr)
		assert.Equal(t, todo.IDPolicyLength, cfg.Store.IDPolicy)
	})

	t.Run("overrides from file", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ":9090"
  read_timeout: 2s
  shutdown_timeout: 30s
  max_body_bytes: 1024
store:
  id_policy: sequence
debug:
  pprof_addr: "127.0.0.1:6060"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, int64(1024), cfg.Server.MaxBodyBytes)
		assert.Equal(t, todo.IDPolicySequence, cfg.Store.IDPolicy)
		assert.Equal(t, "127.0.0.1:6060", cfg.Debug.PprofAddr)

		// untouched keys keep their defaults
		assert.Equal(t, DefaultConfig().Server.WriteTimeout, cfg.Server.WriteTimeout)
	})

	t.Run("zero values fall back to defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ""
  max_body_bytes: 0
store:
  id_policy: ""
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, cfg.Server.Addr)
		assert.Equal(t, DefaultConfig().Server.MaxBodyBytes, cfg.Server.MaxBodyBytes)
		assert.Equal(t, todo.IDPolicyLength, cfg.Store.IDPolicy)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [unclosed")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, `
store:
  id_policy: random
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
		assert.Contains(t, fieldNames(t, err), "store.id_policy")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{
			name:      "addr without port",
			mutate:    func(c *Config) { c.Server.Addr = "localhost" },
			wantField: "server.addr",
		},
		{
			name:      "addr with bad port",
			mutate:    func(c *Config) { c.Server.Addr = "localhost:http-ish" },
			wantField: "server.addr",
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.Server.Addr = ":70000" },
			wantField: "server.addr",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -time.Second },
			wantField: "server.read_timeout",
		},
		{
			name:      "zero shutdown timeout",
			mutate:    func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantField: "server.shutdown_timeout",
		},
		{
			name:      "negative body limit",
			mutate:    func(c *Config) { c.Server.MaxBodyBytes = -1 },
			wantField: "server.max_body_bytes",
		},
		{
			name:      "bad pprof addr",
			mutate:    func(c *Config) { c.Debug.PprofAddr = "6060" },
			wantField: "debug.pprof_addr",
		},
		{
			name:      "unknown id policy",
			mutate:    func(c *Config) { c.Store.IDPolicy = "uuid" },
			wantField: "store.id_policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.Contains(t, fieldNames(t, err), tt.wantField)
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("port zero is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Addr = "127.0.0.1:0"
		assert.NoError(t, cfg.Validate())
	})
}

func TestValidateDeep_ConfigIsDirectory(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.ValidateDeep(t.TempDir())
	assert.Contains(t, fieldNames(t, err), "config_file")
}

func TestValidateDeep_MissingConfigFileIsFine(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateDeep(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestRead_SkipsValidation(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "no-port"
`)

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "no-port", cfg.Server.Addr)
	assert.Contains(t, fieldNames(t, cfg.Validate()), "server.addr")
}
