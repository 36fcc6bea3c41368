package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todod/internal/core/config"
	"github.com/colonyops/todod/internal/core/todo"
	"github.com/colonyops/todod/internal/server"
)

func testApp(flags *Flags, out *bytes.Buffer) *cli.Command {
	app := &cli.Command{
		Name:      "todod",
		Writer:    out,
		ErrWriter: out,
	}
	app = NewServeCmd(flags).Register(app)
	app = NewTodoCmd(flags).Register(app)
	app = NewConfigValidateCmd(flags).Register(app)
	return app
}

func TestTodoCmd(t *testing.T) {
	store := todo.NewStore(todo.IDPolicyLength)
	ts := httptest.NewServer(server.New(config.DefaultConfig().Server, store).Handler())
	defer ts.Close()

	cfg := config.DefaultConfig()
	flags := &Flags{Config: &cfg}
	ctx := context.Background()

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		full := append([]string{"todod", "todo", "--server", ts.URL}, args...)
		err := testApp(flags, &out).Run(ctx, full)
		return out.String(), err
	}

	out, err := run("add", "--text", "buy milk")
	require.NoError(t, err)
	assert.Equal(t, "added\n", out)

	out, err = run("add", "--text", "walk dog")
	require.NoError(t, err)
	assert.Equal(t, "added\n", out)

	out, err = run("toggle", "2")
	require.NoError(t, err)
	assert.Equal(t, "toggled\n", out)

	out, err = run("list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var second todo.Item
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, todo.Item{ID: 2, Text: "walk dog", Complete: true}, second)

	out, err = run("rm", "1")
	require.NoError(t, err)
	assert.Equal(t, "removed\n", out)
	assert.Equal(t, 1, store.Len())

	_, err = run("rm", "1")
	require.ErrorIs(t, err, todo.ErrNotFound)

	_, err = run("toggle", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")

	_, err = run("toggle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestTodoCmd_AddFromFile(t *testing.T) {
	store := todo.NewStore(todo.IDPolicyLength)
	ts := httptest.NewServer(server.New(config.DefaultConfig().Server, store).Handler())
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "todo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"todo":"from file"}`), 0o644))

	cfg := config.DefaultConfig()
	var out bytes.Buffer
	err := testApp(&Flags{Config: &cfg}, &out).Run(context.Background(),
		[]string{"todod", "todo", "--server", ts.URL, "add", "-f", path})
	require.NoError(t, err)

	items := store.List()
	require.Len(t, items, 1)
	assert.Equal(t, "from file", items[0].Text)
}

func TestConfigValidateCmd(t *testing.T) {
	t.Run("valid config as json", func(t *testing.T) {
		cfg := config.DefaultConfig()
		flags := &Flags{Config: &cfg, ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}

		var out bytes.Buffer
		err := testApp(flags, &out).Run(context.Background(), []string{"todod", "config", "validate", "--format", "json"})
		require.NoError(t, err)

		var result struct {
			Valid  bool              `json:"valid"`
			Errors []validationIssue `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("collects field errors", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Server.Addr = "nope"
		cfg.Store.IDPolicy = "random"

		issues := collectIssues(cfg.Validate())
		fields := make([]string, 0, len(issues))
		for _, issue := range issues {
			fields = append(fields, issue.Field)
		}
		assert.ElementsMatch(t, []string{"server.addr", "store.id_policy"}, fields)
	})
}

func TestServeCmd(t *testing.T) {
	t.Run("rejects invalid addr", func(t *testing.T) {
		cfg := config.DefaultConfig()
		var out bytes.Buffer

		err := testApp(&Flags{Config: &cfg}, &out).Run(context.Background(),
			[]string{"todod", "serve", "--addr", "no-port"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		cfg := config.DefaultConfig()
		var out bytes.Buffer

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := testApp(&Flags{Config: &cfg}, &out).Run(ctx,
			[]string{"todod", "serve", "--addr", "127.0.0.1:0", "--pprof-addr", "127.0.0.1:0"})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "todod listening on http://127.0.0.1:")
	})
}
