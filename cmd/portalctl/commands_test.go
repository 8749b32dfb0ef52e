package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "seed", "sweep"})

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestCommands_RequireConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	for _, name := range []string{"migrate", "seed", "sweep"} {
		t.Run(name, func(t *testing.T) {
			root := newRootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs([]string{name})

			err := root.Execute()
			assert.ErrorIs(t, err, errNoConfig)
		})
	}
}

func TestCommands_MissingConfigFile(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"seed", "--config", filepath.Join(t.TempDir(), "absent.yaml")})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestOptions_LoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: prod\nstorage_connection_string: postgres://x\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, log, err := (&options{}).load()
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Equal(t, "postgres://x", cfg.StorageConnectionString)
}
