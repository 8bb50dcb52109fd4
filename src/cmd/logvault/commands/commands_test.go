// FILE: logvault/src/cmd/logvault/commands/commands_test.go
package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"logvault/src/internal/config"
	"logvault/src/internal/core"
	"logvault/src/internal/store"
	"logvault/src/internal/store/memory"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	var served []string
	router := NewCommandRouter(Deps{
		Serve: func(args []string) error {
			served = args
			return nil
		},
	})

	handled, err := router.Route([]string{"logvault"})
	assert.False(t, handled)
	assert.NoError(t, err)

	handled, err = router.Route([]string{"logvault", "--config", "x.toml"})
	assert.False(t, handled, "flags fall through to the default serve path")
	assert.NoError(t, err)

	handled, err = router.Route([]string{"logvault", "serve", "--server.port=8080"})
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, []string{"--server.port=8080"}, served)

	_, err = router.Route([]string{"logvault", "bogus"})
	assert.ErrorContains(t, err, "unknown command: bogus")

	for _, name := range []string{"serve", "user", "config", "version", "help"} {
		cmd, ok := router.GetCommand(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, cmd.Description())
		assert.NotEmpty(t, cmd.Help())
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logvault.toml")

	var out bytes.Buffer
	cc := &ConfigCommand{output: &out, errOut: &out}

	require.NoError(t, cc.Execute([]string{"init", "-o", path}))
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.Secret, 43)
	assert.Equal(t, config.Defaults().Server.Port, cfg.Server.Port)
	assert.Equal(t, config.StoreTypeMongo, cfg.Store.Type)

	err = cc.Execute([]string{"init", "-o", path})
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, cc.Execute([]string{"init", "--output", path, "--force"}))
	again, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Auth.Secret, again.Auth.Secret)

	assert.Error(t, cc.Execute(nil))
	assert.Error(t, cc.Execute([]string{"init", "extra"}))
}

func newUserCommand(t *testing.T) (*UserCommand, *memory.Store, string, *bytes.Buffer) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Auth.Secret = "user-command-secret"
	path := filepath.Join(t.TempDir(), "logvault.toml")
	require.NoError(t, cfg.SaveToFile(path))

	st := memory.New()
	var out bytes.Buffer
	uc := &UserCommand{
		openStore: func(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
			return st, nil
		},
		output: &out,
		errOut: &out,
	}
	return uc, st, path, &out
}

func TestUserAdd(t *testing.T) {
	uc, st, path, out := newUserCommand(t)
	uc.readPassword = func(string) (string, error) {
		t.Fatal("password given on the command line, prompt not expected")
		return "", nil
	}

	require.NoError(t, uc.Execute([]string{"add", "-c", path, "-u", "root", "-r", core.RoleAdmin, "-p", "pw"}))
	assert.Contains(t, out.String(), `"root" registered`)

	user, err := st.Users().FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, core.RoleAdmin, user.Role)

	err = uc.Execute([]string{"add", "-c", path, "-u", "root", "-p", "other"})
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)
}

func TestUserAddPrompt(t *testing.T) {
	uc, st, path, _ := newUserCommand(t)

	answers := []string{"secret", "secret"}
	uc.readPassword = func(string) (string, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	require.NoError(t, uc.Execute([]string{"add", "--config", path, "--username", "viewer1"}))
	user, err := st.Users().FindByUsername(context.Background(), "viewer1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "viewer", user.Role)

	answers = []string{"one", "two"}
	err = uc.Execute([]string{"add", "-c", path, "-u", "viewer2"})
	assert.ErrorContains(t, err, "don't match")
}

func TestUserAddRejectsInput(t *testing.T) {
	uc, _, path, _ := newUserCommand(t)

	assert.Error(t, uc.Execute(nil))
	assert.Error(t, uc.Execute([]string{"remove", "-u", "x"}))
	assert.ErrorContains(t, uc.Execute([]string{"add", "-c", path, "-p", "pw"}), "username is required")

	memCfg := config.Defaults()
	memCfg.Auth.Secret = "s"
	memCfg.Store.Type = config.StoreTypeMemory
	memPath := filepath.Join(t.TempDir(), "memory.toml")
	require.NoError(t, memCfg.SaveToFile(memPath))

	err := uc.Execute([]string{"add", "-c", memPath, "-u", "x", "-p", "pw"})
	assert.ErrorContains(t, err, "persistent store")

	_, statErr := os.Stat(memPath)
	assert.NoError(t, statErr)
}
