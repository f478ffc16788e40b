package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tansive/rostersync/internal/rostersync/actionlog"
	"github.com/tansive/rostersync/internal/rostersync/server"
)

// newTestEnv starts a seeded reference server and writes a config pointing at it.
func newTestEnv(t *testing.T) string {
	t.Helper()
	repo := server.NewRepository()
	_, err := server.Seed(repo, "Demo")
	require.NoError(t, err)

	s, err := server.CreateNewServer(repo, server.Options{})
	require.NoError(t, err)
	s.MountHandlers()
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)

	configFile := filepath.Join(t.TempDir(), DefaultConfigFile)
	content := `format_version = "0.1.0"
server_url = "` + ts.URL + server.BasePath + `"
tenant_id = 0
request_timeout = "5s"
retry_attempts = 1
log_level = "error"
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))
	return configFile
}

func run(t *testing.T, configFile string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSkillList(t *testing.T) {
	configFile := newTestEnv(t)

	out, err := run(t, configFile, "skill", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Skills:")
	assert.Contains(t, out, "- [0] Ambulatory care (version 0)")
	assert.Contains(t, out, "- [2] Pediatric care (version 0)")

	out, err = run(t, configFile, "skill", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.Get(out, "#").Int())
	assert.Equal(t, "Critical care", gjson.Get(out, "1.name").String())
}

func TestOtherLists(t *testing.T) {
	configFile := newTestEnv(t)

	out, err := run(t, configFile, "contract", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "- [3] Full time, at most 2400 min/week")

	out, err = run(t, configFile, "spot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "- [4] Emergency room, requires: Ambulatory care, Critical care")

	out, err = run(t, configFile, "employee", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "- [5] Amy Cole, Full time, skills: Critical care, Pediatric care")

	out, err = run(t, configFile, "tenant", "list", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Demo")
	assert.NotContains(t, out, "{")
}

func TestSkillAddRenameDelete(t *testing.T) {
	configFile := newTestEnv(t)

	out, err := run(t, configFile, "skill", "add", "Geriatric care", "--json")
	require.NoError(t, err)
	assert.Equal(t, int64(6), gjson.Get(out, "id").Int())
	assert.Equal(t, int64(0), gjson.Get(out, "version").Int())

	out, err = run(t, configFile, "skill", "rename", "1", "Intensive care")
	require.NoError(t, err)
	assert.Contains(t, out, "Skill renamed: [1] Intensive care (version 1)")

	out, err = run(t, configFile, "spot", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, "Intensive care", gjson.Get(out, "0.requiredSkillSet.1.name").String())

	out, err = run(t, configFile, "skill", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Skill 1 was not deleted")

	out, err = run(t, configFile, "skill", "delete", "6", "--json")
	require.NoError(t, err)
	assert.True(t, gjson.Get(out, "deleted").Bool())

	out, err = run(t, configFile, "skill", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.Get(out, "#").Int())
}

func TestCommandErrors(t *testing.T) {
	configFile := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown skill", []string{"skill", "rename", "42", "x"}, "skill 42 not found in tenant 0"},
		{"bad id", []string{"skill", "delete", "abc"}, `invalid id "abc"`},
		{"empty name", []string{"skill", "add", ""}, "name: required"},
		{"unknown tenant", []string{"skill", "list", "--tenant", "7"}, "unable to refresh collection: 404"},
		{"zero interval", []string{"sync", "--interval", "0s"}, "--interval must be positive, got 0s"},
		{"negative interval", []string{"sync", "--interval=-1m"}, "--interval must be positive, got -1m0s"},
		{"two formats", []string{"skill", "list", "--json", "--yaml"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, configFile, tt.args...)
			require.Error(t, err)
			assert.Contains(t, describeError(err), tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	configFile := newTestEnv(t)

	out, err := run(t, configFile, "version", "--json")
	require.NoError(t, err)
	assert.Equal(t, getCLIVersion(), gjson.Get(out, "version").String())
	assert.Equal(t, server.Version, gjson.Get(out, "server_api_version").String())
}

func TestVersionWithoutServer(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), DefaultConfigFile)
	content := `format_version = "0.1.0"
server_url = "http://127.0.0.1:1/rest"
retry_attempts = 1
log_level = "error"
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))

	out, err := run(t, configFile, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rostersync CLI v0.1.0")
	assert.Contains(t, out, "Server API: unavailable")
}

func TestInvalidConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(configFile, []byte(`format_version = "9.0.0"`), 0o600))

	_, err := run(t, configFile, "skill", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format version")
}

func TestSyncLoop(t *testing.T) {
	t.Run("once returns the failure", func(t *testing.T) {
		boom := errors.New("boom")
		err := syncLoop(context.Background(), &syncOptions{once: true}, func(context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("repeats until cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int32
		done := make(chan error, 1)
		go func() {
			done <- syncLoop(ctx, &syncOptions{interval: 5 * time.Millisecond}, func(context.Context) error {
				if calls.Add(1) == 3 {
					cancel()
				}
				return errors.New("server down")
			})
		}()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("sync loop did not stop")
		}
		assert.GreaterOrEqual(t, calls.Load(), int32(3))
	})
}

func TestSyncOnce(t *testing.T) {
	configFile := newTestEnv(t)
	actionLog := filepath.Join(t.TempDir(), "actions.log")
	t.Setenv("ROSTERSYNC_ACTION_LOG__PATH", actionLog)

	_, err := run(t, configFile, "sync", "--once")
	require.NoError(t, err)

	f, err := os.Open(actionLog)
	require.NoError(t, err)
	defer f.Close()
	n, err := actionlog.Verify(f)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
