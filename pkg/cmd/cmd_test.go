package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripware/dripctl/pkg/auth"
	"github.com/dripware/dripctl/pkg/config"
)

type cliFixture struct {
	configPath string
	tokenPath  string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	dir := t.TempDir()
	return &cliFixture{
		configPath: filepath.Join(dir, "config.yaml"),
		tokenPath:  filepath.Join(dir, "tokens.json"),
	}
}

// run executes the command tree against the fixture paths and captures
// everything the commands write.
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(Config{
		ConfigPath:   f.configPath,
		TokenPath:    f.tokenPath,
		OutputWriter: &out,
	})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (f *cliFixture) writeConfig(t *testing.T, cfg config.Config) {
	t.Helper()
	require.NoError(t, config.Save(f.configPath, &cfg))
}

func TestConfigInit(t *testing.T) {
	t.Run("writes defaults", func(t *testing.T) {
		f := newCLIFixture(t)

		out, err := f.run(t, "config", "init")
		require.NoError(t, err)
		assert.Contains(t, out, "Initialized config at "+f.configPath)

		cfg, err := config.Load(f.configPath)
		require.NoError(t, err)
		assert.Equal(t, 60, cfg.Monitor.Interval)
		assert.Equal(t, 0.8, cfg.Monitor.Threshold)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		f := newCLIFixture(t)
		f.writeConfig(t, config.DefaultConfig())

		_, err := f.run(t, "config", "init")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config already exists")
	})

	t.Run("force overwrites", func(t *testing.T) {
		f := newCLIFixture(t)
		cfg := config.DefaultConfig()
		cfg.Monitor.Interval = 5
		f.writeConfig(t, cfg)

		_, err := f.run(t, "config", "init", "--force")
		require.NoError(t, err)

		loaded, err := config.Load(f.configPath)
		require.NoError(t, err)
		assert.Equal(t, 60, loaded.Monitor.Interval)
	})
}

func TestConfigView(t *testing.T) {
	f := newCLIFixture(t)
	f.writeConfig(t, config.DefaultConfig())

	t.Run("yaml by default", func(t *testing.T) {
		out, err := f.run(t, "config", "view")
		require.NoError(t, err)
		assert.Contains(t, out, "interval: 60")
		assert.Contains(t, out, "port: 8080")
	})

	t.Run("json on request", func(t *testing.T) {
		out, err := f.run(t, "config", "view", "-o", "json")
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	})

	t.Run("fails without a config file", func(t *testing.T) {
		missing := newCLIFixture(t)
		_, err := missing.run(t, "config", "view")
		require.Error(t, err)
	})
}

func TestConfigPath(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, f.configPath)
}

func TestAuthStatus(t *testing.T) {
	t.Run("not authenticated", func(t *testing.T) {
		f := newCLIFixture(t)
		f.writeConfig(t, config.DefaultConfig())

		out, err := f.run(t, "auth", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Not authenticated")
	})

	t.Run("authenticated with refresh token", func(t *testing.T) {
		f := newCLIFixture(t)
		f.writeConfig(t, config.DefaultConfig())
		store := &auth.FileTokenStore{Path: f.tokenPath}
		require.NoError(t, store.Save(auth.TokenSet{AccessToken: "at", RefreshToken: "rt"}))

		out, err := f.run(t, "auth", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Authenticated (refresh token stored)")
	})
}

func TestAuthLogout(t *testing.T) {
	f := newCLIFixture(t)
	f.writeConfig(t, config.DefaultConfig())
	store := &auth.FileTokenStore{Path: f.tokenPath}
	require.NoError(t, store.Save(auth.TokenSet{AccessToken: "at"}))

	out, err := f.run(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, tokens)

	// Logging out again is a no-op.
	_, err = f.run(t, "auth", "logout")
	require.NoError(t, err)
}

func TestAuthLoginRequiresClientID(t *testing.T) {
	f := newCLIFixture(t)
	f.writeConfig(t, config.DefaultConfig())

	_, err := f.run(t, "auth", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no OAuth client ID configured")
}

func TestRun(t *testing.T) {
	t.Run("reports monitor settings", func(t *testing.T) {
		f := newCLIFixture(t)
		f.writeConfig(t, config.DefaultConfig())

		out, err := f.run(t, "run")
		require.NoError(t, err)
		assert.Contains(t, out, "Not authenticated")
		assert.Contains(t, out, "interval: 60s, threshold: 0.80")
	})

	t.Run("skips the login hint when authenticated", func(t *testing.T) {
		f := newCLIFixture(t)
		f.writeConfig(t, config.DefaultConfig())
		store := &auth.FileTokenStore{Path: f.tokenPath}
		require.NoError(t, store.Save(auth.TokenSet{AccessToken: "at"}))

		out, err := f.run(t, "run")
		require.NoError(t, err)
		assert.NotContains(t, out, "Not authenticated")
	})
}

func TestVersionCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		f := newCLIFixture(t)
		out, err := f.run(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "dripctl")
	})

	t.Run("json", func(t *testing.T) {
		f := newCLIFixture(t)
		out, err := f.run(t, "version", "-o", "json")
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Contains(t, decoded, "version")
	})
}

func TestValidationFailureSurfacesBeforeCommands(t *testing.T) {
	f := newCLIFixture(t)
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	f.writeConfig(t, cfg)

	_, err := f.run(t, "auth", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestResolveCredentials(t *testing.T) {
	t.Run("config client id wins", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.OAuth.ClientID = "from-config"
		creds, err := resolveCredentials(&cfg)
		require.NoError(t, err)
		assert.Equal(t, "from-config", creds.ClientID)
	})

	t.Run("secret from env", func(t *testing.T) {
		t.Setenv("DRIPCTL_TEST_SECRET", "s3cret")
		cfg := config.DefaultConfig()
		cfg.OAuth.ClientID = "cid"
		cfg.OAuth.ClientSecretEnv = "DRIPCTL_TEST_SECRET"
		creds, err := resolveCredentials(&cfg)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", creds.ClientSecret)
	})

	t.Run("missing client id fails", func(t *testing.T) {
		cfg := config.DefaultConfig()
		_, err := resolveCredentials(&cfg)
		require.Error(t, err)
	})
}

func TestMain(m *testing.M) {
	// Keep the suite hermetic if a developer exports these locally.
	_ = os.Unsetenv("DRIPCTL_CONFIG")
	_ = os.Unsetenv("DRIPCTL_VERBOSE")
	os.Exit(m.Run())
}
