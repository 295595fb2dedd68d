package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		settings, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultListenAddr, settings.ListenAddr)
		assert.Equal(t, DefaultTokenEnv, settings.GitHub.TokenEnv)
		assert.Equal(t, DefaultLookbackDays, settings.Backfill.LookbackDays)
		assert.Equal(t, DefaultIntervalMinutes, settings.Backfill.IntervalMinutes)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeSettings(t, `
listen_addr = ":9000"

[github]
api_url = "https://ghe.example.com/api/v3"
repositories = ["octocat/hello-world", "octocat/spoon-knife"]
token_env = "MY_TOKEN"

[backfill]
lookback_days = 7
per_page = 25
max_pages = 4
interval_minutes = 5

[storage]
data_dir = "/var/lib/sensor"
`)

		settings, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", settings.ListenAddr)
		assert.Equal(t, "https://ghe.example.com/api/v3", settings.GitHub.APIURL)
		assert.Equal(t, "MY_TOKEN", settings.GitHub.TokenEnv)
		assert.Equal(t, DefaultSecretEnv, settings.GitHub.WebhookSecretEnv)
		assert.Equal(t, 7, settings.Backfill.LookbackDays)
		assert.Equal(t, 25, settings.Backfill.PerPage)
		assert.Equal(t, 4, settings.Backfill.MaxPages)
		assert.Equal(t, 5, settings.Backfill.IntervalMinutes)
		assert.Equal(t, "/var/lib/sensor", settings.Storage.DataDir)
	})

	t.Run("malformed file is rejected", func(t *testing.T) {
		path := writeSettings(t, "listen_addr = [broken")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestRepositoryRefs(t *testing.T) {
	t.Run("parses configured names", func(t *testing.T) {
		settings := DefaultSettings()
		settings.GitHub.Repositories = []string{"octocat/hello-world"}

		refs, err := settings.RepositoryRefs()
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "octocat", refs[0].Owner)
		assert.Equal(t, "hello-world", refs[0].Name)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		settings := DefaultSettings()
		settings.GitHub.Repositories = []string{"not-a-repo"}

		_, err := settings.RepositoryRefs()
		assert.Error(t, err)
	})
}

func TestSecretsFromEnvironment(t *testing.T) {
	settings := DefaultSettings()
	settings.GitHub.TokenEnv = "TEST_SENSOR_TOKEN"
	settings.GitHub.WebhookSecretEnv = "TEST_SENSOR_SECRET"

	t.Setenv("TEST_SENSOR_TOKEN", "tok-123")
	t.Setenv("TEST_SENSOR_SECRET", "hmac-456")

	assert.Equal(t, "tok-123", settings.Token())
	assert.Equal(t, "hmac-456", settings.WebhookSecret())
}
