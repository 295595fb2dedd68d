// Package file loads the sensor's settings from a TOML file. Secrets are
// never stored in the file itself; the file names the environment
// variables they are read from.
package file

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/github-sensor/internal/core/domain"
)

// Default settings values.
const (
	DefaultListenAddr      = ":8080"
	DefaultTokenEnv        = "GITHUB_TOKEN"
	DefaultSecretEnv       = "GITHUB_WEBHOOK_SECRET"
	DefaultLookbackDays    = 30
	DefaultIntervalMinutes = 15
)

// Settings is the sensor's full configuration as declared in the TOML
// file.
type Settings struct {
	ListenAddr string `toml:"listen_addr"`

	GitHub   GitHubSettings   `toml:"github"`
	Backfill BackfillSettings `toml:"backfill"`
	Storage  StorageSettings  `toml:"storage"`
}

// GitHubSettings configures the upstream API and webhook verification.
type GitHubSettings struct {
	// APIURL overrides the GitHub API endpoint, for GitHub Enterprise or
	// tests. Empty means api.github.com.
	APIURL string `toml:"api_url"`

	// Repositories lists the monitored repositories as "owner/name".
	Repositories []string `toml:"repositories"`

	// TokenEnv names the environment variable holding the API token.
	TokenEnv string `toml:"token_env"`

	// WebhookSecretEnv names the environment variable holding the HMAC
	// secret for webhook signature verification. An unset or empty
	// variable disables verification.
	WebhookSecretEnv string `toml:"webhook_secret_env"`
}

// BackfillSettings configures the reconciliation sweeps.
type BackfillSettings struct {
	LookbackDays    int `toml:"lookback_days"`
	PerPage         int `toml:"per_page"`
	MaxPages        int `toml:"max_pages"`
	IntervalMinutes int `toml:"interval_minutes"`
}

// StorageSettings configures the durable store.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means the per-user default.
	DataDir string `toml:"data_dir"`
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		ListenAddr: DefaultListenAddr,
		GitHub: GitHubSettings{
			TokenEnv:         DefaultTokenEnv,
			WebhookSecretEnv: DefaultSecretEnv,
		},
		Backfill: BackfillSettings{
			LookbackDays:    DefaultLookbackDays,
			IntervalMinutes: DefaultIntervalMinutes,
		},
	}
}

// Load reads settings from a TOML file, applying defaults for anything
// the file leaves out. A missing file yields pure defaults.
func Load(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing settings file: %w", err)
	}

	if settings.ListenAddr == "" {
		settings.ListenAddr = DefaultListenAddr
	}
	if settings.GitHub.TokenEnv == "" {
		settings.GitHub.TokenEnv = DefaultTokenEnv
	}
	if settings.GitHub.WebhookSecretEnv == "" {
		settings.GitHub.WebhookSecretEnv = DefaultSecretEnv
	}
	if settings.Backfill.LookbackDays <= 0 {
		settings.Backfill.LookbackDays = DefaultLookbackDays
	}
	if settings.Backfill.IntervalMinutes <= 0 {
		settings.Backfill.IntervalMinutes = DefaultIntervalMinutes
	}

	return settings, nil
}

// RepositoryRefs parses the configured repository names.
func (s Settings) RepositoryRefs() ([]domain.RepositoryRef, error) {
	refs := make([]domain.RepositoryRef, 0, len(s.GitHub.Repositories))
	for _, name := range s.GitHub.Repositories {
		ref, err := domain.ParseRepositoryRef(name)
		if err != nil {
			return nil, fmt.Errorf("repository %q: %w", name, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Token resolves the API token from the configured environment variable.
func (s Settings) Token() string {
	return os.Getenv(s.GitHub.TokenEnv)
}

// WebhookSecret resolves the webhook HMAC secret from the configured
// environment variable.
func (s Settings) WebhookSecret() string {
	return os.Getenv(s.GitHub.WebhookSecretEnv)
}
