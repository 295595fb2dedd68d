package cli

import (
	"context"
	"fmt"

	"github.com/custodia-labs/github-sensor/internal/adapters/driven/config/file"
	"github.com/custodia-labs/github-sensor/internal/adapters/driven/processor"
	"github.com/custodia-labs/github-sensor/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/github-sensor/internal/connectors/github"
	"github.com/custodia-labs/github-sensor/internal/core/ports/driving"
	"github.com/custodia-labs/github-sensor/internal/core/services"
)

// app is the composition root: settings, storage, connector, and
// services wired together for one command invocation.
type app struct {
	settings file.Settings
	store    *sqlite.Store
	backfill driving.BackfillRunner
	ingestor driving.WebhookIngestor
}

// buildApp loads settings and wires every component.
func buildApp() (*app, error) {
	settings, err := file.Load(settingsPath())
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	repos, err := settings.RepositoryRefs()
	if err != nil {
		return nil, fmt.Errorf("parse repositories: %w", err)
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cache := store.BundleCache()
	classifier := services.NewClassifierService(cache, processor.NewLocalProcessor(cache))

	client := github.NewClient(github.ClientConfig{
		BaseURL:  settings.GitHub.APIURL,
		PerPage:  settings.Backfill.PerPage,
		MaxPages: settings.Backfill.MaxPages,
	}, settingsTokenProvider{settings: settings})

	backfill := services.NewBackfillService(services.BackfillConfig{
		Repositories: repos,
		LookbackDays: settings.Backfill.LookbackDays,
	}, client, store.CursorStore(), classifier)

	ingestor := services.NewWebhookService(github.NewNormalizer(), classifier)

	return &app{
		settings: settings,
		store:    store,
		backfill: backfill,
		ingestor: ingestor,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() error {
	return a.store.Close()
}

// settingsTokenProvider resolves the API token from the environment
// variable named in the settings file.
type settingsTokenProvider struct {
	settings file.Settings
}

func (p settingsTokenProvider) GetToken(_ context.Context) (string, error) {
	return p.settings.Token(), nil
}
