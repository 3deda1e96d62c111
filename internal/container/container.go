package container

import (
	"log"

	"depositscope/app"
	"depositscope/domain/run"
	"depositscope/internal/artifact"
	"depositscope/internal/config"
	"depositscope/internal/errors"
	"depositscope/ui"
)

// Container holds the application dependencies and manages their wiring.
// The dashboard side is read-only over the artifact store; the trainer
// writes through its own Writer and never shares the store.
type Container struct {
	Config *config.Config

	Store  *artifact.Store
	Server *ui.Server
}

// New creates a dependency injection container over validated config.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitDashboard opens the artifact store and builds the dashboard server
// over it. Missing artifacts are not an error here; pages degrade per
// artifact at request time.
func (c *Container) InitDashboard() error {
	store, err := artifact.NewStore(c.Config.Paths.DataDir, c.Config.Cache.Size)
	if err != nil {
		return errors.Wrap(err, "failed to open artifact store")
	}
	c.Store = store

	server, err := ui.NewServer(store, c.Config.Metrics.Enabled)
	if err != nil {
		return errors.Wrap(err, "failed to build dashboard server")
	}
	c.Server = server

	log.Printf("Container initialized: artifacts under %s, cache size %d",
		c.Config.Paths.DataDir, c.Config.Cache.Size)
	return nil
}

// Trainer builds the offline training service for one manifest run.
func (c *Container) Trainer(manifest run.Manifest) *app.TrainingService {
	writer := artifact.NewWriter(c.Config.Paths.DataDir)
	return app.NewTrainingService(manifest, writer, c.Config.Paths.RawDataFile)
}
