package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/infra/firestore"
	"github.com/urfave/cli/v3"
)

// Firestore holds Firestore configuration for the shared session backend
type Firestore struct {
	ProjectID  string
	DatabaseID string
	Collection string
}

// Flags returns CLI flags for Firestore configuration
func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud Project ID of the Firestore database",
			Destination: &c.ProjectID,
			Sources:     cli.EnvVars("SNIPZIP_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Destination: &c.DatabaseID,
			Sources:     cli.EnvVars("SNIPZIP_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Collection holding session documents",
			Value:       firestore.DefaultCollection,
			Destination: &c.Collection,
			Sources:     cli.EnvVars("SNIPZIP_FIRESTORE_COLLECTION"),
		},
	}
}

// NewRepository connects to Firestore
func (c *Firestore) NewRepository(ctx context.Context) (*firestore.SessionRepository, error) {
	if c.ProjectID == "" {
		return nil, goerr.New("--firestore-project-id is required for the firestore session backend")
	}
	return firestore.New(ctx, c.ProjectID, c.DatabaseID, firestore.WithCollection(c.Collection))
}
