package config

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/m-mizutani/snipzip/pkg/domain/types"
	"github.com/m-mizutani/snipzip/pkg/infra/memory"
	"github.com/urfave/cli/v3"
)

// Session backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
)

// Session holds session lifecycle configuration
type Session struct {
	TTL          time.Duration
	InitialSlots int
	Backend      string
	CleanupSpec  string
}

// Flags returns CLI flags for session configuration
func (c *Session) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "Idle lifetime of a session",
			Value:       24 * time.Hour,
			Destination: &c.TTL,
			Sources:     cli.EnvVars("SNIPZIP_SESSION_TTL"),
		},
		&cli.IntFlag{
			Name:        "session-initial-slots",
			Usage:       "Number of empty file slots a new session starts with",
			Value:       types.DefaultSlotCount,
			Destination: &c.InitialSlots,
			Sources:     cli.EnvVars("SNIPZIP_SESSION_INITIAL_SLOTS"),
		},
		&cli.StringFlag{
			Name:        "session-backend",
			Usage:       "Session store (memory, firestore)",
			Value:       BackendMemory,
			Destination: &c.Backend,
			Sources:     cli.EnvVars("SNIPZIP_SESSION_BACKEND"),
		},
		&cli.StringFlag{
			Name:        "session-cleanup",
			Usage:       "Cron spec for removing expired sessions",
			Value:       "@every 1m",
			Destination: &c.CleanupSpec,
			Sources:     cli.EnvVars("SNIPZIP_SESSION_CLEANUP"),
		},
	}
}

// Validate checks the session configuration
func (c *Session) Validate() error {
	if c.TTL <= 0 {
		return goerr.New("session TTL must be positive", goerr.V("ttl", c.TTL))
	}
	if c.InitialSlots < 0 {
		return goerr.New("initial slots must not be negative", goerr.V("slots", c.InitialSlots))
	}
	switch c.Backend {
	case BackendMemory, BackendFirestore:
		return nil
	default:
		return goerr.New("unknown session backend", goerr.V("backend", c.Backend))
	}
}

// NewRepository creates the configured session repository. The returned
// closer releases backend connections.
func (c *Session) NewRepository(ctx context.Context, fs *Firestore) (interfaces.SessionRepository, func(), error) {
	switch c.Backend {
	case BackendFirestore:
		repo, err := fs.NewRepository(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case BackendMemory:
		return memory.NewSessionRepository(), func() {}, nil

	default:
		return nil, nil, goerr.New("unknown session backend", goerr.V("backend", c.Backend))
	}
}
