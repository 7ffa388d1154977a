// Package janitor removes expired sessions on a cron schedule.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/robfig/cron/v3"
)

// DefaultSpec runs a sweep every minute
const DefaultSpec = "@every 1m"

// Janitor periodically deletes expired sessions from a repository
type Janitor struct {
	repo interfaces.SessionRepository
	spec string
	now  func() time.Time
}

// New creates a janitor running on spec. An empty spec uses DefaultSpec.
func New(repo interfaces.SessionRepository, spec string) *Janitor {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Janitor{
		repo: repo,
		spec: spec,
		now:  time.Now,
	}
}

// Sweep deletes expired sessions once and returns how many were removed
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	n, err := j.repo.DeleteExpired(ctx, j.now())
	if err != nil {
		return n, goerr.Wrap(err, "failed to delete expired sessions")
	}
	if n > 0 {
		ctxlog.From(ctx).Info("Removed expired sessions", "count", n)
	}
	return n, nil
}

// Run schedules Sweep and blocks until ctx is done
func (j *Janitor) Run(ctx context.Context) error {
	logger := ctxlog.From(ctx)
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))
	if _, err := c.AddFunc(j.spec, func() {
		if _, err := j.Sweep(ctx); err != nil {
			logger.Error("Session sweep failed", "error", err)
		}
	}); err != nil {
		return goerr.Wrap(err, "invalid cleanup schedule", goerr.V("spec", j.spec))
	}

	c.Start()
	logger.Info("Session janitor started", "spec", j.spec)

	<-ctx.Done()

	<-c.Stop().Done()
	logger.Info("Session janitor stopped")
	return nil
}
