package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/snipzip/pkg/cli/config"
	"github.com/m-mizutani/snipzip/pkg/infra/memory"
)

func TestSession_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Session
		wantErr bool
	}{
		{
			name: "Memory backend",
			cfg:  config.Session{TTL: time.Hour, InitialSlots: 3, Backend: config.BackendMemory},
		},
		{
			name: "Firestore backend",
			cfg:  config.Session{TTL: time.Hour, InitialSlots: 0, Backend: config.BackendFirestore},
		},
		{
			name:    "Zero TTL",
			cfg:     config.Session{TTL: 0, InitialSlots: 3, Backend: config.BackendMemory},
			wantErr: true,
		},
		{
			name:    "Negative slots",
			cfg:     config.Session{TTL: time.Hour, InitialSlots: -1, Backend: config.BackendMemory},
			wantErr: true,
		},
		{
			name:    "Unknown backend",
			cfg:     config.Session{TTL: time.Hour, InitialSlots: 3, Backend: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSession_NewRepository(t *testing.T) {
	cfg := config.Session{TTL: time.Hour, Backend: config.BackendMemory}

	repo, closer, err := cfg.NewRepository(context.Background(), &config.Firestore{})
	gt.NoError(t, err).Required()
	defer closer()

	_, ok := repo.(*memory.SessionRepository)
	gt.True(t, ok)
}

func TestSession_NewRepositoryFirestoreWithoutProject(t *testing.T) {
	cfg := config.Session{TTL: time.Hour, Backend: config.BackendFirestore}

	_, _, err := cfg.NewRepository(context.Background(), &config.Firestore{})
	gt.Error(t, err)
}

func TestSentry_Disabled(t *testing.T) {
	cfg := config.Sentry{}
	gt.False(t, cfg.Enabled())

	flush, err := cfg.Configure()
	gt.NoError(t, err)
	flush()
}
