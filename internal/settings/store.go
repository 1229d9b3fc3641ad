// Package settings keeps the in-memory snapshot of the site_settings table.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terra-clan/symposium-registry/internal/config"
	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidValue   = errors.New("invalid setting value")
)

// Defaults returns the snapshot used when the table has no value for a key
func Defaults(cfg config.RegistrationConfig) models.SiteSettings {
	return models.SiteSettings{
		MaintenanceMode:          false,
		RegistrationOpen:         true,
		OuterCollegeLimit:        cfg.OuterCollegeLimit,
		InterCollegeLimit:        cfg.InterCollegeLimit,
		DepartmentLimit:          cfg.DepartmentLimit,
		RegistrationClosedEvents: map[string]bool{},
	}
}

// Store fetches and updates site settings. Fetch never fails: on a remote
// error the defaults are returned so the public site keeps working.
type Store struct {
	repo     storage.SettingsRepository
	defaults models.SiteSettings

	mu      sync.RWMutex
	current models.SiteSettings
}

// NewStore creates a store whose snapshot starts at defaults
func NewStore(repo storage.SettingsRepository, defaults models.SiteSettings) *Store {
	return &Store{
		repo:     repo,
		defaults: defaults.Clone(),
		current:  defaults.Clone(),
	}
}

// Fetch reads the table, replaces the snapshot and returns a copy of it
func (s *Store) Fetch(ctx context.Context) models.SiteSettings {
	snap := s.defaults.Clone()

	rows, err := s.repo.ListSettings(ctx)
	if err != nil {
		slog.Warn("settings fetch failed, using defaults", "error", err)
		metrics.RecordSettingsFetchFailure()
	} else {
		for _, row := range rows {
			if !models.IsSettingKey(row.Key) {
				continue
			}
			if err := snap.Apply(row.Key, row.Value); err != nil {
				slog.Warn("ignoring undecodable setting", "key", row.Key, "error", err)
			}
		}
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	return snap.Clone()
}

// Current returns the last snapshot without I/O
func (s *Store) Current() models.SiteSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies the change locally first, then writes it. On a write failure
// the snapshot is reconciled with a fresh Fetch and a RemoteError is returned.
func (s *Store) Update(ctx context.Context, key string, value json.RawMessage) error {
	if !models.IsSettingKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	s.mu.Lock()
	next := s.current.Clone()
	if err := next.Apply(key, value); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	s.current = next
	s.mu.Unlock()

	if err := s.repo.UpsertSetting(ctx, key, value); err != nil {
		slog.Error("settings update failed, reconciling", "key", key, "error", err)
		s.Fetch(ctx)
		return storage.Remote("update setting "+key, err)
	}

	slog.Info("setting updated", "key", key, "value", string(value))
	return nil
}
