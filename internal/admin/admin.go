// Package admin implements the organiser dashboard: listing, stats and
// the verification, entry and delete mutations.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

var (
	ErrAuthFailure    = errors.New("wrong password")
	ErrIrreversible   = errors.New("entry confirmation cannot be reverted")
	ErrExportDisabled = errors.New("export is not configured")
	ErrUnknownVariant = errors.New("unknown registration variant")
)

// SettingsManager is the settings store as seen by the admin panel
type SettingsManager interface {
	Fetch(ctx context.Context) models.SiteSettings
	Current() models.SiteSettings
	Update(ctx context.Context, key string, value json.RawMessage) error
}

// DraftCounter reports outer registrations waiting for a payment proof
type DraftCounter interface {
	Count(ctx context.Context) (int, error)
}

// Exporter writes summaries somewhere outside the database
type Exporter interface {
	Export(ctx context.Context, rows map[models.Variant][]models.RegistrationSummary) error
}

// Prices per variant, used for revenue
type Prices struct {
	Outer      int
	Inter      int
	Department int
}

func (p Prices) For(v models.Variant) int {
	switch v {
	case models.VariantOuter:
		return p.Outer
	case models.VariantInter:
		return p.Inter
	case models.VariantDepartment:
		return p.Department
	}
	return 0
}

// Config holds the two shared secrets and prices
type Config struct {
	Password       string
	DeletePassword string
	Prices         Prices
}

// Deps are the collaborators of the admin service. Drafts and Exporter are optional.
type Deps struct {
	Outer      storage.OuterCollection
	Inter      storage.InterCollection
	Department storage.DepartmentCollection
	Settings   SettingsManager
	Drafts     DraftCounter
	Exporter   Exporter
}

// Service is the admin workflow
type Service struct {
	Deps
	cfg Config
}

// New creates the admin service
func New(deps Deps, cfg Config) *Service {
	return &Service{Deps: deps, cfg: cfg}
}

// Authenticate checks the dashboard password
func (s *Service) Authenticate(password string) error {
	return checkSecret(s.cfg.Password, password)
}

func checkSecret(want, got string) error {
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrAuthFailure
	}
	return nil
}

// Rows loads all three collections concurrently and returns their summaries, newest first
func (s *Service) Rows(ctx context.Context) ([]models.RegistrationSummary, error) {
	var (
		outer []*models.OuterRegistration
		inter []*models.InterRegistration
		dept  []*models.DepartmentRegistration
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		outer, err = s.Outer.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		inter, err = s.Inter.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		dept, err = s.Department.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storage.Remote("list registrations", err)
	}

	rows := make([]models.RegistrationSummary, 0, len(outer)+len(inter)+len(dept))
	for _, r := range outer {
		rows = append(rows, r.Summary())
	}
	for _, r := range inter {
		rows = append(rows, r.Summary())
	}
	for _, r := range dept {
		rows = append(rows, r.Summary())
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

// Filter selects rows for one dashboard tab. An empty Variant means all variants.
type Filter struct {
	Variant models.Variant
	Tab     models.Tab
	Query   string
}

// List returns the rows of one tab matching the free-text query
func (s *Service) List(ctx context.Context, f Filter) ([]models.RegistrationSummary, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return Partition(rows, f), nil
}

// Partition is the pure filter behind List
func Partition(rows []models.RegistrationSummary, f Filter) []models.RegistrationSummary {
	tab := f.Tab
	if tab == "" {
		tab = models.TabPending
	}

	out := []models.RegistrationSummary{}
	for _, r := range rows {
		if f.Variant != "" && r.Variant != f.Variant {
			continue
		}
		if r.Tab() != tab || !r.Matches(f.Query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dashboard is the stats header of the admin page
type Dashboard struct {
	Stats            Stats `json:"stats"`
	DraftsInProgress int   `json:"drafts_in_progress"`
}

// Dashboard loads every row and computes the aggregate stats
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Stats: ComputeStats(rows, s.cfg.Prices)}
	if s.Drafts != nil {
		n, err := s.Drafts.Count(ctx)
		if err != nil {
			slog.Warn("failed to count drafts", "error", err)
		}
		d.DraftsInProgress = n
	}
	return d, nil
}

// SetPaymentVerified toggles payment verification; it can be reverted
func (s *Service) SetPaymentVerified(ctx context.Context, v models.Variant, id string, value bool) error {
	patch := storage.Patch{PaymentVerified: &value}

	var err error
	switch v {
	case models.VariantOuter:
		err = s.Outer.Update(ctx, id, patch)
	case models.VariantInter:
		err = s.Inter.Update(ctx, id, patch)
	case models.VariantDepartment:
		err = fmt.Errorf("%w: department registrations are free", storage.ErrUnsupportedField)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	if err != nil {
		return mutationError("set payment verified", err)
	}

	slog.Info("payment verification changed", "variant", v, "id", id, "value", value)
	return nil
}

// SetEntryConfirmed marks attendance. Once confirmed it cannot be unset.
func (s *Service) SetEntryConfirmed(ctx context.Context, v models.Variant, id string, value bool) error {
	var current bool
	switch v {
	case models.VariantOuter:
		rec, err := s.Outer.Get(ctx, id)
		if err != nil {
			return mutationError("load registration", err)
		}
		current = rec.EntryConfirmed
	case models.VariantInter:
		rec, err := s.Inter.Get(ctx, id)
		if err != nil {
			return mutationError("load registration", err)
		}
		current = rec.EntryConfirmed
	case models.VariantDepartment:
		return fmt.Errorf("%w: department registrations have no entry flag", storage.ErrUnsupportedField)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}

	if current && !value {
		return ErrIrreversible
	}
	if current == value {
		return nil
	}

	patch := storage.Patch{EntryConfirmed: &value}
	var err error
	if v == models.VariantOuter {
		err = s.Outer.Update(ctx, id, patch)
	} else {
		err = s.Inter.Update(ctx, id, patch)
	}
	if err != nil {
		return mutationError("set entry confirmed", err)
	}

	slog.Info("entry confirmed", "variant", v, "id", id)
	return nil
}

// Delete removes a row after checking the second secret. A wrong password leaves the row intact.
func (s *Service) Delete(ctx context.Context, v models.Variant, id, deletePassword string) error {
	if err := checkSecret(s.cfg.DeletePassword, deletePassword); err != nil {
		slog.Warn("delete rejected: wrong password", "variant", v, "id", id)
		return err
	}

	var err error
	switch v {
	case models.VariantOuter:
		err = s.Outer.Delete(ctx, id)
	case models.VariantInter:
		err = s.Inter.Delete(ctx, id)
	case models.VariantDepartment:
		err = s.Department.Delete(ctx, id)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	if err != nil {
		return mutationError("delete registration", err)
	}

	slog.Info("registration deleted", "variant", v, "id", id)
	return nil
}

// Settings re-fetches the current settings
func (s *Service) Settings(ctx context.Context) models.SiteSettings {
	return s.Deps.Settings.Fetch(ctx)
}

// UpdateSetting changes one setting through the settings store and returns
// the snapshot the write left behind
func (s *Service) UpdateSetting(ctx context.Context, key string, value json.RawMessage) (models.SiteSettings, error) {
	if err := s.Deps.Settings.Update(ctx, key, value); err != nil {
		return models.SiteSettings{}, err
	}
	return s.Deps.Settings.Current(), nil
}

// Export writes every row to the configured exporter, grouped by variant
func (s *Service) Export(ctx context.Context) (map[models.Variant]int, error) {
	if s.Exporter == nil {
		return nil, ErrExportDisabled
	}

	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[models.Variant][]models.RegistrationSummary, len(models.Variants))
	counts := make(map[models.Variant]int, len(models.Variants))
	for _, v := range models.Variants {
		grouped[v] = []models.RegistrationSummary{}
		counts[v] = 0
	}
	for _, r := range rows {
		grouped[r.Variant] = append(grouped[r.Variant], r)
		counts[r.Variant]++
	}

	if err := s.Exporter.Export(ctx, grouped); err != nil {
		return nil, storage.Remote("export registrations", err)
	}

	slog.Info("registrations exported", "outer", counts[models.VariantOuter], "inter", counts[models.VariantInter], "department", counts[models.VariantDepartment])
	return counts, nil
}

// mutationError passes domain errors through and wraps store failures
func mutationError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrUnsupportedField) ||
		errors.Is(err, ErrUnknownVariant) {
		return err
	}
	return storage.Remote(op, err)
}
