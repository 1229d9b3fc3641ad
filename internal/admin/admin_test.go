package admin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

// table is a minimal in-memory collection keyed by id
type table[T any] struct {
	rows    map[string]*T
	order   []string
	id      func(*T) string
	apply   func(*T, storage.Patch)
	listErr error
}

func newTable[T any](id func(*T) string, apply func(*T, storage.Patch), rows ...*T) *table[T] {
	t := &table[T]{rows: map[string]*T{}, id: id, apply: apply}
	for _, r := range rows {
		t.rows[id(r)] = r
		t.order = append(t.order, id(r))
	}
	return t
}

func (t *table[T]) Count(ctx context.Context) (int, error) { return len(t.rows), nil }
func (t *table[T]) FindDuplicate(ctx context.Context, c storage.DuplicateCriteria) (*T, error) {
	return nil, nil
}
func (t *table[T]) FindByEmail(ctx context.Context, email string) (*T, error) { return nil, nil }
func (t *table[T]) Insert(ctx context.Context, rec *T) error {
	t.rows[t.id(rec)] = rec
	t.order = append(t.order, t.id(rec))
	return nil
}

func (t *table[T]) Get(ctx context.Context, id string) (*T, error) {
	r, ok := t.rows[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

func (t *table[T]) Update(ctx context.Context, id string, p storage.Patch) error {
	r, ok := t.rows[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.apply(r, p)
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	if _, ok := t.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T]) List(ctx context.Context) ([]*T, error) {
	if t.listErr != nil {
		return nil, t.listErr
	}
	var out []*T
	for _, id := range t.order {
		if r, ok := t.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func applyOuter(r *models.OuterRegistration, p storage.Patch) {
	if p.PaymentVerified != nil {
		r.PaymentVerified = *p.PaymentVerified
	}
	if p.EntryConfirmed != nil {
		r.EntryConfirmed = *p.EntryConfirmed
	}
}

func applyInter(r *models.InterRegistration, p storage.Patch) {
	if p.PaymentVerified != nil {
		r.PaymentVerified = *p.PaymentVerified
	}
	if p.EntryConfirmed != nil {
		r.EntryConfirmed = *p.EntryConfirmed
	}
}

type fakeSettings struct {
	snap    models.SiteSettings
	updates map[string]json.RawMessage
	err     error
}

func (f *fakeSettings) Fetch(ctx context.Context) models.SiteSettings { return f.snap }
func (f *fakeSettings) Current() models.SiteSettings                  { return f.snap }
func (f *fakeSettings) Update(ctx context.Context, key string, value json.RawMessage) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = map[string]json.RawMessage{}
	}
	f.updates[key] = value
	if key == models.SettingMaintenanceMode {
		f.snap.MaintenanceMode = string(value) == "true"
	}
	return nil
}

type fakeExporter struct {
	got map[models.Variant][]models.RegistrationSummary
	err error
}

func (f *fakeExporter) Export(ctx context.Context, rows map[models.Variant][]models.RegistrationSummary) error {
	f.got = rows
	return f.err
}

type fixture struct {
	svc      *Service
	outer    *table[models.OuterRegistration]
	inter    *table[models.InterRegistration]
	dept     *table[models.DepartmentRegistration]
	settings *fakeSettings
	exporter *fakeExporter
}

func newFixture() *fixture {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		outer: newTable(func(r *models.OuterRegistration) string { return r.ID }, applyOuter,
			&models.OuterRegistration{ID: "o1", Name: "Jane Doe", Email: "jane@example.com", Phone: "9876543210", CreatedAt: base},
			&models.OuterRegistration{ID: "o2", Name: "John Roe", Email: "john@example.com", PaymentVerified: true, CreatedAt: base.Add(time.Hour)},
			&models.OuterRegistration{ID: "o3", Name: "Ann Lee", Email: "ann@example.com", PaymentVerified: true, EntryConfirmed: true, CreatedAt: base.Add(2 * time.Hour)},
		),
		inter: newTable(func(r *models.InterRegistration) string { return r.ID }, applyInter,
			&models.InterRegistration{ID: "i1", Name: "Ravi", Email: "ravi@college.edu", RegisterNumber: "21CS042", CreatedAt: base.Add(3 * time.Hour)},
		),
		dept: newTable(func(r *models.DepartmentRegistration) string { return r.ID }, func(*models.DepartmentRegistration, storage.Patch) {},
			&models.DepartmentRegistration{ID: "d1", Name: "Meena", Email: "meena@college.edu", CreatedAt: base.Add(4 * time.Hour)},
		),
		settings: &fakeSettings{snap: models.SiteSettings{RegistrationOpen: true}},
		exporter: &fakeExporter{},
	}
	f.svc = New(Deps{
		Outer:      f.outer,
		Inter:      f.inter,
		Department: f.dept,
		Settings:   f.settings,
		Exporter:   f.exporter,
	}, Config{
		Password:       "admin-secret",
		DeletePassword: "delete-secret",
		Prices:         Prices{Outer: 200},
	})
	return f
}

func ids(rows []models.RegistrationSummary) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.svc.Authenticate("admin-secret"))
	assert.ErrorIs(t, f.svc.Authenticate("admin-secreT"), ErrAuthFailure)
	assert.ErrorIs(t, f.svc.Authenticate(""), ErrAuthFailure)

	empty := New(Deps{}, Config{})
	assert.ErrorIs(t, empty.Authenticate(""), ErrAuthFailure)
}

func TestRowsNewestFirst(t *testing.T) {
	f := newFixture()
	rows, err := f.svc.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "i1", "o3", "o2", "o1"}, ids(rows))
}

func TestRowsRemoteFailure(t *testing.T) {
	f := newFixture()
	f.inter.listErr = errors.New("timeout")

	_, err := f.svc.Rows(context.Background())
	var remote *storage.RemoteError
	assert.ErrorAs(t, err, &remote)
}

func TestListTabs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending, err := f.svc.List(ctx, Filter{Tab: models.TabPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "o1"}, ids(pending))

	verified, err := f.svc.List(ctx, Filter{Tab: models.TabVerified})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "o2"}, ids(verified))

	entered, err := f.svc.List(ctx, Filter{Tab: models.TabEntered, Variant: models.VariantOuter})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3"}, ids(entered))

	search, err := f.svc.List(ctx, Filter{Tab: models.TabPending, Query: "21cs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, ids(search))
}

func TestVerifyThenDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.SetPaymentVerified(ctx, models.VariantOuter, "o1", true))

	verified, err := f.svc.List(ctx, Filter{Tab: models.TabVerified, Variant: models.VariantOuter})
	require.NoError(t, err)
	assert.Contains(t, ids(verified), "o1")

	pending, err := f.svc.List(ctx, Filter{Tab: models.TabPending, Variant: models.VariantOuter})
	require.NoError(t, err)
	assert.NotContains(t, ids(pending), "o1")

	err = f.svc.Delete(ctx, models.VariantOuter, "o1", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailure)
	_, err = f.outer.Get(ctx, "o1")
	require.NoError(t, err, "row must survive a wrong delete password")

	require.NoError(t, f.svc.Delete(ctx, models.VariantOuter, "o1", "delete-secret"))
	for _, tab := range []models.Tab{models.TabPending, models.TabVerified, models.TabEntered} {
		rows, err := f.svc.List(ctx, Filter{Tab: tab})
		require.NoError(t, err)
		assert.NotContains(t, ids(rows), "o1")
	}
}

func TestVerificationIsReversible(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.SetPaymentVerified(ctx, models.VariantOuter, "o2", false))
	assert.False(t, f.outer.rows["o2"].PaymentVerified)
}

func TestEntryConfirmationIsOneWay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.SetEntryConfirmed(ctx, models.VariantInter, "i1", true))
	assert.True(t, f.inter.rows["i1"].EntryConfirmed)

	assert.ErrorIs(t, f.svc.SetEntryConfirmed(ctx, models.VariantOuter, "o3", false), ErrIrreversible)
	assert.True(t, f.outer.rows["o3"].EntryConfirmed)

	assert.NoError(t, f.svc.SetEntryConfirmed(ctx, models.VariantOuter, "o3", true))
}

func TestDepartmentMutationsUnsupported(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SetPaymentVerified(ctx, models.VariantDepartment, "d1", true), storage.ErrUnsupportedField)
	assert.ErrorIs(t, f.svc.SetEntryConfirmed(ctx, models.VariantDepartment, "d1", true), storage.ErrUnsupportedField)
	assert.NoError(t, f.svc.Delete(ctx, models.VariantDepartment, "d1", "delete-secret"))
}

func TestMutationsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SetPaymentVerified(ctx, models.VariantOuter, "nope", true), storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.SetEntryConfirmed(ctx, models.VariantInter, "nope", true), storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, models.VariantInter, "nope", "delete-secret"), storage.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	d, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)

	outer := d.Stats.Variants[models.VariantOuter]
	assert.Equal(t, VariantStats{Total: 3, Pending: 1, Verified: 2, Entered: 1, Revenue: 400}, outer)
	assert.Equal(t, 5, d.Stats.Combined.Total)
	assert.Equal(t, 400, d.Stats.Combined.Revenue)
	assert.Equal(t, 1, d.Stats.Variants[models.VariantDepartment].Verified)
}

func TestSettingsPanel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	assert.True(t, f.svc.Settings(ctx).RegistrationOpen)
	snap, err := f.svc.UpdateSetting(ctx, models.SettingMaintenanceMode, json.RawMessage("true"))
	require.NoError(t, err)
	assert.True(t, snap.MaintenanceMode)
	assert.Equal(t, json.RawMessage("true"), f.settings.updates[models.SettingMaintenanceMode])

	f.settings.err = errors.New("db down")
	_, err = f.svc.UpdateSetting(ctx, models.SettingRegistrationOpen, json.RawMessage("false"))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	f := newFixture()

	counts, err := f.svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.VariantOuter])
	assert.Len(t, f.exporter.got[models.VariantInter], 1)
	assert.Len(t, f.exporter.got[models.VariantDepartment], 1)

	f.exporter.err = errors.New("quota exceeded")
	_, err = f.svc.Export(context.Background())
	var remote *storage.RemoteError
	assert.ErrorAs(t, err, &remote)

	disabled := New(Deps{Outer: f.outer, Inter: f.inter, Department: f.dept}, Config{})
	_, err = disabled.Export(context.Background())
	assert.ErrorIs(t, err, ErrExportDisabled)
}
