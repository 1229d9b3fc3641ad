package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/symposium-registry/internal/drafts"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
	"github.com/terra-clan/symposium-registry/internal/validation"
)

// memCollection is an in-memory storage.Collection with injectable failures
type memCollection[T any] struct {
	rows     []*T
	identity func(*T) (id, email, phone, regno string)
	assign   func(*T, string)

	countErr  error
	findErr   error
	insertErr error
	updateErr error

	inserts int
	patches []storage.Patch
	updated []string
}

func (m *memCollection[T]) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.rows), nil
}

func (m *memCollection[T]) FindDuplicate(ctx context.Context, c storage.DuplicateCriteria) (*T, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if c.Email != "" {
		for _, r := range m.rows {
			if _, email, _, _ := m.identity(r); strings.EqualFold(c.Email, email) {
				return r, nil
			}
		}
	}
	for _, r := range m.rows {
		_, _, phone, regno := m.identity(r)
		if (c.Phone != "" && c.Phone == phone) ||
			(c.RegisterNumber != "" && c.RegisterNumber == regno) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memCollection[T]) FindByEmail(ctx context.Context, email string) (*T, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.FindDuplicate(ctx, storage.DuplicateCriteria{Email: email})
}

func (m *memCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	for _, r := range m.rows {
		if rid, _, _, _ := m.identity(r); rid == id {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memCollection[T]) Insert(ctx context.Context, rec *T) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts++
	m.assign(rec, uuid.New().String())
	m.rows = append(m.rows, rec)
	return nil
}

func (m *memCollection[T]) Update(ctx context.Context, id string, patch storage.Patch) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.patches = append(m.patches, patch)
	m.updated = append(m.updated, id)
	return nil
}

func (m *memCollection[T]) Delete(ctx context.Context, id string) error {
	for i, r := range m.rows {
		if rid, _, _, _ := m.identity(r); rid == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memCollection[T]) List(ctx context.Context) ([]*T, error) {
	return m.rows, nil
}

func newOuterRepo(rows ...*models.OuterRegistration) *memCollection[models.OuterRegistration] {
	return &memCollection[models.OuterRegistration]{
		rows: rows,
		identity: func(r *models.OuterRegistration) (string, string, string, string) {
			return r.ID, r.Email, r.Phone, ""
		},
		assign: func(r *models.OuterRegistration, id string) { r.ID, r.CreatedAt = id, time.Now() },
	}
}

func newInterRepo(rows ...*models.InterRegistration) *memCollection[models.InterRegistration] {
	return &memCollection[models.InterRegistration]{
		rows: rows,
		identity: func(r *models.InterRegistration) (string, string, string, string) {
			return r.ID, r.Email, r.Phone, r.RegisterNumber
		},
		assign: func(r *models.InterRegistration, id string) { r.ID, r.CreatedAt = id, time.Now() },
	}
}

func newDepartmentRepo(rows ...*models.DepartmentRegistration) *memCollection[models.DepartmentRegistration] {
	return &memCollection[models.DepartmentRegistration]{
		rows: rows,
		identity: func(r *models.DepartmentRegistration) (string, string, string, string) {
			return r.ID, r.Email, r.Phone, r.RegisterNumber
		},
		assign: func(r *models.DepartmentRegistration, id string) { r.ID, r.CreatedAt = id, time.Now() },
	}
}

// fixedSettings always returns the same snapshot
type fixedSettings struct {
	snap    models.SiteSettings
	fetches int
}

func (f *fixedSettings) Fetch(ctx context.Context) models.SiteSettings {
	f.fetches++
	return f.snap.Clone()
}

func openSettings() *fixedSettings {
	return &fixedSettings{snap: models.SiteSettings{
		RegistrationOpen:  true,
		OuterCollegeLimit: 300,
		InterCollegeLimit: 500,
		DepartmentLimit:   500,
	}}
}

type eventMap map[string]*models.Event

func (e eventMap) Event(id string) *models.Event { return e[id] }

func testEvents() eventMap {
	return eventMap{
		"paper-presentation": {ID: "paper-presentation", Category: models.CategoryTechnical},
		"code-debugging":     {ID: "code-debugging", Category: models.CategoryTechnical},
		"web-design":         {ID: "web-design", Category: models.CategoryTechnical},
		"tech-quiz":          {ID: "tech-quiz", Category: models.CategoryTechnical},
		"treasure-hunt":      {ID: "treasure-hunt", Category: models.CategoryNonTechnical},
		"connexions":         {ID: "connexions", Category: models.CategoryNonTechnical},
	}
}

type memDrafts struct {
	drafts  map[string]*drafts.Draft
	saveErr error
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: map[string]*drafts.Draft{}}
}

func (m *memDrafts) Save(ctx context.Context, form models.OuterForm, amount int) (*drafts.Draft, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	d := &drafts.Draft{Token: uuid.New().String(), Form: form, Amount: amount, CreatedAt: time.Now()}
	m.drafts[d.Token] = d
	return d, nil
}

func (m *memDrafts) Get(ctx context.Context, token string) (*drafts.Draft, error) {
	d, ok := m.drafts[token]
	if !ok {
		return nil, drafts.ErrNotFound
	}
	return d, nil
}

func (m *memDrafts) Delete(ctx context.Context, token string) error {
	delete(m.drafts, token)
	return nil
}

type memBlobs struct {
	puts map[string][]byte
	err  error
}

func (m *memBlobs) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[key] = data
	return "https://files.example/" + key, nil
}

type recordingNotifier struct {
	sent []models.RegistrationSummary
	err  error
}

func (r *recordingNotifier) RegistrationCreated(ctx context.Context, s models.RegistrationSummary) error {
	r.sent = append(r.sent, s)
	return r.err
}

var errStoreDown = errors.New("store unavailable")

type harness struct {
	svc        *Service
	settings   *fixedSettings
	outer      *memCollection[models.OuterRegistration]
	inter      *memCollection[models.InterRegistration]
	department *memCollection[models.DepartmentRegistration]
	drafts     *memDrafts
	blobs      *memBlobs
	notifier   *recordingNotifier
}

func newHarness() *harness {
	h := &harness{
		settings:   openSettings(),
		outer:      newOuterRepo(),
		inter:      newInterRepo(),
		department: newDepartmentRepo(),
		drafts:     newMemDrafts(),
		blobs:      &memBlobs{},
		notifier:   &recordingNotifier{},
	}
	h.svc = New(Deps{
		Settings:   h.settings,
		Events:     testEvents(),
		Validator:  validation.New([]string{"CSE", "ECE", "IT"}),
		Outer:      h.outer,
		Inter:      h.inter,
		Department: h.department,
		Drafts:     h.drafts,
		Blobs:      h.blobs,
		Notifier:   h.notifier,
	}, Options{
		Deadline:            time.Now().Add(24 * time.Hour),
		OuterPrice:          200,
		InterMaxEvents:      4,
		DepartmentMaxEvents: 4,
		MaxUploadBytes:      5 * 1024 * 1024,
		CommunityURL:        "https://chat.example/invite",
		RedirectAfter:       3 * time.Second,
	})
	return h
}

// fill adds n placeholder rows so Count reports n
func fill[T any](m *memCollection[T], n int) {
	for i := 0; i < n; i++ {
		m.rows = append(m.rows, new(T))
	}
}
