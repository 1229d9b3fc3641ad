package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// Common errors
var (
	ErrNotFound         = errors.New("registration not found")
	ErrUnsupportedField = errors.New("field not supported by this registration table")
)

// Collection is the contract shared by the three registration tables.
// Multi-call sequences (count then insert, find then update) are not atomic.
type Collection[T any] interface {
	Count(ctx context.Context) (int, error)
	// FindDuplicate returns the oldest row matching any non-empty criterion, or nil
	FindDuplicate(ctx context.Context, c DuplicateCriteria) (*T, error)
	// FindByEmail returns the oldest row with the email (case-insensitive), or nil
	FindByEmail(ctx context.Context, email string) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	// Insert stores the record and fills in the store-assigned ID and CreatedAt
	Insert(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*T, error)
}

// Per-variant collections
type (
	OuterCollection      = Collection[models.OuterRegistration]
	InterCollection      = Collection[models.InterRegistration]
	DepartmentCollection = Collection[models.DepartmentRegistration]
)

// DuplicateCriteria are OR-ed together; empty values are skipped
type DuplicateCriteria struct {
	Email          string
	Phone          string
	RegisterNumber string
}

// SettingsRepository reads and writes rows of the site_settings table
type SettingsRepository interface {
	ListSettings(ctx context.Context) ([]models.SettingRow, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name                 *string
	Email                *string
	Phone                *string
	Year                 *string
	CollegeName          *string
	Department           *string
	RegisterNumber       *string
	Section              *string
	SelectedEvents       []string
	PaymentScreenshotURL *string
	PaymentVerified      *bool
	EntryConfirmed       *bool
}

type patchField struct {
	column string
	value  any
}

// fields returns the set columns in a stable order
func (p Patch) fields() []patchField {
	var out []patchField
	add := func(col string, set bool, v any) {
		if set {
			out = append(out, patchField{column: col, value: v})
		}
	}
	add("name", p.Name != nil, deref(p.Name))
	add("email", p.Email != nil, deref(p.Email))
	add("phone", p.Phone != nil, deref(p.Phone))
	add("year", p.Year != nil, deref(p.Year))
	add("college_name", p.CollegeName != nil, deref(p.CollegeName))
	add("department", p.Department != nil, deref(p.Department))
	add("register_number", p.RegisterNumber != nil, deref(p.RegisterNumber))
	add("section", p.Section != nil, deref(p.Section))
	add("selected_events", p.SelectedEvents != nil, p.SelectedEvents)
	add("payment_screenshot_url", p.PaymentScreenshotURL != nil, deref(p.PaymentScreenshotURL))
	add("payment_verified", p.PaymentVerified != nil, deref(p.PaymentVerified))
	add("entry_confirmed", p.EntryConfirmed != nil, deref(p.EntryConfirmed))
	return out
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return len(p.fields()) == 0
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// RemoteError wraps a failure of a remote store (database, blob store, draft store).
// Callers keep the user's input so the operation can be retried.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Remote wraps err as a RemoteError, passing nil through
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}
