// Package workflow implements the registration flows: gating, the outer
// paid flow, the inter-college and department flows, self-service event
// updates and operator manual entry.
package workflow

import (
	"context"
	"time"

	"github.com/terra-clan/symposium-registry/internal/blobstore"
	"github.com/terra-clan/symposium-registry/internal/drafts"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/notify"
	"github.com/terra-clan/symposium-registry/internal/storage"
	"github.com/terra-clan/symposium-registry/internal/validation"
)

// DraftStore keeps outer forms between submission and proof upload
type DraftStore interface {
	Save(ctx context.Context, form models.OuterForm, amount int) (*drafts.Draft, error)
	Get(ctx context.Context, token string) (*drafts.Draft, error)
	Delete(ctx context.Context, token string) error
}

// Options are the fixed registration constants
type Options struct {
	Deadline            time.Time
	OuterPrice          int
	InterMaxEvents      int
	DepartmentMaxEvents int
	MaxUploadBytes      int64
	CommunityURL        string
	RedirectAfter       time.Duration
}

// Deps are the collaborators of the workflows
type Deps struct {
	Settings   SettingsSource
	Events     EventLookup
	Validator  *validation.Validator
	Outer      storage.OuterCollection
	Inter      storage.InterCollection
	Department storage.DepartmentCollection
	Drafts     DraftStore
	Blobs      blobstore.Store
	Notifier   notify.Notifier
}

// Confirmation is the terminal success state of every flow
type Confirmation struct {
	Registration         models.RegistrationSummary `json:"registration"`
	Replaced             bool                       `json:"replaced"`
	RedirectURL          string                     `json:"redirect_url"`
	RedirectAfterSeconds int                        `json:"redirect_after_seconds"`
}

// Service groups the registration flows around one gate
type Service struct {
	Gate         *Gate
	Outer        *Outer
	Inter        *Inter
	Department   *Department
	UpdateEvents *UpdateEvents
	Manual       *Manual
}

type core struct {
	Deps
	opts Options
	gate *Gate
}

// New wires the flows
func New(deps Deps, opts Options) *Service {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}

	gate := NewGate(deps.Settings, map[models.Variant]Counter{
		models.VariantOuter:      deps.Outer,
		models.VariantInter:      deps.Inter,
		models.VariantDepartment: deps.Department,
	}, opts.Deadline)

	c := &core{Deps: deps, opts: opts, gate: gate}

	return &Service{
		Gate:         gate,
		Outer:        &Outer{core: c},
		Inter:        &Inter{core: c},
		Department:   &Department{core: c},
		UpdateEvents: &UpdateEvents{core: c},
		Manual:       &Manual{core: c},
	}
}

func (c *core) confirm(s models.RegistrationSummary, replaced bool) *Confirmation {
	return &Confirmation{
		Registration:         s,
		Replaced:             replaced,
		RedirectURL:          c.opts.CommunityURL,
		RedirectAfterSeconds: int(c.opts.RedirectAfter / time.Second),
	}
}
