package workflow

import (
	"context"
	"log/slog"

	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

// submission describes one insert-or-replace write against a collection
type submission[T any] struct {
	variant  models.Variant
	repo     storage.Collection[T]
	record   *T
	criteria storage.DuplicateCriteria
	patch    storage.Patch
	events   []string
	// adopt copies store-owned fields of the existing row into record
	adopt   func(existing, record *T)
	summary func(*T) models.RegistrationSummary
}

// submitFree is shared by the inter-college and department flows: gate,
// closed events, duplicate check, then insert or confirmed replace.
func submitFree[T any](ctx context.Context, c *core, s submission[T], replace bool) (*Confirmation, error) {
	variant := string(s.variant)

	snap, err := c.gate.Admit(ctx, s.variant)
	if err != nil {
		return nil, err
	}

	if err := invalid(ValidateOpen(snap, s.events)); err != nil {
		metrics.RecordRegistration(variant, "invalid")
		return nil, err
	}

	existing, err := s.repo.FindDuplicate(ctx, s.criteria)
	if err != nil {
		return nil, storage.Remote("check duplicate "+variant+" registration", err)
	}

	if existing != nil {
		if !replace {
			metrics.RecordRegistration(variant, "duplicate")
			return nil, &DuplicateError{Existing: s.summary(existing)}
		}

		s.adopt(existing, s.record)
		id := s.summary(existing).ID
		if err := s.repo.Update(ctx, id, s.patch); err != nil {
			metrics.RecordRegistration(variant, "error")
			return nil, storage.Remote("replace "+variant+" registration", err)
		}

		metrics.RecordRegistration(variant, "replaced")
		slog.Info("registration replaced", "variant", variant, "id", id)
		return c.confirm(s.summary(s.record), true), nil
	}

	if err := c.gate.CheckCapacity(ctx, snap, s.variant); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.record); err != nil {
		metrics.RecordRegistration(variant, "error")
		return nil, storage.Remote("insert "+variant+" registration", err)
	}

	summary := s.summary(s.record)
	metrics.RecordRegistration(variant, "created")
	slog.Info("registration created", "variant", variant, "id", summary.ID, "email", summary.Email)
	return c.confirm(summary, false), nil
}

// Inter is the free registration flow for students of the host college
type Inter struct {
	*core
}

// Begin runs the gate before the form is shown
func (i *Inter) Begin(ctx context.Context) error {
	_, err := i.gate.Check(ctx, models.VariantInter)
	return err
}

// Submit validates the form and inserts it. When a row with the same email,
// phone or register number exists, a DuplicateError is returned unless replace
// is set, in which case that row is overwritten.
func (i *Inter) Submit(ctx context.Context, form models.InterForm, replace bool) (*Confirmation, error) {
	form.Normalize()
	errs := merge(i.Validator.Struct(form), ValidateRange(i.Events, form.SelectedEvents, i.opts.InterMaxEvents))
	if err := invalid(errs); err != nil {
		metrics.RecordRegistration(string(models.VariantInter), "invalid")
		return nil, err
	}

	return submitFree(ctx, i.core, submission[models.InterRegistration]{
		variant: models.VariantInter,
		repo:    i.Inter,
		record:  form.Registration(),
		events:  form.SelectedEvents,
		criteria: storage.DuplicateCriteria{
			Email:          form.Email,
			Phone:          form.Phone,
			RegisterNumber: form.RegisterNumber,
		},
		patch: storage.Patch{
			Name:           &form.Name,
			Email:          &form.Email,
			Phone:          &form.Phone,
			Year:           &form.Year,
			RegisterNumber: &form.RegisterNumber,
			Department:     &form.Department,
			SelectedEvents: form.SelectedEvents,
		},
		adopt: func(existing, rec *models.InterRegistration) {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			rec.PaymentScreenshotURL = existing.PaymentScreenshotURL
			rec.PaymentVerified = existing.PaymentVerified
			rec.EntryConfirmed = existing.EntryConfirmed
		},
		summary: (*models.InterRegistration).Summary,
	}, replace)
}

// Department is the free registration flow for the organising department
type Department struct {
	*core
}

// Begin runs the gate before the form is shown
func (d *Department) Begin(ctx context.Context) error {
	_, err := d.gate.Check(ctx, models.VariantDepartment)
	return err
}

// Submit behaves like Inter.Submit with a section instead of a department
func (d *Department) Submit(ctx context.Context, form models.DepartmentForm, replace bool) (*Confirmation, error) {
	form.Normalize()
	errs := merge(d.Validator.Struct(form), ValidateRange(d.Events, form.SelectedEvents, d.opts.DepartmentMaxEvents))
	if err := invalid(errs); err != nil {
		metrics.RecordRegistration(string(models.VariantDepartment), "invalid")
		return nil, err
	}

	return submitFree(ctx, d.core, submission[models.DepartmentRegistration]{
		variant: models.VariantDepartment,
		repo:    d.Department,
		record:  form.Registration(),
		events:  form.SelectedEvents,
		criteria: storage.DuplicateCriteria{
			Email:          form.Email,
			Phone:          form.Phone,
			RegisterNumber: form.RegisterNumber,
		},
		patch: storage.Patch{
			Name:           &form.Name,
			Email:          &form.Email,
			Phone:          &form.Phone,
			Year:           &form.Year,
			RegisterNumber: &form.RegisterNumber,
			Section:        &form.Section,
			SelectedEvents: form.SelectedEvents,
		},
		adopt: func(existing, rec *models.DepartmentRegistration) {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
		},
		summary: (*models.DepartmentRegistration).Summary,
	}, replace)
}
