package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

// Manual is the operator entry point. It skips gating and duplicate checks
// but still validates every field.
type Manual struct {
	*core
}

// Create inserts an operator-entered registration. upload is optional and
// only used by the variants that carry payment fields.
func (m *Manual) Create(ctx context.Context, variant models.Variant, entry models.ManualEntry, upload *Upload) (*models.RegistrationSummary, error) {
	var p *proof
	if upload != nil && variant != models.VariantDepartment {
		checked, err := checkUpload(*upload, m.opts.MaxUploadBytes)
		if err != nil {
			return nil, err
		}
		p = checked
	}

	switch variant {
	case models.VariantOuter:
		form := entry.OuterForm()
		form.Normalize()
		if err := invalid(m.Validator.Struct(form)); err != nil {
			return nil, err
		}

		url, err := m.proofURL(ctx, p, entry.PaymentScreenshotURL)
		if err != nil {
			return nil, err
		}
		rec := form.Registration(url)
		rec.PaymentVerified = entry.PaymentVerified
		if err := m.Outer.Insert(ctx, rec); err != nil {
			return nil, storage.Remote("insert outer registration", err)
		}
		return m.created(rec.Summary()), nil

	case models.VariantInter:
		form := entry.InterForm()
		form.Normalize()
		errs := merge(m.Validator.Struct(form), ValidateRange(m.Events, form.SelectedEvents, m.opts.InterMaxEvents))
		if err := invalid(errs); err != nil {
			return nil, err
		}

		url, err := m.proofURL(ctx, p, entry.PaymentScreenshotURL)
		if err != nil {
			return nil, err
		}
		rec := form.Registration()
		rec.PaymentScreenshotURL = url
		rec.PaymentVerified = entry.PaymentVerified
		if err := m.Inter.Insert(ctx, rec); err != nil {
			return nil, storage.Remote("insert inter registration", err)
		}
		return m.created(rec.Summary()), nil

	case models.VariantDepartment:
		form := entry.DepartmentForm()
		form.Normalize()
		errs := merge(m.Validator.Struct(form), ValidateRange(m.Events, form.SelectedEvents, m.opts.DepartmentMaxEvents))
		if err := invalid(errs); err != nil {
			return nil, err
		}

		rec := form.Registration()
		if err := m.Department.Insert(ctx, rec); err != nil {
			return nil, storage.Remote("insert department registration", err)
		}
		return m.created(rec.Summary()), nil
	}

	return nil, fmt.Errorf("unknown registration variant: %s", variant)
}

func (m *Manual) proofURL(ctx context.Context, p *proof, fallback string) (string, error) {
	if p == nil {
		return fallback, nil
	}
	return m.store(ctx, p)
}

func (m *Manual) created(s models.RegistrationSummary) *models.RegistrationSummary {
	slog.Info("manual registration created", "variant", s.Variant, "id", s.ID, "email", s.Email)
	return &s
}

// Update applies an operator edit. The merged record is validated before the write.
func (m *Manual) Update(ctx context.Context, variant models.Variant, id string, patch models.RegistrationPatch) (*models.RegistrationSummary, error) {
	switch variant {
	case models.VariantOuter:
		rec, err := m.Outer.Get(ctx, id)
		if err != nil {
			return nil, m.getError(err)
		}
		form := rec.Form()
		patch.ApplyOuter(&form)
		form.Normalize()
		if err := invalid(m.Validator.Struct(form)); err != nil {
			return nil, err
		}

		sp := storage.Patch{
			Name: &form.Name, Email: &form.Email, Phone: &form.Phone, Year: &form.Year,
			CollegeName: &form.CollegeName, Department: &form.Department,
			PaymentScreenshotURL: patch.PaymentScreenshotURL,
		}
		if err := m.update(ctx, m.Outer, id, sp); err != nil {
			return nil, err
		}
		updated := form.Registration(rec.PaymentScreenshotURL)
		if patch.PaymentScreenshotURL != nil {
			updated.PaymentScreenshotURL = *patch.PaymentScreenshotURL
		}
		updated.ID, updated.CreatedAt = rec.ID, rec.CreatedAt
		updated.PaymentVerified, updated.EntryConfirmed = rec.PaymentVerified, rec.EntryConfirmed
		s := updated.Summary()
		return &s, nil

	case models.VariantInter:
		rec, err := m.Inter.Get(ctx, id)
		if err != nil {
			return nil, m.getError(err)
		}
		form := rec.Form()
		patch.ApplyInter(&form)
		form.Normalize()
		errs := m.Validator.Struct(form)
		if patch.SelectedEvents != nil {
			errs = merge(errs, ValidateRange(m.Events, form.SelectedEvents, m.opts.InterMaxEvents))
		}
		if err := invalid(errs); err != nil {
			return nil, err
		}

		sp := storage.Patch{
			Name: &form.Name, Email: &form.Email, Phone: &form.Phone, Year: &form.Year,
			RegisterNumber: &form.RegisterNumber, Department: &form.Department,
			SelectedEvents: form.SelectedEvents, PaymentScreenshotURL: patch.PaymentScreenshotURL,
		}
		if err := m.update(ctx, m.Inter, id, sp); err != nil {
			return nil, err
		}
		updated := form.Registration()
		updated.ID, updated.CreatedAt = rec.ID, rec.CreatedAt
		updated.PaymentScreenshotURL = rec.PaymentScreenshotURL
		if patch.PaymentScreenshotURL != nil {
			updated.PaymentScreenshotURL = *patch.PaymentScreenshotURL
		}
		updated.PaymentVerified, updated.EntryConfirmed = rec.PaymentVerified, rec.EntryConfirmed
		s := updated.Summary()
		return &s, nil

	case models.VariantDepartment:
		if patch.PaymentScreenshotURL != nil {
			return nil, fmt.Errorf("%w: payment_screenshot_url on department_registrations", storage.ErrUnsupportedField)
		}
		rec, err := m.Department.Get(ctx, id)
		if err != nil {
			return nil, m.getError(err)
		}
		form := rec.Form()
		patch.ApplyDepartment(&form)
		form.Normalize()
		errs := m.Validator.Struct(form)
		if patch.SelectedEvents != nil {
			errs = merge(errs, ValidateRange(m.Events, form.SelectedEvents, m.opts.DepartmentMaxEvents))
		}
		if err := invalid(errs); err != nil {
			return nil, err
		}

		sp := storage.Patch{
			Name: &form.Name, Email: &form.Email, Phone: &form.Phone, Year: &form.Year,
			RegisterNumber: &form.RegisterNumber, Section: &form.Section,
			SelectedEvents: form.SelectedEvents,
		}
		if err := m.update(ctx, m.Department, id, sp); err != nil {
			return nil, err
		}
		updated := form.Registration()
		updated.ID, updated.CreatedAt = rec.ID, rec.CreatedAt
		s := updated.Summary()
		return &s, nil
	}

	return nil, fmt.Errorf("unknown registration variant: %s", variant)
}

type updater interface {
	Update(ctx context.Context, id string, patch storage.Patch) error
}

func (m *Manual) update(ctx context.Context, repo updater, id string, p storage.Patch) error {
	err := repo.Update(ctx, id, p)
	switch {
	case err == nil:
		slog.Info("registration edited", "id", id)
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrUnsupportedField):
		return err
	}
	return storage.Remote("update registration", err)
}

func (m *Manual) getError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return storage.Remote("load registration", err)
}
