package workflow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
	"github.com/terra-clan/symposium-registry/internal/validation"
)

// UpdateEvents is the self-service flow that replaces a registrant's events.
// It bypasses gating and talks to the collections directly.
type UpdateEvents struct {
	*core
}

// Lookup finds a registrant by email across outer, inter and department, in that order
func (u *UpdateEvents) Lookup(ctx context.Context, email string) (*models.RegistrationSummary, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid(validation.FieldErrors{"email": "is required"})
	}

	outer, err := u.Outer.FindByEmail(ctx, email)
	if err != nil {
		return nil, storage.Remote("lookup outer registration", err)
	}
	if outer != nil {
		s := outer.Summary()
		return &s, nil
	}

	inter, err := u.Inter.FindByEmail(ctx, email)
	if err != nil {
		return nil, storage.Remote("lookup inter registration", err)
	}
	if inter != nil {
		s := inter.Summary()
		return &s, nil
	}

	dept, err := u.Department.FindByEmail(ctx, email)
	if err != nil {
		return nil, storage.Remote("lookup department registration", err)
	}
	if dept != nil {
		s := dept.Summary()
		return &s, nil
	}

	return nil, ErrNotFound
}

// Apply replaces the selected events of the registrant with req.Email.
// The selection must be exactly one technical and one non-technical event;
// without req.Confirm a ConfirmationError carrying the found record is returned.
func (u *UpdateEvents) Apply(ctx context.Context, req models.UpdateEventsRequest) (*models.RegistrationSummary, error) {
	ids := make([]string, 0, len(req.SelectedEvents))
	for _, id := range req.SelectedEvents {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	if err := invalid(ValidateBalanced(u.Events, ids)); err != nil {
		return nil, err
	}

	found, err := u.Lookup(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if found.Variant == models.VariantOuter {
		return nil, ErrNoEventSelection
	}

	if err := invalid(ValidateOpen(u.Settings.Fetch(ctx), ids)); err != nil {
		return nil, err
	}

	if !req.Confirm {
		return nil, &ConfirmationError{Record: *found}
	}

	patch := storage.Patch{SelectedEvents: ids}
	switch found.Variant {
	case models.VariantInter:
		err = u.Inter.Update(ctx, found.ID, patch)
	case models.VariantDepartment:
		err = u.Department.Update(ctx, found.ID, patch)
	}
	if err != nil {
		return nil, storage.Remote("update selected events", err)
	}

	slog.Info("selected events updated", "variant", found.Variant, "id", found.ID, "events", ids)
	found.SelectedEvents = ids
	return found, nil
}
