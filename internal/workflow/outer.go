package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/terra-clan/symposium-registry/internal/drafts"
	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

const notifyTimeout = 5 * time.Second

// PaymentStep is returned when an outer form is accepted and waits for its proof
type PaymentStep struct {
	State      string `json:"state"`
	DraftToken string `json:"draft_token"`
	Amount     int    `json:"amount"`
}

// Outer is the paid registration flow for students of other colleges
type Outer struct {
	*core
}

// Begin runs the gate before the form is shown
func (o *Outer) Begin(ctx context.Context) error {
	_, err := o.gate.Check(ctx, models.VariantOuter)
	return err
}

// Submit validates the form, re-checks capacity and parks the form as a draft
func (o *Outer) Submit(ctx context.Context, form models.OuterForm) (*PaymentStep, error) {
	form.Normalize()
	if err := invalid(o.Validator.Struct(form)); err != nil {
		metrics.RecordRegistration(string(models.VariantOuter), "invalid")
		return nil, err
	}

	if _, err := o.gate.Check(ctx, models.VariantOuter); err != nil {
		return nil, err
	}

	d, err := o.Drafts.Save(ctx, form, o.opts.OuterPrice)
	if err != nil {
		slog.Error("failed to save draft", "email", form.Email, "error", err)
		return nil, storage.Remote("save registration draft", err)
	}

	slog.Info("outer registration awaiting payment", "email", form.Email, "draft", d.Token)
	return &PaymentStep{State: "payment_upload", DraftToken: d.Token, Amount: d.Amount}, nil
}

// UploadProof stores the payment proof and inserts the registration.
// The full gate runs again before the upload; a rejection keeps the draft.
// A failed insert after a successful upload leaves the blob for the janitor
// and the draft is kept so the registrant can retry.
func (o *Outer) UploadProof(ctx context.Context, token string, upload Upload) (*Confirmation, error) {
	p, err := checkUpload(upload, o.opts.MaxUploadBytes)
	if err != nil {
		metrics.RecordUpload("rejected")
		return nil, err
	}

	d, err := o.Drafts.Get(ctx, token)
	if err != nil {
		if errors.Is(err, drafts.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, storage.Remote("load registration draft", err)
	}

	if _, err := o.gate.Check(ctx, models.VariantOuter); err != nil {
		return nil, err
	}

	url, err := o.store(ctx, p)
	if err != nil {
		slog.Error("payment proof upload failed", "draft", token, "error", err)
		return nil, err
	}

	rec := d.Form.Registration(url)
	if err := o.Outer.Insert(ctx, rec); err != nil {
		slog.Error("outer insert failed after upload", "draft", token, "proof_url", url, "error", err)
		metrics.RecordRegistration(string(models.VariantOuter), "error")
		return nil, storage.Remote("insert outer registration", err)
	}

	if err := o.Drafts.Delete(ctx, token); err != nil {
		slog.Warn("failed to delete draft", "draft", token, "error", err)
	}

	summary := rec.Summary()
	o.notify(ctx, summary)

	metrics.RecordRegistration(string(models.VariantOuter), "created")
	slog.Info("outer registration created", "id", rec.ID, "email", rec.Email)
	return o.confirm(summary, false), nil
}

func (o *Outer) notify(ctx context.Context, s models.RegistrationSummary) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := o.Notifier.RegistrationCreated(ctx, s); err != nil {
		slog.Warn("organiser notification failed", "id", s.ID, "error", err)
	}
}
