package workflow

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func pngUpload(size int) Upload {
	data := make([]byte, size)
	copy(data, pngSignature)
	return Upload{Filename: "receipt.png", ContentType: "image/png", Size: int64(size), Body: bytes.NewReader(data)}
}

func janeForm() models.OuterForm {
	return models.OuterForm{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "9876543210",
		CollegeName: "XYZ",
		Year:        "2",
		Department:  "CSE",
	}
}

func TestOuterEndToEnd(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.svc.Outer.Begin(ctx))

	step, err := h.svc.Outer.Submit(ctx, janeForm())
	require.NoError(t, err)
	assert.Equal(t, "payment_upload", step.State)
	assert.Equal(t, 200, step.Amount)
	assert.NotEmpty(t, step.DraftToken)
	assert.Zero(t, h.outer.inserts)

	conf, err := h.svc.Outer.UploadProof(ctx, step.DraftToken, pngUpload(2*1024*1024))
	require.NoError(t, err)

	reg := conf.Registration
	assert.Equal(t, models.VariantOuter, reg.Variant)
	assert.Equal(t, "Jane Doe", reg.Name)
	assert.False(t, reg.PaymentVerified)
	assert.False(t, reg.EntryConfirmed)
	assert.True(t, strings.HasPrefix(reg.PaymentScreenshotURL, "https://files.example/"))
	assert.True(t, strings.HasSuffix(reg.PaymentScreenshotURL, ".png"))
	assert.NotEmpty(t, reg.ID)

	assert.Equal(t, "https://chat.example/invite", conf.RedirectURL)
	assert.Equal(t, 3, conf.RedirectAfterSeconds)

	assert.Equal(t, 1, h.outer.inserts)
	assert.Len(t, h.blobs.puts, 1)
	assert.Empty(t, h.drafts.drafts)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, reg.ID, h.notifier.sent[0].ID)
}

func TestOuterSubmitInvalidFormDoesNoIO(t *testing.T) {
	h := newHarness()
	form := janeForm()
	form.Phone = "98765"

	_, err := h.svc.Outer.Submit(context.Background(), form)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "phone")
	assert.Zero(t, h.settings.fetches)
	assert.Empty(t, h.drafts.drafts)
}

func TestOuterSubmitGated(t *testing.T) {
	h := newHarness()
	fill(h.outer, 300)

	_, err := h.svc.Outer.Submit(context.Background(), janeForm())
	assert.Equal(t, ReasonFull, closedReason(t, err))
	assert.Empty(t, h.drafts.drafts)
}

func TestOuterSubmitDraftFailure(t *testing.T) {
	h := newHarness()
	h.drafts.saveErr = errStoreDown

	_, err := h.svc.Outer.Submit(context.Background(), janeForm())
	var remote *storage.RemoteError
	assert.ErrorAs(t, err, &remote)
}

func TestUploadProofRejectsLocally(t *testing.T) {
	tests := map[string]Upload{
		"oversize declared": pngUpload(5*1024*1024 + 1),
		"oversize actual": {
			ContentType: "image/png",
			Size:        10,
			Body:        bytes.NewReader(append(append([]byte{}, pngSignature...), make([]byte, 5*1024*1024)...)),
		},
		"pdf declared": {ContentType: "application/pdf", Size: 10, Body: strings.NewReader("%PDF-1.4 hello")},
		"text sniffed": {ContentType: "image/png", Size: 5, Body: strings.NewReader("hello")},
		"empty":        {ContentType: "image/png", Size: 0, Body: strings.NewReader("")},
		"no body":      {ContentType: "image/png"},
	}

	for name, up := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			step, err := h.svc.Outer.Submit(context.Background(), janeForm())
			require.NoError(t, err)

			_, err = h.svc.Outer.UploadProof(context.Background(), step.DraftToken, up)

			var uve *UploadValidationError
			require.ErrorAs(t, err, &uve)
			assert.Empty(t, h.blobs.puts)
			assert.Zero(t, h.outer.inserts)
			assert.Len(t, h.drafts.drafts, 1)
		})
	}
}

func TestUploadProofUnknownDraft(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Outer.UploadProof(context.Background(), "b8f2ad2e-1e7c-4c38-9b0c-0f6f2d7d4a11", pngUpload(1024))
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Empty(t, h.blobs.puts)
}

func TestUploadProofInsertFailureKeepsDraft(t *testing.T) {
	h := newHarness()
	step, err := h.svc.Outer.Submit(context.Background(), janeForm())
	require.NoError(t, err)

	h.outer.insertErr = errStoreDown
	_, err = h.svc.Outer.UploadProof(context.Background(), step.DraftToken, pngUpload(1024))

	var remote *storage.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Len(t, h.blobs.puts, 1, "blob stays behind for the janitor")
	assert.Contains(t, h.drafts.drafts, step.DraftToken)
	assert.Empty(t, h.notifier.sent)

	h.outer.insertErr = nil
	_, err = h.svc.Outer.UploadProof(context.Background(), step.DraftToken, pngUpload(1024))
	require.NoError(t, err)
	assert.Equal(t, 1, h.outer.inserts)
}

func TestUploadProofBlobFailure(t *testing.T) {
	h := newHarness()
	step, err := h.svc.Outer.Submit(context.Background(), janeForm())
	require.NoError(t, err)

	h.blobs.err = errStoreDown
	_, err = h.svc.Outer.UploadProof(context.Background(), step.DraftToken, pngUpload(1024))

	var remote *storage.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Zero(t, h.outer.inserts)
	assert.Contains(t, h.drafts.drafts, step.DraftToken)
}

func TestUploadProofNotifierFailureIsIgnored(t *testing.T) {
	h := newHarness()
	h.notifier.err = errStoreDown
	step, err := h.svc.Outer.Submit(context.Background(), janeForm())
	require.NoError(t, err)

	_, err = h.svc.Outer.UploadProof(context.Background(), step.DraftToken, pngUpload(1024))
	assert.NoError(t, err)
}

func TestUploadProofRechecksGate(t *testing.T) {
	tests := map[string]struct {
		change func(h *harness)
		check  func(t *testing.T, err error)
	}{
		"closed by admin": {
			change: func(h *harness) { h.settings.snap.RegistrationOpen = false },
			check:  func(t *testing.T, err error) { assert.Equal(t, ReasonClosed, closedReason(t, err)) },
		},
		"limit reached": {
			change: func(h *harness) { fill(h.outer, 300) },
			check:  func(t *testing.T, err error) { assert.Equal(t, ReasonFull, closedReason(t, err)) },
		},
		"maintenance": {
			change: func(h *harness) { h.settings.snap.MaintenanceMode = true },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMaintenance) },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			step, err := h.svc.Outer.Submit(context.Background(), janeForm())
			require.NoError(t, err)

			tt.change(h)
			_, err = h.svc.Outer.UploadProof(context.Background(), step.DraftToken, pngUpload(1024))

			tt.check(t, err)
			assert.Empty(t, h.blobs.puts)
			assert.Zero(t, h.outer.inserts)
			assert.Empty(t, h.notifier.sent)
			assert.Contains(t, h.drafts.drafts, step.DraftToken)
		})
	}
}
