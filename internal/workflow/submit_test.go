package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

func interForm() models.InterForm {
	return models.InterForm{
		Name:           "Ravi Kumar",
		Email:          "a@b.com",
		Phone:          "9123456780",
		Year:           "3",
		RegisterNumber: "21CS042",
		Department:     "cse",
		SelectedEvents: []string{"tech-quiz", "connexions"},
	}
}

func departmentForm() models.DepartmentForm {
	return models.DepartmentForm{
		Name:           "Meena",
		Email:          "meena@college.edu",
		Phone:          "9000000001",
		Year:           "1",
		RegisterNumber: "24CS101",
		Section:        "c",
		SelectedEvents: []string{"web-design"},
	}
}

func existingInter() *models.InterRegistration {
	return &models.InterRegistration{
		ID:              "row-1",
		Name:            "Ravi",
		Email:           "a@b.com",
		Phone:           "9999999999",
		Year:            "2",
		RegisterNumber:  "20CS001",
		Department:      "ECE",
		SelectedEvents:  []string{"paper-presentation"},
		PaymentVerified: true,
	}
}

func countEmail(rows []*models.InterRegistration, email string) int {
	n := 0
	for _, r := range rows {
		if r.Email == email {
			n++
		}
	}
	return n
}

func TestInterSubmitInsert(t *testing.T) {
	h := newHarness()

	conf, err := h.svc.Inter.Submit(context.Background(), interForm(), false)
	require.NoError(t, err)

	assert.False(t, conf.Replaced)
	assert.Equal(t, "CSE", conf.Registration.Department)
	assert.Equal(t, []string{"tech-quiz", "connexions"}, conf.Registration.SelectedEvents)
	assert.Equal(t, 1, h.inter.inserts)
}

func TestInterDuplicateCancel(t *testing.T) {
	h := newHarness()
	h.inter.rows = []*models.InterRegistration{existingInter()}

	_, err := h.svc.Inter.Submit(context.Background(), interForm(), false)

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "row-1", dup.Existing.ID)
	assert.Zero(t, h.inter.inserts)
	assert.Empty(t, h.inter.patches)
	assert.Len(t, h.inter.rows, 1)
}

func TestInterDuplicateReplace(t *testing.T) {
	h := newHarness()
	h.inter.rows = []*models.InterRegistration{existingInter()}

	conf, err := h.svc.Inter.Submit(context.Background(), interForm(), true)
	require.NoError(t, err)

	assert.True(t, conf.Replaced)
	assert.Equal(t, "row-1", conf.Registration.ID)
	assert.True(t, conf.Registration.PaymentVerified, "store-owned flags survive a replace")
	assert.Equal(t, "Ravi Kumar", conf.Registration.Name)

	assert.Zero(t, h.inter.inserts)
	require.Len(t, h.inter.patches, 1)
	assert.Equal(t, []string{"tech-quiz", "connexions"}, h.inter.patches[0].SelectedEvents)
	assert.Nil(t, h.inter.patches[0].PaymentVerified)
	assert.Equal(t, 1, countEmail(h.inter.rows, "a@b.com"))
}

func TestInterDuplicateByRegisterNumber(t *testing.T) {
	h := newHarness()
	existing := existingInter()
	existing.Email = "other@b.com"
	existing.RegisterNumber = "21CS042"
	h.inter.rows = []*models.InterRegistration{existing}

	_, err := h.svc.Inter.Submit(context.Background(), interForm(), false)
	var dup *DuplicateError
	assert.ErrorAs(t, err, &dup)
}

func TestInterReplacePrefersEmailMatch(t *testing.T) {
	h := newHarness()
	byRegno := existingInter()
	byRegno.ID = "row-old"
	byRegno.Email = "other@b.com"
	byRegno.Phone = "9888888888"
	byRegno.RegisterNumber = "21CS042"
	byEmail := existingInter()
	byEmail.ID = "row-new"
	h.inter.rows = []*models.InterRegistration{byRegno, byEmail}

	conf, err := h.svc.Inter.Submit(context.Background(), interForm(), true)
	require.NoError(t, err)

	assert.Equal(t, "row-new", conf.Registration.ID)
	assert.Equal(t, []string{"row-new"}, h.inter.updated)
	assert.Zero(t, h.inter.inserts)
}

func TestInterReplaceIgnoresFull(t *testing.T) {
	h := newHarness()
	h.settings.snap.InterCollegeLimit = 1
	h.inter.rows = []*models.InterRegistration{existingInter()}

	_, err := h.svc.Inter.Submit(context.Background(), interForm(), true)
	require.NoError(t, err)

	form := interForm()
	form.Email, form.Phone, form.RegisterNumber = "new@b.com", "9000000000", "22CS100"
	_, err = h.svc.Inter.Submit(context.Background(), form, false)
	assert.Equal(t, ReasonFull, closedReason(t, err))
}

func TestInterValidationBeforeIO(t *testing.T) {
	h := newHarness()
	form := interForm()
	form.Department = "MBA"
	form.SelectedEvents = []string{"paper-presentation", "code-debugging", "web-design", "tech-quiz", "connexions"}

	_, err := h.svc.Inter.Submit(context.Background(), form, false)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"department", "selected_events"}, ve.Fields.Fields())
	assert.Zero(t, h.settings.fetches)
}

func TestInterClosedEvent(t *testing.T) {
	h := newHarness()
	h.settings.snap.RegistrationClosedEvents = map[string]bool{"connexions": true}

	_, err := h.svc.Inter.Submit(context.Background(), interForm(), false)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["selected_events"], "connexions")
	assert.Zero(t, h.inter.inserts)
}

func TestInterGateClosed(t *testing.T) {
	h := newHarness()
	h.settings.snap.RegistrationOpen = false

	_, err := h.svc.Inter.Submit(context.Background(), interForm(), false)
	assert.Equal(t, ReasonClosed, closedReason(t, err))
}

func TestInterRemoteFailures(t *testing.T) {
	h := newHarness()
	h.inter.findErr = errStoreDown
	_, err := h.svc.Inter.Submit(context.Background(), interForm(), false)
	var remote *storage.RemoteError
	assert.ErrorAs(t, err, &remote)

	h = newHarness()
	h.inter.insertErr = errStoreDown
	_, err = h.svc.Inter.Submit(context.Background(), interForm(), false)
	assert.ErrorAs(t, err, &remote)
}

func TestDepartmentSubmit(t *testing.T) {
	h := newHarness()

	conf, err := h.svc.Department.Submit(context.Background(), departmentForm(), false)
	require.NoError(t, err)

	assert.Equal(t, models.VariantDepartment, conf.Registration.Variant)
	assert.Equal(t, "C", conf.Registration.Section)
	assert.True(t, conf.Registration.PaymentVerified)
	assert.False(t, conf.Registration.EntryConfirmed)
	assert.Equal(t, 1, h.department.inserts)

	_, err = h.svc.Department.Submit(context.Background(), departmentForm(), false)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)

	conf, err = h.svc.Department.Submit(context.Background(), departmentForm(), true)
	require.NoError(t, err)
	assert.True(t, conf.Replaced)
	assert.Equal(t, 1, h.department.inserts)
	assert.Nil(t, h.department.patches[0].PaymentVerified)
}

func TestDepartmentFull(t *testing.T) {
	h := newHarness()
	h.settings.snap.DepartmentLimit = 3
	fill(h.department, 3)

	require.Error(t, h.svc.Department.Begin(context.Background()))
	_, err := h.svc.Department.Submit(context.Background(), departmentForm(), false)
	assert.Equal(t, ReasonFull, closedReason(t, err))
}
