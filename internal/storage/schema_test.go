package storage

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateClause(t *testing.T) {
	where, args := interSchema.duplicateClause(DuplicateCriteria{
		Email:          "ravi@college.edu",
		RegisterNumber: "21CS042",
	})
	assert.Equal(t, "lower(email) = lower($1) OR register_number = $2", where)
	assert.Equal(t, []any{"ravi@college.edu", "21CS042"}, args)

	where, args = outerSchema.duplicateClause(DuplicateCriteria{RegisterNumber: "21CS042"})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestDuplicateQueryRanksEmailFirst(t *testing.T) {
	query, args := interSchema.duplicateQuery("id::text", DuplicateCriteria{
		Email:          "ravi@college.edu",
		RegisterNumber: "21CS042",
	})
	assert.Equal(t,
		"SELECT id::text FROM intercollege_registrations WHERE lower(email) = lower($1) OR register_number = $2 "+
			"ORDER BY (lower(email) = lower($3)) DESC, created_at ASC LIMIT 1",
		query)
	assert.Equal(t, []any{"ravi@college.edu", "21CS042", "ravi@college.edu"}, args)

	query, args = interSchema.duplicateQuery("id::text", DuplicateCriteria{RegisterNumber: "21CS042"})
	assert.Equal(t, "SELECT id::text FROM intercollege_registrations WHERE register_number = $1 ORDER BY created_at ASC LIMIT 1", query)
	assert.Equal(t, []any{"21CS042"}, args)

	query, _ = outerSchema.duplicateQuery("id::text", DuplicateCriteria{})
	assert.Empty(t, query)
}

func TestUpdateStatement(t *testing.T) {
	query, args, err := interSchema.updateStatement("id-1", Patch{
		Name:            ptr("Ravi K"),
		SelectedEvents:  []string{"tech-quiz"},
		PaymentVerified: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE intercollege_registrations SET name = $2, selected_events = $3, payment_verified = $4 WHERE id = $1",
		query)
	assert.Equal(t, []any{"id-1", "Ravi K", []string{"tech-quiz"}, true}, args)
}

func TestUpdateStatementUnsupportedField(t *testing.T) {
	_, _, err := departmentSchema.updateStatement("id-1", Patch{PaymentVerified: ptr(true)})
	assert.ErrorIs(t, err, ErrUnsupportedField)

	_, _, err = outerSchema.updateStatement("id-1", Patch{SelectedEvents: []string{}})
	assert.ErrorIs(t, err, ErrUnsupportedField)
}

func TestUpdateStatementEmptyPatch(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	_, _, err := outerSchema.updateStatement("id-1", Patch{})
	assert.Error(t, err)
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_more.sql":  {Data: []byte("SELECT 1")},
		"001_init.sql":  {Data: []byte("SELECT 1")},
		"README.md":     {Data: []byte("notes")},
		"003_later.sql": {Data: []byte("SELECT 1")},
	}

	pending, err := PendingMigrations(fsys, map[string]bool{"001_init.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_more.sql", "003_later.sql"}, pending)
}

func TestEmbeddedMigrations(t *testing.T) {
	pending, err := PendingMigrations(Migrations(), nil)
	require.NoError(t, err)
	assert.Contains(t, pending, "001_init.sql")
}

func ptr[T any](v T) *T {
	return &v
}
