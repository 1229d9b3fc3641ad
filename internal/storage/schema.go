package storage

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// schema describes how one registration type maps onto its table.
// columns excludes id and created_at, which the database assigns.
type schema[T any] struct {
	table     string
	columns   []string
	patchable map[string]bool
	// duplicate lists the identity columns this table has, among email, phone and register_number
	duplicate []string
	values    func(rec *T) []any
	scan      func(row pgx.Row) (*T, error)
	assign    func(rec *T, id string, createdAt time.Time)
}

func columnSet(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// duplicateClause builds "email = $1 OR phone = $2 ..." for the non-empty criteria
func (s schema[T]) duplicateClause(c DuplicateCriteria) (string, []any) {
	values := map[string]string{
		"email":           strings.TrimSpace(c.Email),
		"phone":           strings.TrimSpace(c.Phone),
		"register_number": strings.TrimSpace(c.RegisterNumber),
	}

	var conds []string
	var args []any
	for _, col := range s.duplicate {
		v := values[col]
		if v == "" {
			continue
		}
		args = append(args, v)
		if col == "email" {
			conds = append(conds, fmt.Sprintf("lower(email) = lower($%d)", len(args)))
		} else {
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	return strings.Join(conds, " OR "), args
}

// duplicateQuery selects the row a replace should overwrite. Email matches
// rank first so a replace never leaves two rows with the same email; ties go
// to the oldest row.
func (s schema[T]) duplicateQuery(selectList string, c DuplicateCriteria) (string, []any) {
	where, args := s.duplicateClause(c)
	if where == "" {
		return "", nil
	}

	order := "created_at ASC"
	if email := strings.TrimSpace(c.Email); email != "" && slices.Contains(s.duplicate, "email") {
		args = append(args, email)
		order = fmt.Sprintf("(lower(email) = lower($%d)) DESC, created_at ASC", len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT 1`,
		selectList, s.table, where, order)
	return query, args
}

// updateStatement builds the UPDATE for a patch; $1 is always the row id
func (s schema[T]) updateStatement(id string, p Patch) (string, []any, error) {
	if p.IsEmpty() {
		return "", nil, fmt.Errorf("empty patch")
	}
	fields := p.fields()

	sets := make([]string, 0, len(fields))
	args := []any{id}
	for _, f := range fields {
		if !s.patchable[f.column] {
			return "", nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedField, f.column, s.table)
		}
		args = append(args, f.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`, s.table, strings.Join(sets, ", "))
	return query, args, nil
}

func nonNilEvents(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var outerColumns = []string{
	"name", "email", "phone", "year", "college_name", "department",
	"payment_screenshot_url", "payment_verified", "entry_confirmed",
}

var outerSchema = schema[models.OuterRegistration]{
	table:     "registrations",
	columns:   outerColumns,
	patchable: columnSet(outerColumns...),
	// outer registrants are not de-duplicated, but the lookup still matches on email
	duplicate: []string{"email", "phone"},
	values: func(r *models.OuterRegistration) []any {
		return []any{r.Name, r.Email, r.Phone, r.Year, r.CollegeName, r.Department,
			r.PaymentScreenshotURL, r.PaymentVerified, r.EntryConfirmed}
	},
	scan: func(row pgx.Row) (*models.OuterRegistration, error) {
		var r models.OuterRegistration
		err := row.Scan(&r.ID, &r.CreatedAt, &r.Name, &r.Email, &r.Phone, &r.Year,
			&r.CollegeName, &r.Department, &r.PaymentScreenshotURL, &r.PaymentVerified, &r.EntryConfirmed)
		if err != nil {
			return nil, err
		}
		return &r, nil
	},
	assign: func(r *models.OuterRegistration, id string, createdAt time.Time) {
		r.ID, r.CreatedAt = id, createdAt
	},
}

var interColumns = []string{
	"name", "email", "phone", "year", "register_number", "department", "selected_events",
	"payment_screenshot_url", "payment_verified", "entry_confirmed",
}

var interSchema = schema[models.InterRegistration]{
	table:     "intercollege_registrations",
	columns:   interColumns,
	patchable: columnSet(interColumns...),
	duplicate: []string{"email", "phone", "register_number"},
	values: func(r *models.InterRegistration) []any {
		return []any{r.Name, r.Email, r.Phone, r.Year, r.RegisterNumber, r.Department,
			nonNilEvents(r.SelectedEvents), r.PaymentScreenshotURL, r.PaymentVerified, r.EntryConfirmed}
	},
	scan: func(row pgx.Row) (*models.InterRegistration, error) {
		var r models.InterRegistration
		err := row.Scan(&r.ID, &r.CreatedAt, &r.Name, &r.Email, &r.Phone, &r.Year,
			&r.RegisterNumber, &r.Department, &r.SelectedEvents,
			&r.PaymentScreenshotURL, &r.PaymentVerified, &r.EntryConfirmed)
		if err != nil {
			return nil, err
		}
		return &r, nil
	},
	assign: func(r *models.InterRegistration, id string, createdAt time.Time) {
		r.ID, r.CreatedAt = id, createdAt
	},
}

var departmentColumns = []string{
	"name", "email", "phone", "year", "register_number", "section", "selected_events",
}

var departmentSchema = schema[models.DepartmentRegistration]{
	table:     "department_registrations",
	columns:   departmentColumns,
	patchable: columnSet(departmentColumns...),
	duplicate: []string{"email", "phone", "register_number"},
	values: func(r *models.DepartmentRegistration) []any {
		return []any{r.Name, r.Email, r.Phone, r.Year, r.RegisterNumber, r.Section,
			nonNilEvents(r.SelectedEvents)}
	},
	scan: func(row pgx.Row) (*models.DepartmentRegistration, error) {
		var r models.DepartmentRegistration
		err := row.Scan(&r.ID, &r.CreatedAt, &r.Name, &r.Email, &r.Phone, &r.Year,
			&r.RegisterNumber, &r.Section, &r.SelectedEvents)
		if err != nil {
			return nil, err
		}
		return &r, nil
	},
	assign: func(r *models.DepartmentRegistration, id string, createdAt time.Time) {
		r.ID, r.CreatedAt = id, createdAt
	},
}
