package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// Postgres holds the connection pool backing the three registration tables
type Postgres struct {
	pool       *pgxpool.Pool
	outer      *collection[models.OuterRegistration]
	inter      *collection[models.InterRegistration]
	department *collection[models.DepartmentRegistration]
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgres creates the connection pool and the per-table collections
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{
		pool:       pool,
		outer:      &collection[models.OuterRegistration]{pool: pool, schema: outerSchema},
		inter:      &collection[models.InterRegistration]{pool: pool, schema: interSchema},
		department: &collection[models.DepartmentRegistration]{pool: pool, schema: departmentSchema},
	}, nil
}

// Outer returns the outer-college collection
func (p *Postgres) Outer() OuterCollection { return p.outer }

// Inter returns the inter-college collection
func (p *Postgres) Inter() InterCollection { return p.inter }

// Department returns the department collection
func (p *Postgres) Department() DepartmentCollection { return p.department }

// Ping checks database connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// PaymentScreenshotURLs returns every proof URL referenced by a registration row
func (p *Postgres) PaymentScreenshotURLs(ctx context.Context) (map[string]bool, error) {
	query := `
		SELECT payment_screenshot_url FROM registrations WHERE payment_screenshot_url <> ''
		UNION
		SELECT payment_screenshot_url FROM intercollege_registrations WHERE payment_screenshot_url <> ''
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list proof urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan proof url: %w", err)
		}
		urls[u] = true
	}
	return urls, rows.Err()
}

// collection implements Collection over one table described by a schema
type collection[T any] struct {
	pool   *pgxpool.Pool
	schema schema[T]
}

func (c *collection[T]) selectList() string {
	return "id::text, created_at, " + strings.Join(c.schema.columns, ", ")
}

// Count returns the number of rows in the table
func (c *collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, c.schema.table)
	if err := c.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.schema.table, err)
	}
	return n, nil
}

// FindDuplicate returns the row sharing email, phone or register number,
// preferring an email match and then the oldest row
func (c *collection[T]) FindDuplicate(ctx context.Context, crit DuplicateCriteria) (*T, error) {
	query, args := c.schema.duplicateQuery(c.selectList(), crit)
	if query == "" {
		return nil, nil
	}
	return c.queryOne(ctx, query, args...)
}

// FindByEmail returns the oldest row with the given email
func (c *collection[T]) FindByEmail(ctx context.Context, email string) (*T, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(email) = lower($1) ORDER BY created_at ASC LIMIT 1`,
		c.selectList(), c.schema.table)

	return c.queryOne(ctx, query, email)
}

// Get retrieves a row by ID
func (c *collection[T]) Get(ctx context.Context, id string) (*T, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, c.selectList(), c.schema.table)

	rec, err := c.queryOne(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (c *collection[T]) queryOne(ctx context.Context, query string, args ...any) (*T, error) {
	rec, err := c.schema.scan(c.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query %s: %w", c.schema.table, err)
	}
	return rec, nil
}

// Insert appends a row; the store assigns id and created_at
func (c *collection[T]) Insert(ctx context.Context, rec *T) error {
	placeholders := make([]string, len(c.schema.columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id::text, created_at`,
		c.schema.table, strings.Join(c.schema.columns, ", "), strings.Join(placeholders, ", "))

	var id string
	var createdAt time.Time
	if err := c.pool.QueryRow(ctx, query, c.schema.values(rec)...).Scan(&id, &createdAt); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.schema.table, err)
	}

	c.schema.assign(rec, id, createdAt)
	return nil
}

// Update applies a partial patch to one row
func (c *collection[T]) Update(ctx context.Context, id string, patch Patch) error {
	query, args, err := c.schema.updateStatement(id, patch)
	if err != nil {
		return err
	}

	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	result, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.schema.table, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one row
func (c *collection[T]) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.schema.table)

	result, err := c.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.schema.table, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every row, newest first
func (c *collection[T]) List(ctx context.Context) ([]*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, c.selectList(), c.schema.table)

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.schema.table, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		rec, err := c.schema.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.schema.table, err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", c.schema.table, err)
	}
	return out, nil
}
