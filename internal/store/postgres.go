package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/logging"
)

// Postgres reads cases from the CRUD layer's PostgreSQL schema: a cases
// table whose data column holds the scalar fields as JSON, plus one table
// per child collection keyed by case_id.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenPostgres connects to dsn and verifies the connection
func OpenPostgres(ctx context.Context, dsn string, maxConns int, logger *zap.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgres(db, logger), nil
}

// NewPostgres wraps an open database
func NewPostgres(db *sql.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, logger: logging.OrNop(logger)}
}

// Close closes the underlying database
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

const caseQuery = `SELECT data, checklist, updated_at FROM cases WHERE id = $1`

// Get loads the case row, then all child collections concurrently. The case
// is only returned once every collection has been read.
func (p *Postgres) Get(ctx context.Context, id string) (casefile.Case, error) {
	var (
		data      []byte
		checklist sql.NullString
		updatedAt sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, caseQuery, id).Scan(&data, &checklist, &updatedAt)
	if err == sql.ErrNoRows {
		return casefile.Case{}, notFound(id)
	}
	if err != nil {
		return casefile.Case{}, fmt.Errorf("failed to query case %s: %w", id, err)
	}

	payload := casefile.Record{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return casefile.Case{}, fmt.Errorf("failed to decode case %s data: %w", id, err)
		}
	}
	payload["id"] = id
	if checklist.Valid {
		payload["checklist"] = checklist.String
	}
	if updatedAt.Valid {
		payload["updated_at"] = updatedAt.Time.UTC().Format(time.RFC3339)
	}

	children := make([][]any, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range collections {
		g.Go(func() error {
			rows, err := p.childRows(gctx, col, id)
			if err != nil {
				return err
			}
			children[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return casefile.Case{}, err
	}
	// Queried rows replace whatever copy the case data carries under either key.
	for i, col := range collections {
		delete(payload, col.camelKey)
		payload[col.key] = children[i]
	}
	return casefile.DecodeCase(payload), nil
}

// childRows reads one collection. Rows that cannot be scanned or carry no
// values at all are skipped.
func (p *Postgres) childRows(ctx context.Context, col collection, id string) ([]any, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE case_id = $1 ORDER BY id`,
		strings.Join(col.columns, ", "), col.table)
	rows, err := p.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for case %s: %w", col.table, id, err)
	}
	defer rows.Close()

	var out []any
	values := make([]sql.NullString, len(col.columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			p.logger.Warn("skipping unreadable row",
				zap.String("table", col.table),
				zap.String("case_id", id),
				zap.Error(err))
			continue
		}
		row := make(map[string]any, len(col.columns))
		for i, name := range col.columns {
			if values[i].Valid && strings.TrimSpace(values[i].String) != "" {
				row[name] = values[i].String
			}
		}
		if len(row) == 0 {
			p.logger.Debug("skipping empty row", zap.String("table", col.table), zap.String("case_id", id))
			continue
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s for case %s: %w", col.table, id, err)
	}
	return out, nil
}
