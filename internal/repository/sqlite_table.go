package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/util"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteTable stores observations in a single SQLite table keyed by date.
type SQLiteTable struct {
	db    *sql.DB
	table string
}

var _ repository.ObservationTable = (*SQLiteTable)(nil)

// NewSQLiteTable opens (creating if needed) the database file and table.
func NewSQLiteTable(ctx context.Context, path, table string) (*SQLiteTable, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one writer at a time; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		date        TEXT PRIMARY KEY,
		price_lag1  REAL NOT NULL,
		price_lag2  REAL NOT NULL,
		price_today REAL NOT NULL
	)`, table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteTable{db: db, table: table}, nil
}

func (t *SQLiteTable) Load(ctx context.Context) ([]models.Observation, error) {
	q := fmt.Sprintf("SELECT date, price_lag1, price_lag2, price_today FROM %s ORDER BY date", t.table)
	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			o    models.Observation
			date string
		)
		if err := rows.Scan(&date, &o.PriceLag1, &o.PriceLag2, &o.PriceToday); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		if o.Date, err = util.ParseDate(date); err != nil {
			return nil, fmt.Errorf("sqlite row %q: %w", date, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save replaces the table contents in one transaction.
func (t *SQLiteTable) Save(ctx context.Context, rows []models.Observation) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", t.table)); err != nil {
		return fmt.Errorf("sqlite clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (date, price_lag1, price_lag2, price_today) VALUES (?, ?, ?, ?)", t.table))
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range rows {
		if _, err := stmt.ExecContext(ctx, o.DateString(), o.PriceLag1, o.PriceLag2, o.PriceToday); err != nil {
			return fmt.Errorf("sqlite insert %s: %w", o.DateString(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

func (t *SQLiteTable) Health(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *SQLiteTable) Close() error {
	return t.db.Close()
}
