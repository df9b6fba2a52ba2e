package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	pkgch "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/clickhouse"
)

const chInsertChunk = 2000

// ClickHouseTable keeps the observation table in a MergeTree table. Save builds
// a full copy in a staging table and swaps it in with EXCHANGE TABLES, so
// readers see either the old or the new table.
type ClickHouseTable struct {
	client   *pkgch.Client
	database string
	table    string
}

var _ repository.ObservationTable = (*ClickHouseTable)(nil)

func NewClickHouseTable(ctx context.Context, client *pkgch.Client, database, table string) (*ClickHouseTable, error) {
	if err := checkIdent(database, table); err != nil {
		return nil, err
	}
	t := &ClickHouseTable{client: client, database: database, table: table}
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		t.createStmt(t.qualified()),
	}); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ClickHouseTable) qualified() string { return t.database + "." + t.table }

func (t *ClickHouseTable) staging() string { return t.database + "." + t.table + "_staging" }

func (t *ClickHouseTable) createStmt(name string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (date Date, price_lag1 Float64, price_lag2 Float64, price_today Float64) ENGINE = MergeTree ORDER BY date", name)
}

func (t *ClickHouseTable) Load(ctx context.Context) ([]models.Observation, error) {
	q := fmt.Sprintf("SELECT date, price_lag1, price_lag2, price_today FROM %s ORDER BY date", t.qualified())
	rows, err := t.client.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			o  models.Observation
			ts time.Time
		)
		if err := rows.Scan(&ts, &o.PriceLag1, &o.PriceLag2, &o.PriceToday); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}
		y, m, d := ts.Date()
		o.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (t *ClickHouseTable) Save(ctx context.Context, rows []models.Observation) error {
	db := t.client.DB()
	staging := t.staging()

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return fmt.Errorf("clickhouse drop staging: %w", err)
	}
	if _, err := db.ExecContext(ctx, t.createStmt(staging)); err != nil {
		return fmt.Errorf("clickhouse create staging: %w", err)
	}

	for start := 0; start < len(rows); start += chInsertChunk {
		end := min(start+chInsertChunk, len(rows))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, o := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, o.Date, o.PriceLag1, o.PriceLag2, o.PriceToday)
		}
		q := fmt.Sprintf("INSERT INTO %s (date, price_lag1, price_lag2, price_today) VALUES %s", staging, strings.Join(values, ","))
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("clickhouse insert: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("EXCHANGE TABLES %s AND %s", staging, t.qualified())); err != nil {
		return fmt.Errorf("clickhouse exchange: %w", err)
	}
	// the swap already happened; a leftover staging table is dropped by the next Save
	_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging)
	return nil
}

func (t *ClickHouseTable) Health(ctx context.Context) error {
	return t.client.Health(ctx)
}

// Close is a no-op; the client is shared and closed by its owner.
func (t *ClickHouseTable) Close() error { return nil }
