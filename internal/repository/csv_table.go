package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/models"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/repository"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/util"
)

var csvHeader = []string{"date", "price_lag1", "price_lag2", "price_today"}

// CSVTable keeps the observation table in a single CSV file. A missing file is
// an empty table. Save writes a temp file next to the target and renames it.
type CSVTable struct {
	path string
}

var _ repository.ObservationTable = (*CSVTable)(nil)

func NewCSVTable(path string) *CSVTable {
	return &CSVTable{path: path}
}

func (t *CSVTable) Path() string { return t.path }

func (t *CSVTable) Load(ctx context.Context) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []models.Observation
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func (t *CSVTable) Save(ctx context.Context, rows []models.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{
			row.DateString(),
			formatFloat(row.PriceLag1),
			formatFloat(row.PriceLag2),
			formatFloat(row.PriceToday),
		}); err != nil {
			tmp.Close()
			return fmt.Errorf("write row %s: %w", row.DateString(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}

// Health reports whether the file (if present) can be opened.
func (t *CSVTable) Health(context.Context) error {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func (t *CSVTable) Close() error { return nil }

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, col := range csvHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return idx, nil
}

func parseRecord(rec []string, idx map[string]int) (models.Observation, error) {
	var row models.Observation
	get := func(col string) (string, error) {
		i := idx[col]
		if i >= len(rec) {
			return "", fmt.Errorf("missing value for %s", col)
		}
		return rec[i], nil
	}

	s, err := get("date")
	if err != nil {
		return row, err
	}
	if row.Date, err = util.ParseDate(s); err != nil {
		return row, err
	}
	for col, dst := range map[string]*float64{
		"price_lag1":  &row.PriceLag1,
		"price_lag2":  &row.PriceLag2,
		"price_today": &row.PriceToday,
	} {
		s, err := get(col)
		if err != nil {
			return row, err
		}
		if *dst, err = strconv.ParseFloat(s, 64); err != nil {
			return row, fmt.Errorf("%s: %w", col, err)
		}
	}
	return row, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
