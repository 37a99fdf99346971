// Package csvfile stores the known-players registry in the CSV layout the
// original data file uses, header included. The file stays hand-editable;
// every write goes through a temp file and rename.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
)

var header = []string{"ESL id", "LP name", "LP link", "race", "flag", "notable"}

type Repository struct {
	path   string
	logger *observability.Logger
}

func NewRepository(path string, logger *observability.Logger) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("csv registry path is empty")
	}
	return &Repository{path: path, logger: logger}, nil
}

func (r *Repository) LoadAll(ctx context.Context) ([]players.KnownPlayer, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	if !isHeader(records[0]) {
		return nil, fmt.Errorf("registry %s has no header row", r.path)
	}

	rows := make([]players.KnownPlayer, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("registry %s line %d: %w", r.path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Repository) Upsert(ctx context.Context, p players.KnownPlayer) (bool, bool, error) {
	rows, err := r.LoadAll(ctx)
	if err != nil {
		return false, false, err
	}

	for i, row := range rows {
		if row.ESLID != p.ESLID {
			continue
		}
		if row == p {
			return false, false, nil
		}
		rows[i] = p
		if err := r.writeAll(rows); err != nil {
			return false, false, err
		}
		return false, true, nil
	}

	rows = append(rows, p)
	if err := r.writeAll(rows); err != nil {
		return false, false, err
	}
	return true, false, nil
}

func (r *Repository) DuplicateIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]int)
	var dupes []int64
	for _, row := range rows {
		seen[row.ESLID]++
		if seen[row.ESLID] == 2 {
			dupes = append(dupes, row.ESLID)
		}
	}
	return dupes, nil
}

func (r *Repository) SortedRows(ctx context.Context) ([]players.KnownPlayer, error) {
	rows, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	sortRows(rows)
	return rows, nil
}

// Rewrite replaces the whole registry, used by the sort command.
func (r *Repository) Rewrite(ctx context.Context, rows []players.KnownPlayer) error {
	return r.writeAll(rows)
}

func (r *Repository) Close() error { return nil }

func sortRows(rows []players.KnownPlayer) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Notable != rows[j].Notable {
			return rows[i].Notable
		}
		return rows[i].LPName < rows[j].LPName
	})
}

func (r *Repository) writeAll(rows []players.KnownPlayer) error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registry-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp registry: %w", err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	writeErr := writer.Write(header)
	for _, row := range rows {
		if writeErr != nil {
			break
		}
		writeErr = writer.Write(formatRow(row))
	}
	writer.Flush()
	if writeErr == nil {
		writeErr = writer.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write registry: %w", writeErr)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

func isHeader(record []string) bool {
	return len(record) == len(header) && strings.EqualFold(record[0], header[0])
}

func parseRow(record []string) (players.KnownPlayer, error) {
	if len(record) != len(header) {
		return players.KnownPlayer{}, fmt.Errorf("expected %d fields, got %d", len(header), len(record))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return players.KnownPlayer{}, fmt.Errorf("bad ESL id %q: %w", record[0], err)
	}
	notable, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil || (notable != 0 && notable != 1) {
		return players.KnownPlayer{}, fmt.Errorf("bad notable value %q", record[5])
	}

	return players.KnownPlayer{
		ESLID:   id,
		LPName:  record[1],
		LPLink:  record[2],
		Race:    record[3],
		Flag:    record[4],
		Notable: notable == 1,
	}, nil
}

func formatRow(p players.KnownPlayer) []string {
	notable := "0"
	if p.Notable {
		notable = "1"
	}
	return []string{
		strconv.FormatInt(p.ESLID, 10),
		p.LPName,
		p.LPLink,
		p.Race,
		p.Flag,
		notable,
	}
}
