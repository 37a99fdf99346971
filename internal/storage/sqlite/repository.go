// Package sqlite stores the known-players registry in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Steap/liquipedia-scripts/internal/checksum"
	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
)

const schema = `
CREATE TABLE IF NOT EXISTS known_players (
	esl_id   INTEGER PRIMARY KEY,
	lp_name  TEXT NOT NULL,
	lp_link  TEXT NOT NULL DEFAULT '',
	race     TEXT NOT NULL DEFAULT '',
	flag     TEXT NOT NULL DEFAULT '',
	notable  INTEGER NOT NULL DEFAULT 0,
	checksum TEXT NOT NULL
);
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	checksums      *checksum.Generator
	logger         *observability.Logger
}

func NewRepository(path string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		checksums:      checksum.NewGenerator(),
		logger:         logger,
	}, nil
}

func (r *Repository) LoadAll(ctx context.Context) ([]players.KnownPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT esl_id, lp_name, lp_link, race, flag, notable FROM known_players ORDER BY esl_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err.Error())
		}
	}()

	return scanRows(rows)
}

// Upsert writes a row. The stored checksum decides between new, updated and
// unchanged, so repeated imports of the same CSV are no-ops.
func (r *Repository) Upsert(ctx context.Context, p players.KnownPlayer) (isNew bool, isUpdated bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	newHash := r.checksums.RowHash(p)

	var storedHash string
	query := `SELECT checksum FROM known_players WHERE esl_id = ?`
	err = r.db.QueryRowContext(ctx, query, p.ESLID).Scan(&storedHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := `INSERT INTO known_players (esl_id, lp_name, lp_link, race, flag, notable, checksum)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		if _, err := r.db.ExecContext(ctx, insert,
			p.ESLID, p.LPName, p.LPLink, p.Race, p.Flag, boolToInt(p.Notable), newHash); err != nil {
			return false, false, fmt.Errorf("failed to insert player: %w", err)
		}
		return true, false, nil
	case err != nil:
		return false, false, fmt.Errorf("failed to query player: %w", err)
	case storedHash == newHash:
		return false, false, nil
	}

	update := `UPDATE known_players
		SET lp_name = ?, lp_link = ?, race = ?, flag = ?, notable = ?, checksum = ?
		WHERE esl_id = ?`
	if _, err := r.db.ExecContext(ctx, update,
		p.LPName, p.LPLink, p.Race, p.Flag, boolToInt(p.Notable), newHash, p.ESLID); err != nil {
		return false, false, fmt.Errorf("failed to update player: %w", err)
	}
	return false, true, nil
}

// DuplicateIDs is always empty here, esl_id is the primary key. It exists so
// the dupes command works against either driver.
func (r *Repository) DuplicateIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT esl_id FROM known_players GROUP BY esl_id HAVING COUNT(*) > 1`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dupes []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate id: %w", err)
		}
		dupes = append(dupes, id)
	}
	return dupes, rows.Err()
}

func (r *Repository) SortedRows(ctx context.Context) ([]players.KnownPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT esl_id, lp_name, lp_link, race, flag, notable
		FROM known_players ORDER BY notable DESC, lp_name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// Rewrite replaces the registry wholesale. SQLite has no stored row order,
// so this mostly matters for pruning rows removed upstream.
func (r *Repository) Rewrite(ctx context.Context, rows []players.KnownPlayer) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM known_players`); err != nil {
		return fmt.Errorf("failed to clear registry: %w", err)
	}

	insert := `INSERT INTO known_players (esl_id, lp_name, lp_link, race, flag, notable, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, p := range rows {
		if _, err := tx.ExecContext(ctx, insert,
			p.ESLID, p.LPName, p.LPLink, p.Race, p.Flag, boolToInt(p.Notable), r.checksums.RowHash(p)); err != nil {
			return fmt.Errorf("failed to insert player %d: %w", p.ESLID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]players.KnownPlayer, error) {
	var result []players.KnownPlayer
	for rows.Next() {
		var p players.KnownPlayer
		var notable int
		if err := rows.Scan(&p.ESLID, &p.LPName, &p.LPLink, &p.Race, &p.Flag, &notable); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		p.Notable = notable == 1
		result = append(result, p)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
