package score

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    _ "github.com/mattn/go-sqlite3"
)

const scoreSchema = `
CREATE TABLE IF NOT EXISTS score (
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    player_wins   INTEGER NOT NULL DEFAULT 0,
    opponent_wins INTEGER NOT NULL DEFAULT 0,
    updated_at    TEXT NOT NULL
);`

// SQLiteStore keeps the record in a single-row table.
type SQLiteStore struct {
    db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at path and
// ensures the score table exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
    dir := filepath.Dir(path)
    if dir != "." && dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return nil, fmt.Errorf("mkdir %s: %w", dir, err)
        }
    }
    db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
    if err != nil {
        return nil, err
    }
    if _, err := db.Exec(scoreSchema); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("create score table: %w", err)
    }
    return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Record, error) {
    var r Record
    err := s.db.QueryRowContext(ctx,
        `SELECT player_wins, opponent_wins FROM score WHERE id = 1`,
    ).Scan(&r.PlayerWins, &r.OpponentWins)
    if errors.Is(err, sql.ErrNoRows) {
        return Record{}, ErrNoRecord
    }
    if err != nil {
        return Record{}, fmt.Errorf("load score: %w", err)
    }
    return r, nil
}

func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
    _, err := s.db.ExecContext(ctx, `
        INSERT INTO score (id, player_wins, opponent_wins, updated_at)
        VALUES (1, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            player_wins = excluded.player_wins,
            opponent_wins = excluded.opponent_wins,
            updated_at = excluded.updated_at`,
        r.PlayerWins, r.OpponentWins, time.Now().UTC().Format(time.RFC3339),
    )
    if err != nil {
        return fmt.Errorf("save score: %w", err)
    }
    return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
