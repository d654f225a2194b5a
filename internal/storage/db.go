package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"climbrank/internal"
)

var ErrRunNotFound = errors.New("run not found")

type DB struct {
	conn *sql.DB
	now  func() time.Time
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS pages (
  region_id TEXT NOT NULL,
  page INTEGER NOT NULL,
  html BLOB NOT NULL,
  fetched_at TEXT NOT NULL,
  PRIMARY KEY(region_id, page)
);

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  region_id TEXT NOT NULL,
  start_page INTEGER NOT NULL,
  end_page INTEGER NOT NULL,
  record_count INTEGER NOT NULL,
  error_count INTEGER NOT NULL,
  stopped_early INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

CREATE TABLE IF NOT EXISTS records (
  run_id TEXT NOT NULL,
  seq INTEGER NOT NULL,
  rank INTEGER NOT NULL,
  name TEXT NOT NULL,
  length_km REAL NOT NULL,
  avg_gradient_pct REAL NOT NULL,
  difficulty_points INTEGER NOT NULL,
  elevation_gain_m INTEGER NOT NULL,
  page INTEGER NOT NULL,
  PRIMARY KEY(run_id, seq),
  FOREIGN KEY(run_id) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS page_errors (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  page INTEGER NOT NULL,
  message TEXT NOT NULL,
  FOREIGN KEY(run_id) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) timestamp() string {
	return d.now().UTC().Format(time.RFC3339Nano)
}

func (d *DB) PutPage(regionID string, page int, html []byte) error {
	_, err := d.conn.Exec(`
INSERT INTO pages (region_id, page, html, fetched_at) VALUES (?, ?, ?, ?)
ON CONFLICT(region_id, page) DO UPDATE SET html = excluded.html, fetched_at = excluded.fetched_at
`, regionID, page, html, d.timestamp())
	return err
}

// GetPage returns the cached page if it was fetched within maxAge.
func (d *DB) GetPage(regionID string, page int, maxAge time.Duration) ([]byte, bool, error) {
	var html []byte
	var fetchedAt string
	err := d.conn.QueryRow(`SELECT html, fetched_at FROM pages WHERE region_id = ? AND page = ?`, regionID, page).Scan(&html, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("page %s/%d: bad fetched_at %q: %w", regionID, page, fetchedAt, err)
	}
	if d.now().Sub(ts) > maxAge {
		return nil, false, nil
	}
	return html, true, nil
}

func (d *DB) SaveRun(run internal.RunResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO runs (id, region_id, start_page, end_page, record_count, error_count, stopped_early, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, run.RunID, run.RegionID, run.StartPage, run.EndPage, len(run.Records), len(run.Errors), run.StoppedEarly, d.timestamp()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO records (run_id, seq, rank, name, length_km, avg_gradient_pct, difficulty_points, elevation_gain_m, page)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range run.Records {
		if _, err := stmt.Exec(run.RunID, i, r.Rank, r.Name, r.LengthKm, r.GradientPct, r.DifficultyPoints, r.ElevationGainM, r.Page); err != nil {
			return err
		}
	}

	for _, pe := range run.Errors {
		if _, err := tx.Exec(`INSERT INTO page_errors (run_id, page, message) VALUES (?, ?, ?)`, run.RunID, pe.Page, pe.Message); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const runColumns = `id, region_id, start_page, end_page, record_count, error_count, stopped_early, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (internal.RunRow, error) {
	var r internal.RunRow
	err := s.Scan(&r.ID, &r.RegionID, &r.StartPage, &r.EndPage, &r.RecordCount, &r.ErrorCount, &r.StoppedEarly, &r.CreatedAt)
	return r, err
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(id string) (internal.RunRow, error) {
	r, err := scanRun(d.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return internal.RunRow{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

func (d *DB) GetRunRecords(id string) ([]internal.ClimbRecord, error) {
	rows, err := d.conn.Query(`
SELECT rank, name, length_km, avg_gradient_pct, difficulty_points, elevation_gain_m, page
FROM records WHERE run_id = ? ORDER BY seq
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ClimbRecord
	for rows.Next() {
		var r internal.ClimbRecord
		if err := rows.Scan(&r.Rank, &r.Name, &r.LengthKm, &r.GradientPct, &r.DifficultyPoints, &r.ElevationGainM, &r.Page); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetRunErrors(id string) ([]internal.PageError, error) {
	rows, err := d.conn.Query(`SELECT page, message FROM page_errors WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PageError
	for rows.Next() {
		var pe internal.PageError
		if err := rows.Scan(&pe.Page, &pe.Message); err != nil {
			return nil, err
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
