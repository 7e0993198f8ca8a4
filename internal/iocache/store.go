// Package iocache is the persistent score cache and movers delta store.
package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/schema"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Store implements contract.ScoreStore over sqlite, postgres or mysql.
type Store struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ScoreStore = &Store{} // Compile-time check

// Open connects to the configured backend and verifies the connection. It
// does not create the schema; run Migrate (the `init` command) first.
func Open(backend schema.DatabaseBackend, connStr string) (*Store, error) {
	db, err := open(backend, connStr)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, backend: backend}, nil
}

func open(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var driverName string
	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
	case schema.PostgreSQLBackend:
		driverName = "pgx"
	case schema.MySQLBackend:
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("%w: unsupported cache backend %q", schema.ErrInput, backend)
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// A single connection avoids "database is locked" under concurrency.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s cache: %w", backend, err)
	}
	return db, nil
}

// rebind converts ?-style placeholders to the backend's dialect.
func (s *Store) rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Read implements contract.ScoreStore. A miss is (nil, nil).
func (s *Store) Read(ctx context.Context, eco schema.Ecosystem, name, asOfBucket string, maxAge time.Duration) (*schema.Score, error) {
	query := s.rebind(`SELECT payload, computed_at FROM scores WHERE ecosystem = ? AND name = ? AND as_of_bucket = ?`)

	var payload string
	var computedAt int64
	err := s.db.QueryRowContext(ctx, query, string(eco), name, asOfBucket).Scan(&payload, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read: %w", err)
	}

	if time.Since(time.Unix(computedAt, 0)) > maxAge {
		return nil, nil // stale
	}

	var score schema.Score
	if err := json.Unmarshal([]byte(payload), &score); err != nil {
		return nil, nil // treat a corrupt row as a miss; the writer will replace it
	}
	return &score, nil
}

// Write implements contract.ScoreStore: one transaction upserting the
// scores row and appending a score_history row.
func (s *Store) Write(ctx context.Context, score *schema.Score, asOfBucket string) error {
	payload, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	computedAt := score.ComputedAt.Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(s.upsertQuery()),
		string(score.Ecosystem), score.Package, asOfBucket, string(payload), computedAt); err != nil {
		return fmt.Errorf("cache upsert: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO score_history (ecosystem, name, score, computed_at) VALUES (?, ?, ?, ?)`),
		string(score.Ecosystem), score.Package, score.Value, computedAt); err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return tx.Commit()
}

func (s *Store) upsertQuery() string {
	switch s.backend {
	case schema.MySQLBackend:
		return `INSERT INTO scores (ecosystem, name, as_of_bucket, payload, computed_at) VALUES (?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE payload = new.payload, computed_at = new.computed_at`
	default: // SQLite and PostgreSQL share ON CONFLICT syntax
		return `INSERT INTO scores (ecosystem, name, as_of_bucket, payload, computed_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (ecosystem, name, as_of_bucket) DO UPDATE SET payload = excluded.payload, computed_at = excluded.computed_at`
	}
}

// Movers implements contract.ScoreStore. The window's rows are grouped per
// package; the delta is between the two most recent entries.
func (s *Store) Movers(ctx context.Context, limit int, since time.Duration) ([]schema.MoverRow, error) {
	if limit <= 0 {
		limit = contract.DefaultMoversLimit
	}
	cutoff := time.Now().Add(-since).Unix()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT ecosystem, name, score, computed_at FROM score_history WHERE computed_at >= ? ORDER BY ecosystem, name, computed_at DESC, id DESC`),
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("movers query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type pkgKey struct {
		eco  string
		name string
	}
	latest := make(map[pkgKey][]schema.HistoryRow)
	var order []pkgKey
	for rows.Next() {
		var eco, name string
		var score int
		var at int64
		if err := rows.Scan(&eco, &name, &score, &at); err != nil {
			return nil, fmt.Errorf("movers scan: %w", err)
		}
		key := pkgKey{eco, name}
		if len(latest[key]) == 0 {
			order = append(order, key)
		}
		if len(latest[key]) < 2 {
			latest[key] = append(latest[key], schema.HistoryRow{
				Ecosystem:  schema.Ecosystem(eco),
				Name:       name,
				Score:      score,
				ComputedAt: time.Unix(at, 0).UTC(),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("movers rows: %w", err)
	}

	var movers []schema.MoverRow
	for _, key := range order {
		entries := latest[key]
		if len(entries) < 2 {
			continue
		}
		last, prev := entries[0], entries[1]
		if last.Score == prev.Score {
			continue
		}
		movers = append(movers, schema.MoverRow{
			Ecosystem:  last.Ecosystem,
			Name:       last.Name,
			PrevScore:  prev.Score,
			LastScore:  last.Score,
			Delta:      last.Score - prev.Score,
			ComputedAt: last.ComputedAt,
		})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		di, dj := absInt(movers[i].Delta), absInt(movers[j].Delta)
		if di != dj {
			return di > dj
		}
		return movers[i].ComputedAt.After(movers[j].ComputedAt)
	})
	if len(movers) > limit {
		movers = movers[:limit]
	}
	return movers, nil
}

// History implements contract.ScoreStore.
func (s *Store) History(ctx context.Context, eco schema.Ecosystem, name string, limit int) ([]schema.HistoryRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT score, computed_at FROM score_history WHERE ecosystem = ? AND name = ? ORDER BY computed_at DESC, id DESC LIMIT ?`),
		string(eco), name, limit)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.HistoryRow
	for rows.Next() {
		row := schema.HistoryRow{Ecosystem: eco, Name: name}
		var at int64
		if err := rows.Scan(&row.Score, &at); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		row.ComputedAt = time.Unix(at, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// Stale implements contract.ScoreStore, listing current-bucket packages
// whose score is older than maxAge.
func (s *Store) Stale(ctx context.Context, eco schema.Ecosystem, maxAge time.Duration) ([]schema.PackageIdentity, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	query := `SELECT ecosystem, name FROM scores WHERE as_of_bucket = '' AND computed_at < ?`
	args := []any{cutoff}
	if eco != "" {
		query += ` AND ecosystem = ?`
		args = append(args, string(eco))
	}
	query += ` ORDER BY computed_at ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("stale query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.PackageIdentity
	for rows.Next() {
		var e, name string
		if err := rows.Scan(&e, &name); err != nil {
			return nil, fmt.Errorf("stale scan: %w", err)
		}
		out = append(out, schema.PackageIdentity{Ecosystem: schema.Ecosystem(e), Name: name})
	}
	return out, rows.Err()
}

// Close implements contract.ScoreStore.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
