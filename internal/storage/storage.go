package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cardterm/internal/export"
)

const (
	driverName = "sqlite3"
	// DefaultLimit caps history listings when no limit is given.
	DefaultLimit = 20
	// timeLayout is fixed width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps the SQLite export history.
type Store struct {
	db   *sql.DB
	path string
}

// Export is one delivered artifact. Only output metadata is kept, never the
// bytes or the card's field values.
type Export struct {
	ID          string
	Theme       string
	Format      string
	Filename    string
	Path        string
	Bytes       int
	PixelWidth  int
	PixelHeight int
	CreatedAt   time.Time
}

// FormatCount is the number of exports per format.
type FormatCount struct {
	Format string
	Count  int
}

var (
	// ErrExportExists indicates a duplicate export id.
	ErrExportExists = errors.New("export already recorded")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// DefaultPath is the history database location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve data dir: %w", err)
		}
	}
	return filepath.Join(base, "cardterm", "history.db"), nil
}

// Open bootstraps the SQLite store at path, creating parent directories.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases DB resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exports (
            id TEXT PRIMARY KEY,
            theme TEXT NOT NULL,
            format TEXT NOT NULL,
            filename TEXT NOT NULL,
            path TEXT,
            bytes INTEGER NOT NULL DEFAULT 0,
            pixel_width INTEGER NOT NULL DEFAULT 0,
            pixel_height INTEGER NOT NULL DEFAULT 0,
            created_at TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS exports_created_at ON exports(created_at);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// RecordExport inserts a history row. A zero CreatedAt is set to now.
func (s *Store) RecordExport(ctx context.Context, e *Export) error {
	if e == nil {
		return errors.New("nil export")
	}
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("export id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO exports (id, theme, format, filename, path, bytes, pixel_width, pixel_height, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Theme, e.Format, e.Filename, nullString(e.Path),
		e.Bytes, e.PixelWidth, e.PixelHeight, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if isUniqueConstraint(err) {
			return ErrExportExists
		}
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// Record stores a delivered pipeline result. It satisfies export.Recorder.
func (s *Store) Record(ctx context.Context, r export.Result) error {
	return s.RecordExport(ctx, &Export{
		ID:          r.ID,
		Theme:       r.Theme,
		Format:      string(r.Artifact.Format),
		Filename:    r.Artifact.Filename,
		Path:        r.Path,
		Bytes:       len(r.Artifact.Data),
		PixelWidth:  r.Artifact.PixelWidth,
		PixelHeight: r.Artifact.PixelHeight,
		CreatedAt:   r.DeliveredAt,
	})
}

// GetExport loads a single record.
func (s *Store) GetExport(ctx context.Context, id string) (Export, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, theme, format, filename, path, bytes, pixel_width, pixel_height, created_at FROM exports WHERE id = ?`, id)
	e, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Export{}, ErrNotFound
	}
	if err != nil {
		return Export{}, fmt.Errorf("scan export: %w", err)
	}
	return e, nil
}

// ListExports returns the most recent exports, newest first.
func (s *Store) ListExports(ctx context.Context, limit int) ([]Export, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, theme, format, filename, path, bytes, pixel_width, pixel_height, created_at
        FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exports rows: %w", err)
	}
	return exports, nil
}

// CountByFormat summarises the whole history.
func (s *Store) CountByFormat(ctx context.Context) ([]FormatCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT format, COUNT(*) FROM exports GROUP BY format ORDER BY format`)
	if err != nil {
		return nil, fmt.Errorf("count exports: %w", err)
	}
	defer rows.Close()

	var counts []FormatCount
	for rows.Next() {
		var c FormatCount
		if err := rows.Scan(&c.Format, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

var csvHeader = []string{"id", "created_at", "theme", "format", "filename", "path", "bytes", "pixel_width", "pixel_height"}

// WriteExportsCSV writes the most recent exports as CSV with a header row.
func (s *Store) WriteExportsCSV(ctx context.Context, w io.Writer, limit int) error {
	exports, err := s.ListExports(ctx, limit)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range exports {
		record := []string{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Theme,
			e.Format,
			e.Filename,
			e.Path,
			strconv.Itoa(e.Bytes),
			strconv.Itoa(e.PixelWidth),
			strconv.Itoa(e.PixelHeight),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %s: %w", e.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(rs rowScanner) (Export, error) {
	var e Export
	var path sql.NullString
	var created string
	if err := rs.Scan(&e.ID, &e.Theme, &e.Format, &e.Filename, &path, &e.Bytes, &e.PixelWidth, &e.PixelHeight, &created); err != nil {
		return Export{}, err
	}
	e.Path = nullStringToString(path)
	if t, err := time.Parse(timeLayout, created); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullString(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
