package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"vidserve/internal/logging"
	"vidserve/internal/metrics"
)

// Default timeout for catalog operations.
const catalogTimeout = 5 * time.Second

// Catalog records StoredMedia metadata in a SQLite database so uploads can be
// listed and looked up without walking the storage root. The blob on disk is
// always the source of truth for bytes; the catalog only holds metadata.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (or creates) the catalog database at dbPath. The parent
// directory must already exist and be writable.
func OpenCatalog(ctx context.Context, dbPath string) (*Catalog, error) {
	// WAL mode keeps concurrent readers cheap; busy_timeout avoids
	// "database is locked" errors under write contention.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{db: db}
	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog initialized at %s", dbPath)
	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		original_name TEXT NOT NULL,
		stored_name TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		content_type TEXT,
		uploaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at DESC);
	`

	initCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	_, err := c.db.ExecContext(initCtx, schema)
	return err
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Insert records one stored upload.
func (c *Catalog) Insert(ctx context.Context, m *StoredMedia) error {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	_, err := c.db.ExecContext(opCtx,
		`INSERT INTO uploads (id, original_name, stored_name, path, size_bytes, content_type, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OriginalName, m.StoredName, m.Path, m.SizeBytes, m.ContentType, m.UploadedAt.UnixMilli(),
	)

	observeCatalog("insert", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert upload %s: %w", m.ID, err)
	}
	return nil
}

// Get looks up one upload by id. Returns ErrNotFound for unknown ids.
func (c *Catalog) Get(ctx context.Context, id string) (*StoredMedia, error) {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	row := c.db.QueryRowContext(opCtx,
		`SELECT id, original_name, stored_name, path, size_bytes, content_type, uploaded_at
		 FROM uploads WHERE id = ?`, id)

	m, err := scanUpload(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		observeCatalog("get", start, nil)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	observeCatalog("get", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload %s: %w", id, err)
	}
	return m, nil
}

// List returns up to limit uploads, newest first. limit == 0 selects a
// default of 100; a negative limit returns every catalogued upload.
func (c *Catalog) List(ctx context.Context, limit int) ([]StoredMedia, error) {
	if limit == 0 {
		limit = 100
	}
	if limit < 0 {
		// SQLite treats a negative LIMIT as no limit.
		limit = -1
	}

	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(opCtx,
		`SELECT id, original_name, stored_name, path, size_bytes, content_type, uploaded_at
		 FROM uploads ORDER BY uploaded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		observeCatalog("list", start, err)
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close catalog rows: %v", err)
		}
	}()

	var uploads []StoredMedia
	for rows.Next() {
		m, err := scanUpload(rows.Scan)
		if err != nil {
			observeCatalog("list", start, err)
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		uploads = append(uploads, *m)
	}

	err = rows.Err()
	observeCatalog("list", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}
	return uploads, nil
}

// Count returns the number of catalogued uploads.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	var n int64
	err := c.db.QueryRowContext(opCtx, `SELECT COUNT(*) FROM uploads`).Scan(&n)
	observeCatalog("count", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return n, nil
}

// Stats returns the number of catalogued uploads and their summed size in
// bytes, computed in the database so large catalogs need no row transfer.
func (c *Catalog) Stats(ctx context.Context) (count, totalBytes int64, err error) {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	err = c.db.QueryRowContext(opCtx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM uploads`).Scan(&count, &totalBytes)
	observeCatalog("stats", start, err)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute upload stats: %w", err)
	}
	return count, totalBytes, nil
}

// Ping verifies the catalog connection is alive.
func (c *Catalog) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()
	return c.db.PingContext(opCtx)
}

func scanUpload(scan func(dest ...any) error) (*StoredMedia, error) {
	var (
		m          StoredMedia
		uploadedAt int64
	)
	if err := scan(&m.ID, &m.OriginalName, &m.StoredName, &m.Path, &m.SizeBytes, &m.ContentType, &uploadedAt); err != nil {
		return nil, err
	}
	m.UploadedAt = time.UnixMilli(uploadedAt).UTC()
	return &m, nil
}

func observeCatalog(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CatalogQueryTotal.WithLabelValues(op, status).Inc()
	metrics.CatalogQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}


