package photoprism

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/facescan/facescan/internal/library"
)

// MariaDB reads the photo sequence straight from PhotoPrism's database.
// Used by deployments with database access but restricted API scope.
type MariaDB struct {
	db *sql.DB
}

// normalizeDSN forces parseTime on the DSN so DATETIME columns scan into
// time values instead of raw bytes. Other DSN parameters pass through.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// NewMariaDB opens a connection pool against the PhotoPrism MariaDB.
func NewMariaDB(dsn string) (*MariaDB, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &MariaDB{db: db}, nil
}

// Close closes the connection pool.
func (m *MariaDB) Close() error {
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// FetchSequence loads all non-deleted photos ordered by taken-at descending
// and returns them as a stable library sequence.
func (m *MariaDB) FetchSequence(ctx context.Context) (library.Sequence, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT p.photo_uid, f.file_width, f.file_height, p.taken_at
		FROM photos p
		JOIN files f ON f.photo_id = p.id AND f.file_primary = 1
		WHERE p.deleted_at IS NULL AND p.photo_type = 'image'
		ORDER BY p.taken_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var assets []library.Asset
	for rows.Next() {
		var asset library.Asset
		var takenAt sql.NullTime
		if err := rows.Scan(&asset.UID, &asset.Width, &asset.Height, &takenAt); err != nil {
			return nil, fmt.Errorf("scan photo row: %w", err)
		}
		if takenAt.Valid {
			asset.TakenAt = takenAt.Time
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photo rows: %w", err)
	}

	return library.SliceSequence(assets), nil
}
