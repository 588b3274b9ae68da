package snapshot

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/sdejongh/drivesync/pkg/logging"
	"github.com/sdejongh/drivesync/pkg/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLStore keeps the snapshot in an SQLite database
type SQLStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLStore opens or creates the database at dsn and migrates its schema
func NewSQLStore(dsn string, logger logging.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db, logger: logger}, nil
}

func runMigrations(db *sql.DB, logger logging.Logger) error {
	sourceDriver, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		logger.Warn(context.Background(), "Snapshot database is in dirty state, forcing version", logging.Fields{"version": version})
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug(context.Background(), "No new snapshot migrations to apply", nil)
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		newVersion, _, _ := m.Version()
		logger.Info(context.Background(), "Snapshot migrations applied", logging.Fields{
			"from_version": version,
			"to_version":   newVersion,
		})
	}
	return nil
}

// Load reads the stored snapshot. An empty database yields an empty snapshot.
func (s *SQLStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := New("")

	var recordedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT version, root, recorded_at FROM snapshot WHERE id = 1`,
	).Scan(&snap.Version, &snap.Root, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if snap.Version > FormatVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, FormatVersion)
	}
	if snap.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot time: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.path, d.checksum, f.name, f.checksum
		FROM directories d
		LEFT JOIN files f ON f.directory_id = d.id
		ORDER BY d.position, f.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read directories: %w", err)
	}
	defer rows.Close()

	lastID := int64(-1)
	for rows.Next() {
		var (
			id                 int64
			dir                models.DirectoryRecord
			fileName, fileHash sql.NullString
		)
		if err := rows.Scan(&id, &dir.Path, &dir.Checksum, &fileName, &fileHash); err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		if id != lastID {
			snap.Directories = append(snap.Directories, dir)
			lastID = id
		}
		if fileName.Valid {
			last := &snap.Directories[len(snap.Directories)-1]
			last.Files = append(last.Files, models.FileRecord{Name: fileName.String, Checksum: fileHash.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read directories: %w", err)
	}
	return snap, nil
}

// Save replaces the stored snapshot in a single transaction
func (s *SQLStore) Save(ctx context.Context, snap *Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM files`, `DELETE FROM directories`, `DELETE FROM snapshot`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}

		snap.Version = FormatVersion
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot (id, version, root, recorded_at) VALUES (1, ?, ?, ?)`,
			snap.Version, snap.Root, snap.RecordedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return err
		}

		for i, d := range snap.Directories {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO directories (position, path, checksum) VALUES (?, ?, ?)`,
				i, d.Path, d.Checksum)
			if err != nil {
				return err
			}
			dirID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for j, f := range d.Files {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO files (directory_id, position, name, checksum) VALUES (?, ?, ?, ?)`,
					dirID, j, f.Name, f.Checksum,
				); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
