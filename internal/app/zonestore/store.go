/*
Package zonestore loads the static zone catalog of the campus.

Without a database the built-in layout from world.DefaultZones is used. With
a PostgreSQL DSN the zones table is migrated (goose, embedded SQL) and read
once at startup; the catalog never changes while the process runs.
*/
package zonestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	// ErrEmptyCatalog is returned when the zones table holds no rows.
	ErrEmptyCatalog = errors.New("zonestore: zone catalog is empty")

	// ErrInvalidZone is returned when a zone fails validation.
	ErrInvalidZone = errors.New("zonestore: invalid zone")
)

const connectTimeout = 15 * time.Second

// Store reads zones from PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, applies pending migrations and returns a Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	config, err := pgxpool.ParseConfig(normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	// The catalog is read once; a small pool is enough.
	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(ctx, sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Zones returns the catalog in display order.
func (s *Store) Zones(ctx context.Context) ([]world.Zone, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, x, y, width, height, type, locked
		FROM zones
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []world.Zone
	for rows.Next() {
		var z world.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.X, &z.Y, &z.Width, &z.Height, &z.Type, &z.Locked); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read zones: %w", err)
	}

	if len(zones) == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := Validate(zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// Load returns the zone catalog for dsn. An empty dsn selects the built-in layout.
func Load(ctx context.Context, dsn string) ([]world.Zone, error) {
	if strings.TrimSpace(dsn) == "" {
		logx.Info("No DATABASE_URL configured, using built-in zone layout.", "zones", len(world.DefaultZones()))
		return world.DefaultZones(), nil
	}

	store, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	zones, err := store.Zones(ctx)
	if err != nil {
		return nil, err
	}

	logx.Info("Zone catalog loaded from database.", "zones", len(zones))
	return zones, nil
}

// Validate checks that ids are unique and non-empty and that every rectangle
// has finite coordinates and a positive size.
func Validate(zones []world.Zone) error {
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if z.ID == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidZone)
		}
		if _, dup := seen[z.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidZone, z.ID)
		}
		seen[z.ID] = struct{}{}

		for _, v := range []float64{z.X, z.Y, z.Width, z.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %q has non-finite geometry", ErrInvalidZone, z.ID)
			}
		}
		if z.Width <= 0 || z.Height <= 0 {
			return fmt.Errorf("%w: %q has non-positive size", ErrInvalidZone, z.ID)
		}
	}
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logx.Info("Zone catalog migrations applied.")
	return nil
}

// normalizeDSN strips driver suffixes that other toolchains put in DSNs.
func normalizeDSN(dsn string) string {
	s := strings.TrimSpace(dsn)
	s = strings.Replace(s, "postgresql+pgx://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+pgx://", "postgres://", 1)
	return s
}
