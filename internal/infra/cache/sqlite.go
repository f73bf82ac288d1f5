// Package cache persists analysis results in a local sqlite database.
// Entries are keyed by video name, computation kind, and parameter
// fingerprint, and pinned to the source file's size and mtime so a
// replaced file never serves stale results.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"github.com/framelens/framelens-engine/internal/infra/metrics"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements port.AnalysisCache on sqlite. A singleflight group
// collapses concurrent computations of the same key into one.
type Store struct {
	db     *sql.DB
	group  singleflight.Group
	logger *zap.Logger
}

// NewStore opens (or creates) the cache database at path and applies
// pending migrations.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load cache migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("cache migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("cache migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply cache migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// GetOrCompute returns the cached payload for the key or computes and
// stores it. A stored entry whose source size or mtime no longer matches
// the identity is purged together with every other entry for that video.
// Unreadable rows count as misses, never as failures.
func (s *Store) GetOrCompute(ctx context.Context, id entity.VideoIdentity, kind entity.CacheKind, fingerprint string, compute port.ComputeFunc) ([]byte, bool, error) {
	key := id.Name + "\x00" + string(kind) + "\x00" + fingerprint

	type outcome struct {
		payload []byte
		hit     bool
	}
	v, err, shared := s.group.Do(key, func() (any, error) {
		if payload, ok := s.lookup(ctx, id, kind, fingerprint); ok {
			metrics.CacheRequestsTotal.WithLabelValues(string(kind), "hit").Inc()
			return outcome{payload: payload, hit: true}, nil
		}
		metrics.CacheRequestsTotal.WithLabelValues(string(kind), "miss").Inc()

		metrics.InflightComputations.Inc()
		payload, err := compute(ctx)
		metrics.InflightComputations.Dec()
		if err != nil {
			return nil, err
		}
		s.store(ctx, id, kind, fingerprint, payload)
		return outcome{payload: payload}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		metrics.CacheRequestsTotal.WithLabelValues(string(kind), "shared").Inc()
	}
	o := v.(outcome)
	return o.payload, o.hit, nil
}

func (s *Store) lookup(ctx context.Context, id entity.VideoIdentity, kind entity.CacheKind, fingerprint string) ([]byte, bool) {
	query := `
		SELECT payload, source_size, source_mtime
		FROM cache_entries
		WHERE video_name=? AND kind=? AND fingerprint=?`

	var (
		payload []byte
		size    int64
		mtime   int64
	)
	err := s.db.QueryRowContext(ctx, query, id.Name, string(kind), fingerprint).
		Scan(&payload, &size, &mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss",
			zap.String("video", id.Name),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, false
	}

	if size != id.Size || mtime != id.ModTime.UnixNano() {
		s.logger.Info("source file changed, purging stale cache entries",
			zap.String("video", id.Name))
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE video_name=?`, id.Name); err != nil {
			s.logger.Warn("purge stale cache entries", zap.String("video", id.Name), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

func (s *Store) store(ctx context.Context, id entity.VideoIdentity, kind entity.CacheKind, fingerprint string, payload []byte) {
	query := `
		INSERT OR REPLACE INTO cache_entries
			(video_name, kind, fingerprint, payload, source_size, source_mtime)
		VALUES (?,?,?,?,?,?)`

	_, err := s.db.ExecContext(ctx, query,
		id.Name, string(kind), fingerprint, payload, id.Size, id.ModTime.UnixNano())
	if err != nil {
		// A failed write costs a recompute next time, nothing more.
		s.logger.Warn("cache write failed",
			zap.String("video", id.Name),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// Invalidate removes entries of the given kind for one video, or for every
// video when filename is empty. CacheKindAll selects all kinds.
func (s *Store) Invalidate(ctx context.Context, filename string, kind entity.CacheKind) ([]entity.ClearedEntry, error) {
	where := "1=1"
	args := []any{}
	if filename != "" {
		where = "video_name=?"
		args = append(args, filename)
	}
	if kind != entity.CacheKindAll {
		where += " AND kind=?"
		args = append(args, string(kind))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT video_name, kind, length(payload) FROM cache_entries WHERE `+where+` ORDER BY video_name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	byVideo := map[string]*entity.ClearedEntry{}
	var order []string
	for rows.Next() {
		var (
			name  string
			k     string
			bytes int64
		)
		if err := rows.Scan(&name, &k, &bytes); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		e, ok := byVideo[name]
		if !ok {
			e = &entity.ClearedEntry{Filename: name}
			byVideo[name] = e
			order = append(order, name)
		}
		e.FreedBytes += bytes
		e.Kinds = appendKind(e.Kinds, entity.CacheKind(k))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE `+where, args...); err != nil {
		return nil, fmt.Errorf("delete cache entries: %w", err)
	}

	cleared := make([]entity.ClearedEntry, 0, len(order))
	for _, name := range order {
		cleared = append(cleared, *byVideo[name])
	}
	return cleared, nil
}

// Status reports which kinds hold an entry for the video.
func (s *Store) Status(ctx context.Context, filename string) (map[entity.CacheKind]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT kind FROM cache_entries WHERE video_name=?`, filename)
	if err != nil {
		return nil, fmt.Errorf("cache status: %w", err)
	}
	defer rows.Close()

	status := map[entity.CacheKind]bool{
		entity.CacheKindMetadata:     false,
		entity.CacheKindChangeSignal: false,
		entity.CacheKindTranscript:   false,
	}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan cache status: %w", err)
		}
		status[entity.CacheKind(k)] = true
	}
	return status, rows.Err()
}

func appendKind(kinds []entity.CacheKind, k entity.CacheKind) []entity.CacheKind {
	for _, have := range kinds {
		if have == k {
			return kinds
		}
	}
	return append(kinds, k)
}
