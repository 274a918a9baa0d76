// Package store persists probe observations to PostgreSQL. Hosts are created
// lazily inside the same transaction as their first observation so no
// observation row can reference a missing server under concurrent first
// sight.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/Shih-Wei-Lin/Server-Monitor-System/internal/errors"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/metrics"
)

// Store wraps a pgx connection pool with the observation queries.
type Store struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// New opens a connection pool and verifies it with a ping.
func New(ctx context.Context, connString string, log logger.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, apperrors.WrapWithCode(err, apperrors.ErrDB,
			"failed to create connection pool",
			"check the database section of the configuration file")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.WrapWithCode(err, apperrors.ErrDB,
			"failed to ping database",
			"verify the database is running and reachable")
	}
	return &Store{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// AddServer registers a host, returning its id. Idempotent: registering an
// existing host returns the existing id.
func (s *Store) AddServer(ctx context.Context, host string) (int64, error) {
	id, err := ensureServer(ctx, s.pool, host)
	if err != nil {
		return 0, apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to register "+host, "")
	}
	return id, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ensureServer upserts the host row and returns its id. The DO UPDATE arm is
// a no-op write that makes RETURNING yield the id on conflict as well.
func ensureServer(ctx context.Context, q querier, host string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO servers (host) VALUES ($1)
		ON CONFLICT (host) DO UPDATE SET host = EXCLUDED.host
		RETURNING server_id`, host).Scan(&id)
	return id, err
}

// AllHosts returns every registered host address. This is the check-cycle
// target set.
func (s *Store) AllHosts(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT host FROM servers ORDER BY host`)
	if err != nil {
		return nil, apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to list hosts", "")
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to scan host row", "")
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// ConnectableHosts returns the hosts whose latest connectivity check
// succeeded. This is the extract-cycle target set; hosts never checked are
// excluded.
func (s *Store) ConnectableHosts(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.host
		FROM servers s
		JOIN server_connectivity c ON c.server_id = s.server_id
		WHERE c.connectable
		ORDER BY s.host`)
	if err != nil {
		return nil, apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to list connectable hosts", "")
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to scan host row", "")
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// SaveCheck records one check-cycle observation for a host in a single
// transaction: connectivity verdict always, disk capacity only when known.
func (s *Store) SaveCheck(ctx context.Context, host string, reachable bool, disk *metrics.DiskSpace, at time.Time) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		id, err := ensureServer(ctx, tx, host)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO server_connectivity (server_id, connectable, last_checked)
			VALUES ($1, $2, $3)
			ON CONFLICT (server_id) DO UPDATE SET
				connectable  = EXCLUDED.connectable,
				last_checked = EXCLUDED.last_checked`, id, reachable, at); err != nil {
			return err
		}

		if disk == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO server_disk_storage (server_id, total_gb, remaining_gb, recorded_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (server_id) DO UPDATE SET
				total_gb     = EXCLUDED.total_gb,
				remaining_gb = EXCLUDED.remaining_gb,
				recorded_at  = EXCLUDED.recorded_at`, id, disk.TotalGB, disk.RemainingGB, at)
		return err
	})
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to save check result for "+host, "")
	}
	return nil
}

// SaveExtract records one extract-cycle observation for a host in a single
// transaction. cpu and memory may be nil, which persists as NULL rather than
// a fabricated zero.
func (s *Store) SaveExtract(ctx context.Context, host string, cpu, memory *float64, users, clientIPs []string, at time.Time) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		id, err := ensureServer(ctx, tx, host)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO cpu_usages (server_id, usage_percent, recorded_at)
			VALUES ($1, $2, $3)`, id, cpu, at); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO memory_usages (server_id, usage_percent, recorded_at)
			VALUES ($1, $2, $3)`, id, memory, at); err != nil {
			return err
		}

		for _, user := range users {
			if _, err := tx.Exec(ctx, `
				INSERT INTO active_users (server_id, username, recorded_at)
				VALUES ($1, $2, $3)`, id, user, at); err != nil {
				return err
			}
		}

		for _, ip := range clientIPs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO active_ip (server_id, ip_address, last_seen)
				VALUES ($1, $2, $3)
				ON CONFLICT (server_id, ip_address) DO UPDATE SET
					last_seen = EXCLUDED.last_seen`, id, ip, at); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrDB, "failed to save extract result for "+host, "")
	}
	return nil
}
