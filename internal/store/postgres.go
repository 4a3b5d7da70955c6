package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// DBTX is the part of a pgx pool the store needs. *pgxpool.Pool and pgxmock
// pools both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps saved cities in PostgreSQL. Snapshot and forecast are
// stored as JSONB.
type PostgresStore struct {
	db     DBTX
	feed   *broadcaster
	logger *slog.Logger
}

var _ weather.CityStore = (*PostgresStore)(nil)

// OpenPostgres connects, pings and migrates the schema.
func OpenPostgres(ctx context.Context, connStr string, logger *slog.Logger) (*PostgresStore, *pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	s := NewPostgresStore(pool, logger)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db DBTX, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, feed: newBroadcaster(), logger: logger}
}

// Migrate creates the schema if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_cities (
			city_id BIGINT PRIMARY KEY,
			city_name TEXT NOT NULL,
			country TEXT NOT NULL,
			snapshot JSONB NOT NULL,
			forecast JSONB NOT NULL,
			lang TEXT NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_saved_cities_last_updated ON saved_cities(last_updated DESC);",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const upsertCitySQL = `INSERT INTO saved_cities
	(city_id, city_name, country, snapshot, forecast, lang, last_updated, lat, lon)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (city_id) DO UPDATE SET
	city_name = EXCLUDED.city_name,
	country = EXCLUDED.country,
	snapshot = EXCLUDED.snapshot,
	forecast = EXCLUDED.forecast,
	lang = EXCLUDED.lang,
	last_updated = EXCLUDED.last_updated,
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon`

const selectCitiesSQL = `SELECT city_id, city_name, country, snapshot, forecast, lang, last_updated, lat, lon
FROM saved_cities
ORDER BY last_updated DESC, city_id ASC`

// Upsert inserts item or replaces the row with the same city id.
func (s *PostgresStore) Upsert(ctx context.Context, item weather.CityItem) error {
	snap, err := json.Marshal(item.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	forecast := item.Forecast
	if forecast == nil {
		forecast = weather.Forecast{}
	}
	fc, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}

	_, err = s.db.Exec(ctx, upsertCitySQL,
		item.CityID, item.CityName, item.Country, snap, fc,
		item.Lang, item.LastUpdated.UTC(), item.Coordinates.Lat, item.Coordinates.Lon)
	if err != nil {
		return fmt.Errorf("upsert city %d: %w", item.CityID, err)
	}
	s.notify(ctx)
	return nil
}

// DeleteByID removes the row with the given id. Missing ids are ignored.
func (s *PostgresStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM saved_cities WHERE city_id = $1", id)
	if err != nil {
		return fmt.Errorf("delete city %d: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		s.notify(ctx)
	}
	return nil
}

// All returns every saved city, most recently updated first.
func (s *PostgresStore) All(ctx context.Context) ([]weather.CityItem, error) {
	rows, err := s.db.Query(ctx, selectCitiesSQL)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var items []weather.CityItem
	for rows.Next() {
		var (
			it       weather.CityItem
			snap, fc []byte
		)
		if err := rows.Scan(&it.CityID, &it.CityName, &it.Country, &snap, &fc,
			&it.Lang, &it.LastUpdated, &it.Coordinates.Lat, &it.Coordinates.Lon); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		if err := json.Unmarshal(snap, &it.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot of city %d: %w", it.CityID, err)
		}
		if err := json.Unmarshal(fc, &it.Forecast); err != nil {
			return nil, fmt.Errorf("decode forecast of city %d: %w", it.CityID, err)
		}
		it.LastUpdated = it.LastUpdated.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cities: %w", err)
	}
	return items, nil
}

// Subscribe emits the collection after every change made through this store.
func (s *PostgresStore) Subscribe(ctx context.Context) <-chan []weather.CityItem {
	return s.feed.subscribe(ctx)
}

func (s *PostgresStore) notify(ctx context.Context) {
	if !s.feed.active() {
		return
	}
	items, err := s.All(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish city changes",
			slog.String("method", "notify"), slog.Any("error", err))
		return
	}
	s.feed.publish(items)
}
