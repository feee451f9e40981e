package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one executed search.
type Entry struct {
	ID        int64             `json:"id"`
	Q         string            `json:"q"`
	Params    map[string]string `json:"params"`
	NumFound  int64             `json:"num_found"`
	Cached    bool              `json:"cached"`
	TookMs    float64           `json:"took_ms"`
	CreatedAt time.Time         `json:"created_at"`
}

type Store struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.HistoryConfig) (*Store, error) {
	if cfg.DBURL == "" {
		return nil, fmt.Errorf("DBURL is empty in config")
	}

	pgConfig, err := pgxpool.ParseConfig(cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}
	if cfg.PoolSize > 0 {
		pgConfig.MaxConns = int32(cfg.PoolSize)
	}
	pgConfig.MinConns = 1

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createSearchHistory); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create search_history table: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	params, err := json.Marshal(e.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	_, err = s.pool.Exec(ctx, insertSearchHistory, e.Q, string(params), e.NumFound, e.Cached, e.TookMs)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, getRecentSearches, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e      Entry
			params []byte
		)
		if err := row.Scan(&e.ID, &e.Q, &params, &e.NumFound, &e.Cached, &e.TookMs, &e.CreatedAt); err != nil {
			return e, err
		}
		if err := json.Unmarshal(params, &e.Params); err != nil {
			return e, fmt.Errorf("failed to decode params of entry %d: %w", e.ID, err)
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read search history: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() {
	s.pool.Close()
}
