package history

const (
	createSearchHistory = `
		CREATE TABLE IF NOT EXISTS search_history (
			id          BIGSERIAL PRIMARY KEY,
			q           TEXT NOT NULL,
			params      JSONB NOT NULL,
			num_found   BIGINT NOT NULL DEFAULT 0,
			cached      BOOLEAN NOT NULL DEFAULT FALSE,
			took_ms     DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_search_history_created_at
		ON search_history(created_at DESC);
	`

	insertSearchHistory = `
		INSERT INTO search_history (q, params, num_found, cached, took_ms)
		VALUES ($1, $2, $3, $4, $5)
	`

	getRecentSearches = `
		SELECT id, q, params, num_found, cached, took_ms, created_at
		FROM search_history
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
)
