package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/amankumarsingh77/solr_query/internal/cache"
	"github.com/amankumarsingh77/solr_query/internal/history"
	"github.com/amankumarsingh77/solr_query/internal/solr"
	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
)

var ErrSearchFailed = errors.New("search failed")

// maxStart is the largest start offset Solr accepts.
const maxStart = math.MaxInt32

type QueryEngine struct {
	searcher Searcher
	cache    ResponseCache
	history  HistoryRecorder

	normalize       bool
	defaultPageSize int
	maxPageSize     int
}

// NewQueryEngine wires the engine. cache and recorder may be nil.
func NewQueryEngine(searcher Searcher, responseCache ResponseCache, recorder HistoryRecorder, cfg *config.QueryEngineConfig) *QueryEngine {
	defaultPageSize := 10
	if cfg.DefaultPageSize > 0 {
		defaultPageSize = cfg.DefaultPageSize
	}
	maxPageSize := 100
	if cfg.MaxPageSize >= defaultPageSize {
		maxPageSize = cfg.MaxPageSize
	}

	return &QueryEngine{
		searcher:        searcher,
		cache:           responseCache,
		history:         recorder,
		normalize:       cfg.NormalizeText,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Build turns an expression into a tree, normalizing its texts first when configured.
// The expression itself is not modified.
func (e *QueryEngine) Build(expr *solrquery.Expr) (*solrquery.Node, error) {
	if expr == nil {
		return nil, fmt.Errorf("empty expression: %w", solrquery.ErrInvalidArgument)
	}
	if e.normalize {
		node, err := expr.Build()
		if err != nil {
			return nil, err
		}
		// Round-trip through a copy so the caller's expression keeps its raw texts.
		normalized, err := solrquery.ExprOf(node)
		if err != nil {
			return nil, err
		}
		normalizeExpr(normalized)
		expr = normalized
	}
	return expr.Build()
}

func (e *QueryEngine) Render(expr *solrquery.Expr) (*RenderResult, error) {
	node, err := e.Build(expr)
	if err != nil {
		return nil, err
	}
	q, err := solrquery.Render(node)
	if err != nil {
		return nil, err
	}
	res := newRenderResult(q)
	return &res, nil
}

func (e *QueryEngine) Search(ctx context.Context, expr *solrquery.Expr, page, pageSize int) (*SearchResult, error) {
	start := time.Now()

	node, err := e.Build(expr)
	if err != nil {
		return nil, err
	}
	q, err := solrquery.Render(node)
	if err != nil {
		return nil, err
	}

	page, pageSize = e.clampPage(page, pageSize)
	params := q.Values()
	params.Set("start", strconv.Itoa((page-1)*pageSize))
	params.Set("rows", strconv.Itoa(pageSize))
	key := cache.Key(params.Encode())

	result := &SearchResult{
		Query:    newRenderResult(q),
		Page:     page,
		PageSize: pageSize,
	}

	var body []byte
	if e.cache != nil {
		body, result.Cached = e.cache.Get(ctx, key)
	}
	if !result.Cached {
		body, err = e.searcher.Select(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
		}
	}

	numFound, err := solr.NumFound(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	if e.cache != nil && !result.Cached {
		e.cache.Set(ctx, key, body)
	}

	result.NumFound = numFound
	result.Response = body
	result.ResponseTime = time.Since(start).Seconds()

	if e.history != nil {
		entry := history.Entry{
			Q:        q.Q,
			Params:   q.Params,
			NumFound: numFound,
			Cached:   result.Cached,
			TookMs:   result.ResponseTime * 1000,
		}
		if err := e.history.Record(ctx, entry); err != nil {
			log.Printf("Failed to record search history: %v", err)
		}
	}
	return result, nil
}

func (e *QueryEngine) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = e.defaultPageSize
	}
	if pageSize > e.maxPageSize {
		pageSize = e.maxPageSize
	}
	if lastPage := maxStart/pageSize + 1; page > lastPage {
		page = lastPage
	}
	return page, pageSize
}
