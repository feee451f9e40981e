package query

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/amankumarsingh77/solr_query/internal/history"
	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
)

// Searcher sends parameters to the search engine and returns its raw JSON response.
type Searcher interface {
	Select(ctx context.Context, params url.Values) ([]byte, error)
}

type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type HistoryRecorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// RenderResult is the rendered form of an expression plus its encoded request body.
type RenderResult struct {
	Q       string            `json:"q"`
	Params  map[string]string `json:"params"`
	Encoded string            `json:"encoded"`
}

type SearchResult struct {
	Query        RenderResult    `json:"query"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
	NumFound     int64           `json:"num_found"`
	Cached       bool            `json:"cached"`
	ResponseTime float64         `json:"response_time"`
	Response     json.RawMessage `json:"response"`
}

func newRenderResult(q *solrquery.Query) RenderResult {
	return RenderResult{
		Q:       q.Q,
		Params:  q.Params,
		Encoded: q.Encode(),
	}
}
