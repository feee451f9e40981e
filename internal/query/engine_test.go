package query

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/amankumarsingh77/solr_query/internal/cache"
	"github.com/amankumarsingh77/solr_query/internal/history"
	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	calls []url.Values
	body  string
	err   error
}

func (f *fakeSearcher) Select(ctx context.Context, params url.Values) ([]byte, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

type fakeRecorder struct {
	entries []history.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, e history.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func solrExpr() *solrquery.Expr {
	return &solrquery.Expr{
		Op:    "AND",
		Left:  &solrquery.Expr{Type: "lucene", Text: "solr", DefaultField: "name", Boost: 3},
		Right: &solrquery.Expr{Type: "lucene", Text: "apache"},
	}
}

func newTestEngine(searcher Searcher, rc ResponseCache, rec HistoryRecorder, normalize bool) *QueryEngine {
	return NewQueryEngine(searcher, rc, rec, &config.QueryEngineConfig{
		NormalizeText:   normalize,
		DefaultPageSize: 10,
		MaxPageSize:     50,
	})
}

func TestRender(t *testing.T) {
	e := newTestEngine(nil, nil, nil, false)

	res, err := e.Render(solrExpr())
	require.NoError(t, err)
	assert.Equal(t, `(_query_:"{!lucene df='name' v=$q0}"^3 AND _query_:"{!lucene v=$q1}")`, res.Q)
	assert.Equal(t, "solr", res.Params["q0"])
	assert.Equal(t, "apache", res.Params["q1"])
	assert.Contains(t, res.Encoded, "q0=solr")
}

func TestRenderInvalid(t *testing.T) {
	e := newTestEngine(nil, nil, nil, true)
	_, err := e.Render(&solrquery.Expr{Type: "lucene", Text: "x", DefaultOperator: "NOT"})
	assert.ErrorIs(t, err, solrquery.ErrInvalidArgument)
	_, err = e.Render(nil)
	assert.ErrorIs(t, err, solrquery.ErrInvalidArgument)
}

func TestRenderNormalizesTexts(t *testing.T) {
	e := newTestEngine(nil, nil, nil, true)
	expr := &solrquery.Expr{
		Op:    "OR",
		Left:  &solrquery.Expr{Type: "lucene", Text: "  café   au lait ", DefaultField: "title"},
		Right: &solrquery.Expr{Type: "lucene", Text: "café au lait", DefaultField: "body"},
	}

	res, err := e.Render(expr)
	require.NoError(t, err)
	assert.Len(t, res.Params, 2)
	assert.Equal(t, "café au lait", res.Params["q0"])
	assert.Equal(t, "  café   au lait ", expr.Left.Text)
}

func TestSearch(t *testing.T) {
	searcher := &fakeSearcher{body: `{"response":{"numFound":7,"docs":[]}}`}
	recorder := &fakeRecorder{}
	e := newTestEngine(searcher, nil, recorder, false)

	res, err := e.Search(context.Background(), solrExpr(), 3, 20)
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	params := searcher.calls[0]
	assert.Equal(t, "40", params.Get("start"))
	assert.Equal(t, "20", params.Get("rows"))
	assert.Equal(t, "solr", params.Get("q0"))
	assert.Equal(t, res.Query.Q, params.Get("q"))

	assert.Equal(t, int64(7), res.NumFound)
	assert.False(t, res.Cached)
	assert.JSONEq(t, searcher.body, string(res.Response))

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, res.Query.Q, recorder.entries[0].Q)
	assert.Equal(t, int64(7), recorder.entries[0].NumFound)
}

func TestSearchPaging(t *testing.T) {
	searcher := &fakeSearcher{body: `{"response":{"numFound":0}}`}
	e := newTestEngine(searcher, nil, nil, false)

	res, err := e.Search(context.Background(), solrExpr(), 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 50, res.PageSize)
	assert.Equal(t, "0", searcher.calls[0].Get("start"))

	res, err = e.Search(context.Background(), solrExpr(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.PageSize)
	assert.Equal(t, "10", searcher.calls[1].Get("start"))

	res, err = e.Search(context.Background(), solrExpr(), math.MaxInt, 10)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32/10+1, res.Page)
	assert.Equal(t, "2147483640", searcher.calls[2].Get("start"))
}

func TestSearchUsesCache(t *testing.T) {
	searcher := &fakeSearcher{body: `{"response":{"numFound":3}}`}
	local := cache.NewLRUCache[string, []byte](10, 0)
	defer local.Close()
	e := newTestEngine(searcher, &cache.Layered{Local: local}, nil, false)

	first, err := e.Search(context.Background(), solrExpr(), 1, 10)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Search(context.Background(), solrExpr(), 1, 10)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int64(3), second.NumFound)
	assert.Len(t, searcher.calls, 1)

	_, err = e.Search(context.Background(), solrExpr(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, searcher.calls, 2)
}

func TestSearchFailure(t *testing.T) {
	e := newTestEngine(&fakeSearcher{err: errors.New("connection refused")}, nil, nil, false)
	_, err := e.Search(context.Background(), solrExpr(), 1, 10)
	assert.ErrorIs(t, err, ErrSearchFailed)

	e = newTestEngine(&fakeSearcher{body: `<html>`}, nil, nil, false)
	_, err = e.Search(context.Background(), solrExpr(), 1, 10)
	assert.ErrorIs(t, err, ErrSearchFailed)

	_, err = e.Search(context.Background(), &solrquery.Expr{Op: "AND"}, 1, 10)
	assert.ErrorIs(t, err, solrquery.ErrInvalidArgument)
}
