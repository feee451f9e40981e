package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/amankumarsingh77/solr_query/internal/common/database"
	"github.com/amankumarsingh77/solr_query/internal/history"
	"github.com/amankumarsingh77/solr_query/internal/query"
	"github.com/amankumarsingh77/solr_query/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	body string
	err  error
}

func (f *fakeSearcher) Select(ctx context.Context, params url.Values) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

type memoryStore struct {
	queries map[string]*models.SavedQuery
}

func (m *memoryStore) SaveQuery(ctx context.Context, q *models.SavedQuery) error {
	m.queries[q.Name] = q
	return nil
}

func (m *memoryStore) GetQuery(ctx context.Context, name string) (*models.SavedQuery, error) {
	q, ok := m.queries[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, database.ErrQueryNotFound)
	}
	return q, nil
}

func (m *memoryStore) ListQueries(ctx context.Context, limit int64) ([]models.SavedQuery, error) {
	out := []models.SavedQuery{}
	for _, q := range m.queries {
		out = append(out, *q)
	}
	return out, nil
}

func (m *memoryStore) DeleteQuery(ctx context.Context, name string) error {
	if _, ok := m.queries[name]; !ok {
		return fmt.Errorf("%s: %w", name, database.ErrQueryNotFound)
	}
	delete(m.queries, name)
	return nil
}

type fakeHistory struct{}

func (fakeHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	return []history.Entry{{ID: 1, Q: "q", NumFound: 2}}, nil
}

const termJSON = `{"type":"lucene","text":"solr","df":"title","boost":3}`

func newTestApp(searcher query.Searcher, store QueryStore, hist HistoryReader) *fiber.App {
	engine := query.NewQueryEngine(searcher, nil, nil, &config.QueryEngineConfig{
		NormalizeText:   true,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	})
	app := fiber.New()
	NewSearchAPI(engine, store, hist).RegisterRoutes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestRenderHandler(t *testing.T) {
	app := newTestApp(nil, nil, nil)

	status, out := doRequest(t, app, http.MethodPost, "/render", termJSON)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `_query_:"{!lucene df='title' v=$q0}"^3`, out["q"])
	assert.Equal(t, map[string]any{"q": out["q"], "q0": "solr"}, out["params"])

	status, out = doRequest(t, app, http.MethodPost, "/render", `{"type":"lucene","text":"x","q.op":"NOT"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out["error"], "invalid argument")

	status, _ = doRequest(t, app, http.MethodPost, "/render", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchHandler(t *testing.T) {
	app := newTestApp(&fakeSearcher{body: `{"response":{"numFound":25,"docs":[{"id":"1"}]}}`}, nil, nil)

	status, out := doRequest(t, app, http.MethodPost, "/search?page=2&page_size=10", termJSON)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 25, out["total"])
	assert.EqualValues(t, 3, out["total_pages"])
	assert.EqualValues(t, 2, out["page"])
	assert.Equal(t, false, out["cached"])

	response := out["response"].(map[string]any)
	assert.EqualValues(t, 25, response["response"].(map[string]any)["numFound"])
}

func TestSearchHandlerUpstreamFailure(t *testing.T) {
	app := newTestApp(&fakeSearcher{err: fmt.Errorf("connection refused")}, nil, nil)
	status, out := doRequest(t, app, http.MethodPost, "/search", termJSON)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, out["error"], "connection refused")
}

func TestSavedQueries(t *testing.T) {
	store := &memoryStore{queries: map[string]*models.SavedQuery{}}
	app := newTestApp(&fakeSearcher{body: `{"response":{"numFound":1}}`}, store, nil)

	status, _ := doRequest(t, app, http.MethodPut, "/queries/books",
		`{"description":"books about solr","expr":`+termJSON+`}`)
	assert.Equal(t, http.StatusOK, status)
	require.Contains(t, store.queries, "books")
	assert.Equal(t, "solr", store.queries["books"].Expr.Text)

	status, out := doRequest(t, app, http.MethodGet, "/queries/books", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "books", out["name"])

	status, out = doRequest(t, app, http.MethodGet, "/queries", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, out["queries"], 1)

	status, out = doRequest(t, app, http.MethodGet, "/queries/books/search", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, out["total"])

	status, _ = doRequest(t, app, http.MethodDelete, "/queries/books", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/queries/books", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = doRequest(t, app, http.MethodGet, "/queries/books/search", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveQueryKeepsNames(t *testing.T) {
	store := &memoryStore{queries: map[string]*models.SavedQuery{}}
	app := newTestApp(nil, store, nil)

	for _, name := range []string{"books", "films", "songs"} {
		status, _ := doRequest(t, app, http.MethodPut, "/queries/"+name, `{"expr":`+termJSON+`}`)
		require.Equal(t, http.StatusOK, status)
	}
	// later requests reuse fiber's buffers
	doRequest(t, app, http.MethodGet, "/queries/xxxxx", "")

	require.Len(t, store.queries, 3)
	for _, name := range []string{"books", "films", "songs"} {
		require.Contains(t, store.queries, name)
		assert.Equal(t, name, store.queries[name].Name)
	}
}

func TestSearchHandlerHugePage(t *testing.T) {
	app := newTestApp(&fakeSearcher{body: `{"response":{"numFound":5}}`}, nil, nil)

	status, out := doRequest(t, app, http.MethodPost, "/search?page=9223372036854775807&page_size=10", termJSON)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 214748365, out["page"])
}

func TestSaveInvalidQuery(t *testing.T) {
	store := &memoryStore{queries: map[string]*models.SavedQuery{}}
	app := newTestApp(nil, store, nil)

	status, _ := doRequest(t, app, http.MethodPut, "/queries/broken",
		`{"expr":{"op":"AND","left":`+termJSON+`}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, store.queries)

	status, _ = doRequest(t, app, http.MethodPut, "/queries/empty", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOptionalBackends(t *testing.T) {
	app := newTestApp(nil, nil, nil)

	status, _ := doRequest(t, app, http.MethodGet, "/queries/books", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = doRequest(t, app, http.MethodGet, "/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	app = newTestApp(nil, nil, fakeHistory{})
	status, out := doRequest(t, app, http.MethodGet, "/history?limit=5", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, out["history"], 1)
}
