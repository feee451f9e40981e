package search

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/amankumarsingh77/solr_query/internal/common/database"
	"github.com/amankumarsingh77/solr_query/internal/history"
	"github.com/amankumarsingh77/solr_query/internal/query"
	"github.com/amankumarsingh77/solr_query/models"
	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type QueryStore interface {
	SaveQuery(ctx context.Context, q *models.SavedQuery) error
	GetQuery(ctx context.Context, name string) (*models.SavedQuery, error)
	ListQueries(ctx context.Context, limit int64) ([]models.SavedQuery, error)
	DeleteQuery(ctx context.Context, name string) error
}

type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

type SearchAPI struct {
	engine  *query.QueryEngine
	store   QueryStore
	history HistoryReader
}

// NewSearchAPI builds the API. store and historyReader may be nil, in which case
// their routes answer 503.
func NewSearchAPI(engine *query.QueryEngine, store QueryStore, historyReader HistoryReader) *SearchAPI {
	return &SearchAPI{engine: engine, store: store, history: historyReader}
}

func (api *SearchAPI) RegisterRoutes(app *fiber.App) {
	app.Post("/render", api.renderHandler)
	app.Post("/search", api.searchHandler)

	queries := app.Group("/queries")
	queries.Get("/", api.listQueriesHandler)
	queries.Put("/:name", api.saveQueryHandler)
	queries.Get("/:name", api.getQueryHandler)
	queries.Delete("/:name", api.deleteQueryHandler)
	queries.Get("/:name/search", api.savedSearchHandler)

	app.Get("/history", api.historyHandler)
}

func (api *SearchAPI) renderHandler(c *fiber.Ctx) error {
	var expr solrquery.Expr
	if err := c.BodyParser(&expr); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	res, err := api.engine.Render(&expr)
	if err != nil {
		return queryError(c, err)
	}
	return c.JSON(res)
}

func (api *SearchAPI) searchHandler(c *fiber.Ctx) error {
	var expr solrquery.Expr
	if err := c.BodyParser(&expr); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	return api.runSearch(c, &expr)
}

func (api *SearchAPI) savedSearchHandler(c *fiber.Ctx) error {
	if api.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Saved queries are not configured")
	}
	saved, err := api.store.GetQuery(c.UserContext(), c.Params("name"))
	if err != nil {
		return queryError(c, err)
	}
	return api.runSearch(c, saved.Expr)
}

func (api *SearchAPI) runSearch(c *fiber.Ctx, expr *solrquery.Expr) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.Query("page_size", "0"))
	if err != nil {
		pageSize = 0
	}

	res, err := api.engine.Search(c.UserContext(), expr, page, pageSize)
	if err != nil {
		return queryError(c, err)
	}

	return c.JSON(fiber.Map{
		"query":         res.Query,
		"page":          res.Page,
		"page_size":     res.PageSize,
		"total":         res.NumFound,
		"total_pages":   (res.NumFound + int64(res.PageSize) - 1) / int64(res.PageSize),
		"cached":        res.Cached,
		"response":      res.Response,
		"response_time": res.ResponseTime,
	})
}

type saveQueryRequest struct {
	Description string          `json:"description"`
	Expr        *solrquery.Expr `json:"expr"`
}

func (api *SearchAPI) saveQueryHandler(c *fiber.Ctx) error {
	if api.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Saved queries are not configured")
	}
	var req saveQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	// Only store definitions that build into a valid tree.
	if _, err := api.engine.Build(req.Expr); err != nil {
		return queryError(c, err)
	}

	saved := &models.SavedQuery{
		Name:        utils.CopyString(c.Params("name")),
		Description: req.Description,
		Expr:        req.Expr,
	}
	if err := api.store.SaveQuery(c.UserContext(), saved); err != nil {
		return queryError(c, err)
	}
	return c.JSON(saved)
}

func (api *SearchAPI) getQueryHandler(c *fiber.Ctx) error {
	if api.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Saved queries are not configured")
	}
	saved, err := api.store.GetQuery(c.UserContext(), c.Params("name"))
	if err != nil {
		return queryError(c, err)
	}
	return c.JSON(saved)
}

func (api *SearchAPI) listQueriesHandler(c *fiber.Ctx) error {
	if api.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Saved queries are not configured")
	}
	limit, err := strconv.ParseInt(c.Query("limit", "100"), 10, 64)
	if err != nil || limit < 1 {
		limit = 100
	}
	queries, err := api.store.ListQueries(c.UserContext(), limit)
	if err != nil {
		return queryError(c, err)
	}
	return c.JSON(fiber.Map{"queries": queries})
}

func (api *SearchAPI) deleteQueryHandler(c *fiber.Ctx) error {
	if api.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Saved queries are not configured")
	}
	if err := api.store.DeleteQuery(c.UserContext(), c.Params("name")); err != nil {
		return queryError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (api *SearchAPI) historyHandler(c *fiber.Ctx) error {
	if api.history == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Search history is not configured")
	}
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 1000 {
		limit = 50
	}
	entries, err := api.history.Recent(c.UserContext(), limit)
	if err != nil {
		return queryError(c, err)
	}
	return c.JSON(fiber.Map{"history": entries})
}

func queryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, solrquery.ErrInvalidArgument), errors.Is(err, solrquery.ErrMalformedTree):
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrQueryNotFound):
		return errorResponse(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, query.ErrSearchFailed):
		log.Printf("Search failed: %v", err)
		return errorResponse(c, fiber.StatusBadGateway, "Search failed: "+err.Error())
	}
	log.Printf("Request failed: %v", err)
	return errorResponse(c, fiber.StatusInternalServerError, "Internal error")
}

func errorResponse(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
