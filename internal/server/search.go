package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bclonan/ecfr-analyzer/internal/search"
	"github.com/bclonan/ecfr-analyzer/internal/store"
)

// SearchHandler serves full-text and reference lookups.
type SearchHandler struct {
	Store  *store.Store
	Search *search.Index
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.GET("/search", h.fullText)
	g.GET("/refs/search", h.references)
}

func (h *SearchHandler) fullText(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		return err
	}
	hits, err := h.Search.Query(q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hits)
}

func (h *SearchHandler) references(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		return err
	}
	groups, err := h.Store.SearchReferences(c.Request().Context(), q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, groups)
}
