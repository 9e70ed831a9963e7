package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bclonan/ecfr-analyzer/internal/metrics"
	"github.com/bclonan/ecfr-analyzer/internal/store"
)

// CorpusHandler serves stored titles, parts and sections.
type CorpusHandler struct {
	Store *store.Store
}

func (h *CorpusHandler) Register(g *echo.Group) {
	g.GET("/titles", h.titles)
	g.GET("/parts", h.parts)
	g.GET("/parts/:title/:part", h.partMetric)
	g.GET("/sections", h.sections)
	g.GET("/sections/:uid", h.section)
	g.GET("/changes", h.changes)
}

func (h *CorpusHandler) titles(c echo.Context) error {
	titles, err := h.Store.ListTitles(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, titles)
}

func (h *CorpusHandler) parts(c echo.Context) error {
	title, err := intQuery(c, "title", 0)
	if err != nil {
		return err
	}
	parts, err := h.Store.ListParts(c.Request().Context(), title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, parts)
}

func (h *CorpusHandler) partMetric(c echo.Context) error {
	title, err := strconv.Atoi(c.Param("title"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "title must be numeric")
	}
	pm, err := h.Store.GetPartMetric(c.Request().Context(), title, c.Param("part"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no rollup for that part")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pm)
}

func (h *CorpusHandler) sections(c echo.Context) error {
	title, err := intQuery(c, "title", 0)
	if err != nil {
		return err
	}
	recs, err := h.Store.ListSections(c.Request().Context(), title, c.QueryParam("part"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recs)
}

// sectionResponse joins the section row with its score when one exists.
type sectionResponse struct {
	Section store.SectionRecord    `json:"section"`
	Metric  *metrics.SectionMetric `json:"metric,omitempty"`
}

func (h *CorpusHandler) section(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")
	rec, err := h.Store.GetSection(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown section")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := sectionResponse{Section: rec}
	if m, err := h.Store.GetSectionMetric(ctx, uid); err == nil {
		resp.Metric = &m
	} else if !errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CorpusHandler) changes(c echo.Context) error {
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		return err
	}
	recs, err := h.Store.RecentSections(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recs)
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be numeric")
	}
	return v, nil
}
