package webapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/pricetrack/pricetrack/internal/domain"
	"github.com/pricetrack/pricetrack/internal/query"
)

// registerBrowseRoutes registers the stateful browse session endpoints
// plus autocomplete, category, statistics and snapshot endpoints.
func (s *Server) registerBrowseRoutes() {
	s.root.GET("/api/view", s.currentView)
	s.root.PUT("/api/view/search", s.viewSearch)
	s.root.DELETE("/api/view/search", s.viewClearSearch)
	s.root.PUT("/api/view/filter", s.viewFilter)
	s.root.PUT("/api/view/barcode", s.viewBarcode)
	s.root.DELETE("/api/view/filter", s.viewClearFilters)

	s.root.GET("/api/places/suggest", s.suggestPlaces)
	s.root.GET("/api/categories", s.listCategories)
	s.root.GET("/api/prices/summary", s.priceSummary)

	s.root.GET("/api/export/products.csv", s.exportCSV)
	s.root.GET("/api/export/products.json", s.exportJSON)
	s.root.GET("/api/export/products.xlsx", s.exportXLSX)
	s.root.POST("/api/import/products", s.importCSV)
}

// filterByDay narrows rows to those updated on the given day. The date
// string is parsed leniently; an unparseable value means no constraint.
func filterByDay(raw string, rows []domain.Product) []domain.Product {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return rows
	}
	day, err := dateparse.ParseIn(raw, time.Local)
	if err != nil {
		return rows
	}
	return query.Filter(rows, query.DateCriterion{Date: &day})
}

func (s *Server) currentView(c echo.Context) error {
	searchMode, filterMode := s.appc.Catalog().Modes()
	return ok(c, map[string]interface{}{
		"search_mode": searchMode,
		"filter_mode": filterMode,
		"products":    s.appc.Catalog().Visible(),
	})
}

func (s *Server) viewSearch(c echo.Context) error {
	s.appc.Catalog().SetSearchText(strings.TrimSpace(c.QueryParam("q")))
	return ok(c, nil)
}

func (s *Server) viewClearSearch(c echo.Context) error {
	s.appc.Catalog().ClearSearch()
	return ok(c, nil)
}

func (s *Server) viewFilter(c echo.Context) error {
	s.appc.Catalog().ApplyAttributeFilter(
		strings.TrimSpace(c.QueryParam("category")),
		strings.TrimSpace(c.QueryParam("place")),
	)
	return ok(c, nil)
}

func (s *Server) viewBarcode(c echo.Context) error {
	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Barcode is required", nil)
	}
	s.appc.Catalog().ApplyBarcodeFilter(code)
	return ok(c, nil)
}

func (s *Server) viewClearFilters(c echo.Context) error {
	s.appc.Catalog().ClearFilters()
	return ok(c, nil)
}

func (s *Server) suggestPlaces(c echo.Context) error {
	places, err := s.appc.Catalog().PlacePredictions(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return failFor(c, err)
	}
	return ok(c, places)
}

func (s *Server) listCategories(c echo.Context) error {
	sentinel := s.appc.GetSettingsStringValue("catalog", "sentinel_category")
	categories, err := s.appc.Products().DistinctCategories(c.Request().Context(), sentinel)
	if err != nil {
		return failFor(c, err)
	}
	return ok(c, categories)
}

// priceSummary reports aggregate price figures over the products
// matching the optional category/place constraints.
func (s *Server) priceSummary(c echo.Context) error {
	rows, err := s.appc.Products().FilterBy(c.Request().Context(),
		strings.TrimSpace(c.QueryParam("category")),
		strings.TrimSpace(c.QueryParam("place")))
	if err != nil {
		return failFor(c, err)
	}
	if len(rows) == 0 {
		return ok(c, map[string]interface{}{"count": 0})
	}

	prices := make([]float64, 0, len(rows))
	for _, p := range rows {
		prices = append(prices, p.Price)
	}
	min, _ := stats.Min(prices)
	max, _ := stats.Max(prices)
	mean, _ := stats.Mean(prices)
	median, _ := stats.Median(prices)

	return ok(c, map[string]interface{}{
		"count":  len(rows),
		"min":    min,
		"max":    max,
		"mean":   mean,
		"median": median,
	})
}

func (s *Server) exportCSV(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return s.appc.Exporter().ExportCSV(c.Request().Context(), c.Response())
}

func (s *Server) exportJSON(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.json"`)
	return s.appc.Exporter().ExportJSON(c.Request().Context(), c.Response())
}

func (s *Server) exportXLSX(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	return s.appc.Exporter().ExportXLSX(c.Request().Context(), c.Response())
}

func (s *Server) importCSV(c echo.Context) error {
	inserted, skipped, err := s.appc.Exporter().ImportCSV(c.Request().Context(), c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse snapshot", err.Error())
	}
	return ok(c, map[string]interface{}{"inserted": inserted, "skipped": skipped})
}
