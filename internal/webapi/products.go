package webapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pricetrack/pricetrack/internal/currency"
	"github.com/pricetrack/pricetrack/internal/domain"
)

type productPayload struct {
	Description     string  `json:"description"`
	Price           string  `json:"price"`
	PlaceOfPurchase string  `json:"place_of_purchase"`
	Category        string  `json:"category"`
	Image           []byte  `json:"image"`
	Size            string  `json:"size"`
	Quantity        string  `json:"quantity"`
	Barcode         string  `json:"barcode"`
}

// registerProductRoutes registers product CRUD endpoints
func (s *Server) registerProductRoutes() {
	s.root.GET("/api/products", s.listProducts)
	s.root.GET("/api/products/:id", s.getProduct)
	s.root.POST("/api/products", s.createProduct)
	s.root.PUT("/api/products/:id", s.updateProduct)
	s.root.PUT("/api/products/:id/price", s.updateProductPrice)
	s.root.DELETE("/api/products/:id", s.deleteProduct)
	s.root.DELETE("/api/products", s.clearProducts)
}

// parsePrice normalizes and validates the textual price field coming
// from an edit form.
func parsePrice(raw string) (float64, error) {
	normalized := currency.FormatInput(strings.TrimSpace(raw))
	if !currency.IsValid(normalized) {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if normalized == "" {
		return 0, nil
	}
	return strconv.ParseFloat(normalized, 64)
}

func (p *productPayload) toProduct() (*domain.Product, error) {
	price, err := parsePrice(p.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		Description:     strings.TrimSpace(p.Description),
		Price:           price,
		PlaceOfPurchase: strings.TrimSpace(p.PlaceOfPurchase),
		Category:        strings.TrimSpace(p.Category),
		Image:           p.Image,
		Size:            strings.TrimSpace(p.Size),
		Quantity:        strings.TrimSpace(p.Quantity),
		Barcode:         strings.TrimSpace(p.Barcode),
	}, nil
}

func (s *Server) listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))
	place := strings.TrimSpace(c.QueryParam("place"))

	rows, err := s.appc.Products().SearchByDescriptionFiltered(c.Request().Context(), q, category, place)
	if err != nil {
		return failFor(c, err)
	}

	rows = filterByDay(c.QueryParam("date"), rows)

	total := int64(len(rows))
	start := (page - 1) * pageSize
	if start > len(rows) {
		start = len(rows)
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return paged(c, rows[start:end], total, page, pageSize)
}

func (s *Server) getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := s.appc.Products().Get(c.Request().Context(), id)
	if err != nil {
		return failFor(c, err)
	}
	return ok(c, p)
}

func (s *Server) createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if strings.TrimSpace(payload.Description) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Description is required", nil)
	}

	p, err := payload.toProduct()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid price", nil)
	}

	id, err := s.appc.Catalog().AddProduct(c.Request().Context(), p)
	if err != nil {
		return failFor(c, err)
	}
	p.ID = id
	return ok(c, p)
}

func (s *Server) updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if strings.TrimSpace(payload.Description) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Description is required", nil)
	}

	p, err := payload.toProduct()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid price", nil)
	}
	p.ID = id

	if err := s.appc.Catalog().UpdateProduct(c.Request().Context(), p); err != nil {
		return failFor(c, err)
	}
	return ok(c, p)
}

func (s *Server) updateProductPrice(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload struct {
		Price string `json:"price"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse price", err.Error())
	}
	price, err := parsePrice(payload.Price)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid price", nil)
	}

	if err := s.appc.Catalog().UpdatePrice(c.Request().Context(), id, price); err != nil {
		return failFor(c, err)
	}
	return ok(c, map[string]interface{}{"id": id, "price": price})
}

func (s *Server) deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := s.appc.Catalog().DeleteProduct(c.Request().Context(), id); err != nil {
		return failFor(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func (s *Server) clearProducts(c echo.Context) error {
	if err := s.appc.Products().Clear(c.Request().Context()); err != nil {
		return failFor(c, err)
	}
	s.appc.Catalog().OnProductMutated()
	return ok(c, nil)
}
