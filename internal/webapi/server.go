// Package webapi is the HTTP presentation surface. Handlers stay thin:
// writes go through the catalog coordinator so the duplicate and
// validation guards always run, reads go to the product repository.
package webapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pricetrack/pricetrack/internal/app"
	"github.com/pricetrack/pricetrack/internal/store"
)

type Server struct {
	appc app.AppContext
	root *echo.Echo
}

func NewServer(appc app.AppContext) *Server {
	s := &Server{appc: appc, root: echo.New()}
	s.root.HideBanner = true
	s.root.Use(middleware.Recover())
	s.registerProductRoutes()
	s.registerBrowseRoutes()
	return s
}

// Start runs the HTTP listener until it fails or is shut down.
func (s *Server) Start() error {
	cfg := s.appc.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("starting web server", zap.String("addr", addr))
	return s.root.Start(addr)
}

// Echo exposes the underlying router (used in tests).
func (s *Server) Echo() *echo.Echo {
	return s.root
}

type restResult struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

type pagedResult struct {
	Code     string      `json:"code"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, restResult{Code: "OK", Data: data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, restResult{Code: code, Message: message, Detail: detail})
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, pagedResult{
		Code:     "OK",
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// failFor maps the store error taxonomy onto HTTP statuses.
func failFor(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	case errors.Is(err, store.ErrDuplicate):
		return fail(c, http.StatusConflict, "DUPLICATE", "A product with this description and place already exists", nil)
	case errors.Is(err, store.ErrValidation):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Storage operation failed", err.Error())
	}
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}
