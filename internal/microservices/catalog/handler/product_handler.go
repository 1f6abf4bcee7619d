package handler

import (
	"net/http"
	"strconv"

	"restaurant-admin/internal/common/httpx"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/catalog/service"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	service service.CatalogServiceInterface
}

func NewProductHandler(svc service.CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{service: svc}
}

func (h *ProductHandler) List(c *gin.Context) {
	onlyAvailable := c.Query("available") == "true"
	limit := atoiDefault(c.Query("limit"), 0)
	offset := atoiDefault(c.Query("offset"), 0)

	products, err := h.service.List(c.Request.Context(), onlyAvailable, limit, offset)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := param(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var in domain.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", "invalid JSON body"))
		return
	}
	p, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := param(c)
	if !ok {
		return
	}
	var in domain.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", "invalid JSON body"))
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := param(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// param reads :id from the route.
func param(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(c, domain.NewValidationError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
