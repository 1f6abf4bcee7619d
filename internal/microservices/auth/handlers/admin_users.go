package handlers

import (
	"net/http"
	"strconv"

	"restaurant-admin/internal/common/httpx"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/auth/service"

	"github.com/gin-gonic/gin"
)

type AdminUserHandler struct {
	service service.AdminServiceInterface
}

func NewAdminUserHandler(s service.AdminServiceInterface) *AdminUserHandler {
	return &AdminUserHandler{service: s}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(c, domain.NewValidationError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *AdminUserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminUserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminUserHandler) Create(c *gin.Context) {
	var in domain.AdminUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", "invalid JSON body"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AdminUserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.AdminUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", "invalid JSON body"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminUserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor, _ := IdentityFrom(c)
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
