package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"restaurant-admin/internal/common/httpx"
	"restaurant-admin/internal/domain"
	authhandlers "restaurant-admin/internal/microservices/auth/handlers"
	"restaurant-admin/internal/microservices/order/service"

	"github.com/gin-gonic/gin"
)

var dashboardStatuses = []string{
	domain.StatusPending,
	domain.StatusConfirmed,
	domain.StatusDelivered,
	domain.StatusCancelled,
}

type OrderHandler struct {
	service service.OrderServiceInterface
	status  StatusUpdater
}

func NewOrderHandler(s service.OrderServiceInterface, status StatusUpdater) *OrderHandler {
	return &OrderHandler{service: s, status: status}
}

// Dashboard shows the newest orders as HTML, or JSON when asked for it.
func (oh *OrderHandler) Dashboard(c *gin.Context) {
	orders, err := oh.service.Recent(c.Request.Context())
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	id, _ := authhandlers.IdentityFrom(c)

	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
		HTMLName: "dashboard.html",
		HTMLData: gin.H{
			"Orders":   orders,
			"Username": id.Username,
			"Flash":    httpx.PopFlash(c),
			"Statuses": dashboardStatuses,
		},
		JSONData: orders,
	})
}

func (oh *OrderHandler) List(c *gin.Context) {
	filter := domain.OrderFilter{
		Status: c.Query("status"),
		Limit:  atoiDefault(c.Query("limit"), 0),
		Offset: atoiDefault(c.Query("offset"), 0),
	}
	orders, err := oh.service.List(c.Request.Context(), filter)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (oh *OrderHandler) Get(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, err := oh.service.Get(c.Request.Context(), id)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (oh *OrderHandler) Create(c *gin.Context) {
	var in domain.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", err.Error()))
		return
	}
	o, err := oh.service.Create(c.Request.Context(), in)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (oh *OrderHandler) Update(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var in domain.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", err.Error()))
		return
	}
	// A status change goes through the same path as the realtime one so
	// connected dashboards hear about it.
	status := strings.TrimSpace(in.Status)
	if status != "" {
		if _, err := domain.NormalizeStatus(status); err != nil {
			httpx.RespondError(c, err)
			return
		}
	}
	in.Status = ""

	o, err := oh.service.Update(c.Request.Context(), id, in)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	if status != "" && status != o.Status {
		actor, _ := authhandlers.IdentityFrom(c)
		updated, err := oh.status.UpdateStatus(c.Request.Context(), actor, id, status)
		if err != nil {
			httpx.RespondError(c, err)
			return
		}
		o.Status = updated.Status
	}
	c.JSON(http.StatusOK, o)
}

func (oh *OrderHandler) Delete(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := oh.service.Delete(c.Request.Context(), id); err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStatus is the HTTP twin of the realtime status_update_request.
func (oh *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var in domain.StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.RespondError(c, domain.NewValidationError("status", "status is required"))
		return
	}
	actor, _ := authhandlers.IdentityFrom(c)
	o, err := oh.status.UpdateStatus(c.Request.Context(), actor, id, in.Status)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(c, domain.NewValidationError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func atoiDefault(s string, d int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
