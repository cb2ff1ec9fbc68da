package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/middleware"
	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/pkg/response"
)

type customerService interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, req dto.CustomerRequest) (*models.Customer, error)
	Update(ctx context.Context, id int64, req dto.CustomerRequest) (*models.Customer, error)
}

// CustomerHandler handles the shared customer directory.
type CustomerHandler struct {
	service customerService
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(svc customerService) *CustomerHandler {
	return &CustomerHandler{service: svc}
}

// List godoc
// @Summary List customers
// @Tags Customers
// @Produce json
// @Param search query string false "Name or company search"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	filter := models.CustomerFilter{Search: c.Query("search")}
	filter.Page, filter.PageSize = pageParams(c)

	customers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customers, pagination)
}

// Get godoc
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	customer, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customer, nil)
}

// Create godoc
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param payload body dto.CustomerRequest true "Customer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid customer payload"))
		return
	}
	customer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.AuditResourceKey, customer.ID)
	response.Created(c, customer)
}

// Update godoc
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param payload body dto.CustomerRequest true "Customer payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid customer payload"))
		return
	}
	customer, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customer, nil)
}
