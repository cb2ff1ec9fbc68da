package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	"github.com/noah-isme/sales-daily-api/internal/service"
	"github.com/noah-isme/sales-daily-api/pkg/response"
)

type staffService interface {
	List(ctx context.Context, actor models.Actor, query service.StaffQuery) ([]models.Staff, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id int64) (*models.Staff, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateStaffRequest) (*models.Staff, error)
	Update(ctx context.Context, actor models.Actor, id int64, req dto.UpdateStaffRequest) (*models.Staff, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
}

// StaffHandler handles staff directory endpoints.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler creates a new staff handler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// List godoc
// @Summary List staff
// @Description The caller and, for managers, their direct subordinates
// @Tags Staff
// @Produce json
// @Param department query string false "Department filter"
// @Param role query string false "staff or manager"
// @Param search query string false "Name or email search"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := service.StaffQuery{
		Department: c.Query("department"),
		Role:       c.Query("role"),
		Search:     c.Query("search"),
	}
	query.Page, query.PageSize = pageParams(c)

	staff, pagination, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, pagination)
}

// Get godoc
// @Summary Get staff member
// @Tags Staff
// @Produce json
// @Param id path int true "Staff ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	actor, id, ok := staffActorAndID(c)
	if !ok {
		return
	}
	staff, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Create godoc
// @Summary Register staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body dto.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid staff payload"))
		return
	}

	staff, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staff)
}

// Update godoc
// @Summary Update staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path int true "Staff ID"
// @Param payload body dto.UpdateStaffRequest true "Staff payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	actor, id, ok := staffActorAndID(c)
	if !ok {
		return
	}
	var req dto.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid staff payload"))
		return
	}

	staff, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Delete godoc
// @Summary Delete staff member
// @Tags Staff
// @Param id path int true "Staff ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	actor, id, ok := staffActorAndID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func staffActorAndID(c *gin.Context) (models.Actor, int64, bool) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return models.Actor{}, 0, false
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return models.Actor{}, 0, false
	}
	return actor, id, true
}
