package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edu-markaz/center-api/internal/service"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
	"github.com/edu-markaz/center-api/pkg/response"
)

// HomeworkHandler handles homework endpoints.
type HomeworkHandler struct {
	service *service.HomeworkService
}

// NewHomeworkHandler constructs a homework handler.
func NewHomeworkHandler(svc *service.HomeworkService) *HomeworkHandler {
	return &HomeworkHandler{service: svc}
}

// List godoc
// @Summary List homework assignments
// @Tags Homeworks
// @Produce json
// @Param group_id query string false "Filter by group"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /homeworks [get]
func (h *HomeworkHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	homeworks, pagination, err := h.service.List(c.Request.Context(), c.Query("group_id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homeworks, pagination)
}

// Get godoc
// @Summary Get nested homework by id
// @Tags Homeworks
// @Produce json
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [get]
func (h *HomeworkHandler) Get(c *gin.Context) {
	homework, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homework, nil)
}

// Create godoc
// @Summary Hand out homework
// @Tags Homeworks
// @Accept json
// @Produce json
// @Param payload body service.HomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Router /homeworks [post]
func (h *HomeworkHandler) Create(c *gin.Context) {
	var req service.HomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	homework, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, homework)
}

// Update godoc
// @Summary Update homework
// @Tags Homeworks
// @Accept json
// @Produce json
// @Param id path string true "Homework ID"
// @Param payload body service.HomeworkRequest true "Homework payload"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [put]
func (h *HomeworkHandler) Update(c *gin.Context) {
	var req service.HomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	homework, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homework, nil)
}

// Delete godoc
// @Summary Delete homework
// @Tags Homeworks
// @Produce json
// @Param id path string true "Homework ID"
// @Success 204
// @Router /homeworks/{id} [delete]
func (h *HomeworkHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
