package handler

import (
	"net/http"

	"github.com/walidyoshi/wals-honey-mgmt/internal/apierror"
	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/middleware"
	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BatchesHandler struct{ svc service.BatchService }

func NewBatchesHandler(svc service.BatchService) *BatchesHandler {
	return &BatchesHandler{svc: svc}
}

// Create godoc
// @Summary      Register a honey batch
// @Description  Registers a purchased batch. The batch code encodes the supply group and must match the house format (e.g. A01G05).
// @Tags         batches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateBatchRequest true "Batch detail"
// @Success      201  {object} dto.BatchResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/batches [post]
func (h *BatchesHandler) Create(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Get one batch
// @Tags batches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Batch UUID"
// @Success 200 {object} dto.BatchResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/batches/{id} [get]
func (h *BatchesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List batches
// @Tags batches
// @Produce json
// @Security BearerAuth
// @Param active query string false "true | false | all (default true)"
// @Param search query string false "Batch code or source, partial match"
// @Param page   query int    false "Page (default 1)"
// @Param limit  query int    false "Rows per page (default 50)"
// @Success 200 {object} dto.BatchListResponse
// @Router /v1/batches [get]
func (h *BatchesHandler) List(c *gin.Context) {
	var filter dto.BatchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Edit batch details
// @Description  Edits price, transport cost, supply date, source, bottle counts, or notes. Every applied change lands in the audit trail.
// @Tags         batches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Batch UUID"
// @Param        body body dto.UpdateBatchRequest true "Fields to change"
// @Success      200  {object} dto.BatchResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/batches/{id} [put]
func (h *BatchesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.UpdateBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.ActorID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a batch
// @Description  Hard-deletes a batch that no active sale references. A referenced batch returns 409 — deactivate it instead.
// @Tags         batches
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/batches/{id} [delete]
func (h *BatchesHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deactivate godoc
// @Summary Retire a batch from sale
// @Tags batches
// @Security BearerAuth
// @Param id path string true "Batch UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/batches/{id}/deactivate [post]
func (h *BatchesHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reactivate godoc
// @Summary Put a retired batch back on sale
// @Tags batches
// @Security BearerAuth
// @Param id path string true "Batch UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/batches/{id}/reactivate [post]
func (h *BatchesHandler) Reactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	if err := h.svc.Reactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary      Manual stock correction
// @Description  Applies a signed kilogram delta with a mandatory reason (spillage, recount). A delta that would take the batch negative returns 409.
// @Tags         batches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Batch UUID"
// @Param        body body dto.AdjustStockRequest true "Delta and reason"
// @Success      200  {object} dto.BatchResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/batches/{id}/adjust [post]
func (h *BatchesHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), middleware.ActorID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary List the stock movement history of a batch
// @Tags batches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Batch UUID"
// @Success 200 {array} dto.StockMovementResponse
// @Router /v1/batches/{id}/movements [get]
func (h *BatchesHandler) ListMovements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
