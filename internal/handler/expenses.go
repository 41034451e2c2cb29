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

type ExpensesHandler struct{ svc service.ExpenseService }

func NewExpensesHandler(svc service.ExpenseService) *ExpensesHandler {
	return &ExpensesHandler{svc: svc}
}

// Create godoc
// @Summary Record an operating expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateExpenseRequest true "Expense"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/expenses [post]
func (h *ExpensesHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseRequest
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
// @Summary Get one expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense UUID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/expenses/{id} [get]
func (h *ExpensesHandler) Get(c *gin.Context) {
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
// @Summary List expenses
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param search   query string false "Item description, partial match"
// @Param archived query string false "false | true | all (default false)"
// @Param page     query int    false "Page (default 1)"
// @Param limit    query int    false "Rows per page (default 50)"
// @Success 200 {object} dto.ExpenseListResponse
// @Router /v1/expenses [get]
func (h *ExpensesHandler) List(c *gin.Context) {
	var filter dto.ExpenseFilter
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
// @Summary Edit an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id   path string                   true "Expense UUID"
// @Param body body dto.UpdateExpenseRequest true "Fields to change"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/expenses/{id} [put]
func (h *ExpensesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.UpdateExpenseRequest
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

// Archive godoc
// @Summary Archive an expense with a reason
// @Tags expenses
// @Accept json
// @Security BearerAuth
// @Param id   path string                    true "Expense UUID"
// @Param body body dto.ArchiveExpenseRequest true "Reason"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/expenses/{id} [delete]
func (h *ExpensesHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.ArchiveExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Archive(c.Request.Context(), middleware.ActorID(c), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Restore godoc
// @Summary Restore an archived expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense UUID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/expenses/{id}/restore [post]
func (h *ExpensesHandler) Restore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.Restore(c.Request.Context(), middleware.ActorID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
