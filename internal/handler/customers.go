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

type CustomersHandler struct{ svc service.CustomerService }

func NewCustomersHandler(svc service.CustomerService) *CustomersHandler {
	return &CustomersHandler{svc: svc}
}

// Create godoc
// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCustomerRequest true "Customer"
// @Success 201 {object} dto.CustomerResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/customers [post]
func (h *CustomersHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
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
// @Summary Get one customer
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer UUID"
// @Success 200 {object} dto.CustomerResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/customers/{id} [get]
func (h *CustomersHandler) Get(c *gin.Context) {
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
// @Summary List customers
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or phone, partial match"
// @Param page   query int    false "Page (default 1)"
// @Param limit  query int    false "Rows per page (default 50)"
// @Success 200 {object} dto.CustomerListResponse
// @Router /v1/customers [get]
func (h *CustomersHandler) List(c *gin.Context) {
	var filter dto.CustomerFilter
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
// @Summary Edit a customer
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id   path string                    true "Customer UUID"
// @Param body body dto.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} dto.CustomerResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/customers/{id} [put]
func (h *CustomersHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.UpdateCustomerRequest
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
