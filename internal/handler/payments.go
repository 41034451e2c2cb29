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

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Record godoc
// @Summary      Record a payment against a sale
// @Description  Adds a payment and re-derives the sale's payment status in the same transaction. A payment that would push the paid total past the sale total is rejected.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Sale UUID"
// @Param        body body dto.RecordPaymentRequest true "Payment"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id}/payments [post]
func (h *PaymentsHandler) Record(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.RecordPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Record(c.Request.Context(), middleware.ActorID(c), saleID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListBySale godoc
// @Summary List the payments of a sale
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Success 200 {array} dto.PaymentResponse
// @Router /v1/sales/{id}/payments [get]
func (h *PaymentsHandler) ListBySale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.ListBySale(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Edit a payment
// @Description  Changes amount, method, or notes; the owning sale's payment status is re-derived in the same transaction and the amount change is audited.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Payment UUID"
// @Param        body body dto.UpdatePaymentRequest true "Fields to change"
// @Success      200  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/payments/{id} [put]
func (h *PaymentsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.UpdatePaymentRequest
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
// @Summary      Delete a payment
// @Description  Removes the payment after writing an audit snapshot of it; the owning sale's payment status is re-derived in the same transaction.
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Payment UUID"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/payments/{id} [delete]
func (h *PaymentsHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.Delete(c.Request.Context(), middleware.ActorID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
