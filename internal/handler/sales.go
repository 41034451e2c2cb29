package handler

import (
	"net/http"

	"github.com/walidyoshi/wals-honey-mgmt/internal/apierror"
	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/infra"
	"github.com/walidyoshi/wals-honey-mgmt/internal/middleware"
	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct {
	svc          service.SaleService
	businessName string
	pdfPath      string
}

func NewSalesHandler(svc service.SaleService, businessName, pdfPath string) *SalesHandler {
	return &SalesHandler{svc: svc, businessName: businessName, pdfPath: pdfPath}
}

// Create godoc
// @Summary      Record a new sale
// @Description  Creates a sale with its line items, takes the sold kilograms from each batch, and snapshots the customer name. Unknown customer names create the customer on the fly.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Sale detail"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
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
// @Summary Get one sale with items and payments
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
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
// @Summary List sales
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param search   query string false "Customer name, partial match"
// @Param status   query string false "UNPAID | PARTIAL | PAID"
// @Param archived query string false "false | true | all (default false)"
// @Param page     query int    false "Page (default 1)"
// @Param limit    query int    false "Rows per page (default 50)"
// @Success 200 {object} dto.SaleListResponse
// @Router /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
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
// @Summary      Edit a sale
// @Description  Edits header fields and line items. Quantity changes move the difference in or out of the batch; price or quantity changes re-derive the total and payment status in the same transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Sale UUID"
// @Param        body body dto.UpdateSaleRequest true "Fields to change"
// @Success      200  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id} [put]
func (h *SalesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.UpdateSaleRequest
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
// @Summary      Archive a sale
// @Description  Marks the sale archived with a reason and returns its kilograms to the batches. The row and its payments stay queryable.
// @Tags         sales
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string                 true "Sale UUID"
// @Param        body body dto.ArchiveSaleRequest true "Reason"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.ArchiveSaleRequest
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
// @Summary      Restore an archived sale
// @Description  Clears the archived flag and takes the kilograms back from the batches; fails with 409 when stock has since run out.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {object} dto.SaleResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sales/{id}/restore [post]
func (h *SalesHandler) Restore(c *gin.Context) {
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

// Receipt godoc
// @Summary  Download the sale receipt PDF
// @Tags     sales
// @Produce  application/pdf
// @Security BearerAuth
// @Param    id path string true "Sale UUID"
// @Success  200 {file} file
// @Failure  404 {object} apierror.APIError
// @Router   /v1/sales/{id}/receipt [get]
func (h *SalesHandler) Receipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	sale, err := h.svc.GetRecord(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	path, err := infra.GenerateReceiptPDF(sale, h.businessName, h.pdfPath)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "receipt_"+sale.ID.String()+".pdf")
}
