package handler

import (
	"net/http"

	"github.com/walidyoshi/wals-honey-mgmt/internal/apierror"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct{ audit service.AuditRecorder }

func NewAuditHandler(audit service.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit}
}

var auditEntities = map[string]bool{
	model.EntityBatch:   true,
	model.EntitySale:    true,
	model.EntityPayment: true,
	model.EntityExpense: true,
}

// ListForEntity godoc
// @Summary      Change history of one record
// @Description  Returns the audit trail of a batch, sale, payment, or expense: one row per changed field, oldest first.
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        entity path string true "batch | sale | payment | expense"
// @Param        id     path string true "Record UUID"
// @Success      200 {array} dto.AuditLogResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/audit/{entity}/{id} [get]
func (h *AuditHandler) ListForEntity(c *gin.Context) {
	entity := c.Param("entity")
	if !auditEntities[entity] {
		c.JSON(http.StatusBadRequest, apierror.New("unknown entity type"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.audit.ListForEntity(c.Request.Context(), entity, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
