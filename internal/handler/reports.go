package handler

import (
	"net/http"

	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Summary godoc
// @Summary      Business summary
// @Description  Revenue, collected payments, outstanding balance, batch acquisition cost, operating expenses, and net profit. Cached for a few minutes; any money or stock mutation drops the cache.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SummaryResponse
// @Router       /v1/reports/summary [get]
func (h *ReportsHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
