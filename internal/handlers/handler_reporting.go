package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/dto"
)

// reportingHandler handles HTTP requests for ledger reports.
type reportingHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newReportingHandler(svc portssvc.LedgerSvcFacade) *reportingHandler {
	return &reportingHandler{ledgerService: svc}
}

// registerReportingRoutes registers routes related to reporting.
func registerReportingRoutes(rg *gin.RouterGroup, svc portssvc.LedgerSvcFacade) {
	h := newReportingHandler(svc)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.trialBalance)
	}
}

func (h *reportingHandler) trialBalance(c *gin.Context) {
	entityID := c.Param("entityID")

	tb, err := h.ledgerService.TrialBalance(c.Request.Context(), entityID)
	if err != nil {
		respondWithError(c, err, "Failed to generate trial balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(tb))
}
