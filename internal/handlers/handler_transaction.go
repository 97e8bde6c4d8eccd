package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/dto"
	"github.com/openbooks/ledger_backend/internal/middleware"
)

// transactionHandler handles HTTP requests related to transactions.
type transactionHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newTransactionHandler(svc portssvc.LedgerSvcFacade) *transactionHandler {
	return &transactionHandler{ledgerService: svc}
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, svc portssvc.LedgerSvcFacade) {
	h := newTransactionHandler(svc)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.recordTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.POST("/:transactionID/reverse", h.reverseTransaction)
		transactions.POST("/:transactionID/void", h.voidTransaction)
	}
}

func (h *transactionHandler) recordTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityID := c.Param("entityID")

	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.RecordTransaction(c.Request.Context(), entityID, req)
	if err != nil {
		respondWithError(c, err, "Failed to record transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) getTransaction(c *gin.Context) {
	entityID := c.Param("entityID")
	transactionID := c.Param("transactionID")

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), entityID, transactionID)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) listTransactions(c *gin.Context) {
	entityID := c.Param("entityID")

	txns, err := h.ledgerService.ListTransactions(c.Request.Context(), entityID)
	if err != nil {
		respondWithError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, dto.ToListTransactionResponse(txns))
}

func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityID := c.Param("entityID")
	transactionID := c.Param("transactionID")

	// Body is optional; date and description fall back to sensible defaults.
	var req dto.ReverseTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	reversal, err := h.ledgerService.ReverseTransaction(c.Request.Context(), entityID, transactionID, req)
	if err != nil {
		respondWithError(c, err, "Failed to reverse transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(reversal))
}

func (h *transactionHandler) voidTransaction(c *gin.Context) {
	entityID := c.Param("entityID")
	transactionID := c.Param("transactionID")

	if err := h.ledgerService.VoidTransaction(c.Request.Context(), entityID, transactionID); err != nil {
		respondWithError(c, err, "Failed to void transaction")
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), entityID, transactionID)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve voided transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}
