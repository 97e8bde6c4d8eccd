package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/dto"
	"github.com/openbooks/ledger_backend/internal/middleware"
)

// journalHandler handles HTTP requests related to journals.
type journalHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newJournalHandler(svc portssvc.LedgerSvcFacade) *journalHandler {
	return &journalHandler{ledgerService: svc}
}

// registerJournalRoutes registers routes related to journals.
func registerJournalRoutes(rg *gin.RouterGroup, svc portssvc.LedgerSvcFacade) {
	h := newJournalHandler(svc)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.GET("/:journalID", h.getJournal)
		journals.GET("/:journalID/transactions", h.listJournalTransactions)
		journals.POST("/:journalID/transactions", h.addTransaction)
		journals.DELETE("/:journalID/transactions/:transactionID", h.removeTransaction)
	}
}

func (h *journalHandler) createJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityID := c.Param("entityID")

	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	journal, err := h.ledgerService.CreateJournal(c.Request.Context(), entityID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create journal")
		return
	}

	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) getJournal(c *gin.Context) {
	entityID := c.Param("entityID")
	journalID := c.Param("journalID")

	journal, err := h.ledgerService.GetJournal(c.Request.Context(), entityID, journalID)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve journal")
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

func (h *journalHandler) listJournals(c *gin.Context) {
	entityID := c.Param("entityID")

	journals, err := h.ledgerService.ListJournals(c.Request.Context(), entityID)
	if err != nil {
		respondWithError(c, err, "Failed to list journals")
		return
	}

	c.JSON(http.StatusOK, dto.ToListJournalResponse(journals))
}

// listJournalTransactions returns a journal's transactions, optionally
// narrowed to an inclusive ?from=YYYY-MM-DD&to=YYYY-MM-DD day range.
func (h *journalHandler) listJournalTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityID := c.Param("entityID")
	journalID := c.Param("journalID")

	if c.Query("from") == "" && c.Query("to") == "" {
		journal, err := h.ledgerService.GetJournal(c.Request.Context(), entityID, journalID)
		if err != nil {
			respondWithError(c, err, "Failed to retrieve journal")
			return
		}
		c.JSON(http.StatusOK, dto.ToListTransactionResponse(journal.Transactions()))
		return
	}

	var params dto.JournalDateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for journal date range", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range: " + err.Error()})
		return
	}

	txns, err := h.ledgerService.JournalTransactionsByDateRange(c.Request.Context(), entityID, journalID, params.From, params.To)
	if err != nil {
		respondWithError(c, err, "Failed to list journal transactions")
		return
	}

	c.JSON(http.StatusOK, dto.ToListTransactionResponse(txns))
}

func (h *journalHandler) addTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityID := c.Param("entityID")
	journalID := c.Param("journalID")

	var req dto.AddJournalTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddJournalTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := h.ledgerService.AddTransactionToJournal(c.Request.Context(), entityID, journalID, req.TransactionID); err != nil {
		respondWithError(c, err, "Failed to add transaction to journal")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *journalHandler) removeTransaction(c *gin.Context) {
	entityID := c.Param("entityID")
	journalID := c.Param("journalID")
	transactionID := c.Param("transactionID")

	if err := h.ledgerService.RemoveTransactionFromJournal(c.Request.Context(), entityID, journalID, transactionID); err != nil {
		respondWithError(c, err, "Failed to remove transaction from journal")
		return
	}

	c.Status(http.StatusNoContent)
}
