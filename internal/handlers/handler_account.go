package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/dto"
	"github.com/openbooks/ledger_backend/internal/middleware"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newAccountHandler(svc portssvc.LedgerSvcFacade) *accountHandler {
	return &accountHandler{ledgerService: svc}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, svc portssvc.LedgerSvcFacade) {
	h := newAccountHandler(svc)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.DELETE("/:accountID", h.deactivateAccount)
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entityID := c.Param("entityID")

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.ledgerService.CreateAccount(c.Request.Context(), entityID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	entityID := c.Param("entityID")
	accountID := c.Param("accountID")

	account, err := h.ledgerService.GetAccount(c.Request.Context(), entityID, accountID)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	entityID := c.Param("entityID")

	accounts, err := h.ledgerService.ListAccounts(c.Request.Context(), entityID)
	if err != nil {
		respondWithError(c, err, "Failed to list accounts")
		return
	}

	c.JSON(http.StatusOK, dto.ToListAccountResponse(accounts))
}

// deactivateAccount soft-deletes: the account stops accepting new postings
// but keeps its balance and history.
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	entityID := c.Param("entityID")
	accountID := c.Param("accountID")

	if err := h.ledgerService.DeactivateAccount(c.Request.Context(), entityID, accountID); err != nil {
		respondWithError(c, err, "Failed to deactivate account")
		return
	}

	c.Status(http.StatusNoContent)
}
