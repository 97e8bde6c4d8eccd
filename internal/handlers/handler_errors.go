package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/services"
	"github.com/openbooks/ledger_backend/internal/middleware"
)

// respondWithError maps service errors onto HTTP responses. Structural
// misuse carries a stable machine-readable code; business-rule rejections
// come back as 422 so clients can distinguish them from malformed requests.
func respondWithError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var ledgerErr *apperrors.LedgerError
	switch {
	case errors.As(err, &ledgerErr):
		logger.Warn("Request rejected by ledger core",
			slog.String("code", string(ledgerErr.Code)),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": ledgerErr.Message, "code": ledgerErr.Code})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTransactionUnbalanced),
		errors.Is(err, services.ErrTransactionRejected),
		errors.Is(err, services.ErrJournalRejected):
		logger.Warn("Business rule rejection", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
