package handlers

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/openbooks/ledger_backend/internal/core/money"
	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/middleware"
	"github.com/openbooks/ledger_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidators()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	setupAPIV1Routes(r, cfg, services)
}

// registerCustomValidators wires the "decimal" binding tag so amount strings
// are rejected at bind time with the same rules the core applies.
func registerCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := money.Parse(fl.Field().String())
		return err == nil
	})
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", rateLimitMiddleware(cfg))

	// Every resource is scoped to one entity's books.
	entities := v1.Group("/entities/:entityID")

	registerAccountRoutes(entities, services.Ledger)
	registerTransactionRoutes(entities, services.Ledger)
	registerJournalRoutes(entities, services.Ledger)
	registerReportingRoutes(entities, services.Ledger)
}

func rateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		log.Printf("Warning: invalid RATE_LIMIT %q, falling back to 100-M: %v\n", cfg.RateLimit, err)
		rate, _ = limiter.NewRateFromFormatted("100-M")
	}
	return middleware.RateLimit(limiter.New(memory.NewStore(), rate))
}
