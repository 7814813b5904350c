// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/interfaces/http/handlers"
	"github.com/your-org/eyewear-backend/internal/interfaces/http/middleware"
)

// Handlers groups the handlers mounted under /api/v1
type Handlers struct {
	Lens   *handlers.LensHandler
	Wizard *handlers.WizardHandler
	Cart   *handlers.CartHandler
}

// SetupLensRoutes sets up lens configuration and prescription routes
func SetupLensRoutes(rg *gin.RouterGroup, h *handlers.LensHandler) {
	products := rg.Group("/products")
	{
		products.GET("/:id/lens-config", h.GetLensConfig)
	}

	optics := rg.Group("/optics")
	{
		optics.GET("/axis/convert", handlers.ConvertAxis)
	}

	prescriptions := rg.Group("/prescriptions")
	{
		prescriptions.POST("/validate", h.ValidatePrescription)
	}
}

// SetupWizardRoutes sets up lens wizard session routes
func SetupWizardRoutes(rg *gin.RouterGroup, h *handlers.WizardHandler, cfg *config.Config) {
	wizard := rg.Group("/wizard")
	wizard.Use(middleware.OptionalAuthMiddleware(cfg)) // The cart line goes to the signed-in buyer
	{
		wizard.POST("", h.Open)
		wizard.GET("/:id", h.Get)
		wizard.POST("/:id/events", h.Dispatch)
		wizard.DELETE("/:id/items/:itemId", h.RemoveItem)
		wizard.POST("/:id/cart", h.AddToCart)
		wizard.GET("/:id/quote.pdf", h.Quote)
		wizard.DELETE("/:id", h.Close)
	}
}

// SetupCartRoutes sets up cart routes (guest sessions or authenticated users)
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, cfg *config.Config) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", h.GetCart)
		cart.DELETE("/items/:itemId", h.RemoveItem)
		cart.DELETE("", h.ClearCart)
	}
}

// SetupRoutes mounts every API route
func SetupRoutes(rg *gin.RouterGroup, h Handlers, cfg *config.Config) {
	SetupLensRoutes(rg, h.Lens)
	SetupWizardRoutes(rg, h.Wizard, cfg)
	SetupCartRoutes(rg, h.Cart, cfg)
}
