// internal/interfaces/http/handlers/lens.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/product"
)

// ProductFinder loads a product with its category
type ProductFinder interface {
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
}

// LensHandler serves resolved lens configurations and prescription checks
type LensHandler struct {
	resolver lens.ConfigResolver
	products ProductFinder
}

// NewLensHandler creates a new lens handler
func NewLensHandler(resolver lens.ConfigResolver, products ProductFinder) *LensHandler {
	return &LensHandler{
		resolver: resolver,
		products: products,
	}
}

// LensConfigResponse is the lens configuration of one product
type LensConfigResponse struct {
	*lens.ResolvedConfig
	TreatmentGroups []lens.TreatmentGroup `json:"treatment_groups"`
	Astigmatism     bool                  `json:"astigmatism"`
}

// ValidatePrescriptionRequest carries a prescription form for one product
type ValidatePrescriptionRequest struct {
	ProductID    uint              `json:"product_id" binding:"required"`
	Prescription prescription.Form `json:"prescription"`
}

// GetLensConfig handles GET /products/:id/lens-config
func (h *LensHandler) GetLensConfig(c *gin.Context) {
	productID, ok := parseUintParam(c, "id", "Invalid product ID")
	if !ok {
		return
	}

	prod, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, "Failed to retrieve product")
		return
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, "Failed to resolve lens configuration")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lens configuration retrieved successfully",
		"data": LensConfigResponse{
			ResolvedConfig:  resolved,
			TreatmentGroups: lens.GroupTreatments(resolved.Treatments),
			Astigmatism:     prod.Category.SupportsAstigmatism(),
		},
	})
}

// ValidatePrescription handles POST /prescriptions/validate
func (h *LensHandler) ValidatePrescription(c *gin.Context) {
	var req ValidatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.products.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err, "Failed to retrieve product")
		return
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err, "Failed to resolve lens configuration")
		return
	}

	form := req.Prescription
	form.Astigmatism = prod.Category.SupportsAstigmatism()
	form = prescription.Normalize(form)

	if err := prescription.ValidateForm(form, &resolved.PrescriptionOptions); err != nil {
		response := gin.H{
			"error":   prescription.UserMessage(err),
			"details": err.Error(),
		}
		var incomplete *prescription.IncompleteSelectionError
		if errors.As(err, &incomplete) {
			response["field"] = incomplete.Field
			response["eye"] = incomplete.Eye
		}
		c.JSON(statusFor(err), response)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Prescription is valid",
		"data":    form,
	})
}

func parseUintParam(c *gin.Context, name, message string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": message,
		})
		return 0, false
	}
	return uint(value), true
}
