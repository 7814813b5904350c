// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/checkout"
	"github.com/your-org/eyewear-backend/internal/domain/configurator"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"github.com/your-org/eyewear-backend/internal/domain/summary"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var incomplete *prescription.IncompleteSelectionError
	var stepIncomplete *wizard.StepIncompleteError
	var cartErr *wizard.CartSubmissionError

	switch {
	case errors.Is(err, configurator.ErrSessionNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, summary.ErrItemNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.As(err, &incomplete),
		errors.As(err, &stepIncomplete),
		errors.Is(err, prescription.ErrNoEyeEnabled),
		errors.Is(err, wizard.ErrUnknownOption),
		errors.Is(err, wizard.ErrInvalidQuantity),
		errors.Is(err, wizard.ErrNoProgressiveVariants),
		errors.Is(err, summary.ErrItemNotRemovable),
		errors.Is(err, checkout.ErrCouponInvalid),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, cart.ErrProductUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrNoPreviousStep),
		errors.Is(err, wizard.ErrNotReady),
		errors.Is(err, wizard.ErrSessionClosed),
		errors.Is(err, wizard.ErrStaleResolution),
		errors.Is(err, configurator.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrCouponServiceUnavailable),
		errors.Is(err, lens.ErrConfigUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, cart.ErrNoOwner):
		return http.StatusBadRequest
	// Cart rejections the buyer can fix are matched above
	case errors.As(err, &cartErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error response. Server errors hide their cause.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{
			"error": message,
		})
		return
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
