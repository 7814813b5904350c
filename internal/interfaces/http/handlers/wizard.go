// internal/interfaces/http/handlers/wizard.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/eyewear-backend/internal/domain/configurator"
	"github.com/your-org/eyewear-backend/internal/domain/summary"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
	"github.com/your-org/eyewear-backend/internal/pkg/pdf"
)

// QuoteGenerator renders a printable quote
type QuoteGenerator interface {
	GenerateQuote(in pdf.QuoteInput) (*bytes.Buffer, error)
}

// WizardHandler drives lens configuration sessions
type WizardHandler struct {
	service *configurator.Service
	quotes  QuoteGenerator
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(service *configurator.Service, quotes QuoteGenerator) *WizardHandler {
	return &WizardHandler{
		service: service,
		quotes:  quotes,
	}
}

// OpenWizardRequest starts a wizard for a product
type OpenWizardRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// Open handles POST /wizard
func (h *WizardHandler) Open(c *gin.Context) {
	var req OpenWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.service.Open(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err, "Failed to open lens wizard")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Lens wizard opened successfully",
		"data":    h.service.ViewOf(session),
	})
}

// Get handles GET /wizard/:id
func (h *WizardHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve lens wizard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lens wizard retrieved successfully",
		"data":    h.service.ViewOf(session),
	})
}

// Dispatch handles POST /wizard/:id/events
func (h *WizardHandler) Dispatch(c *gin.Context) {
	var req wizard.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	event, err := req.Decode()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid event",
			"details": err.Error(),
		})
		return
	}

	session, err := h.service.Dispatch(c.Request.Context(), c.Param("id"), event)
	h.respondSession(c, session, err, "Event applied successfully")
}

// RemoveItem handles DELETE /wizard/:id/items/:itemId
func (h *WizardHandler) RemoveItem(c *gin.Context) {
	session, err := h.service.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	h.respondSession(c, session, err, "Item removed successfully")
}

// AddToCart handles POST /wizard/:id/cart
func (h *WizardHandler) AddToCart(c *gin.Context) {
	owner := cartOwner(c)

	session, err := h.service.AddToCart(c.Request.Context(), c.Param("id"), owner)
	h.respondSession(c, session, err, "Item added to cart successfully")
}

// Quote handles GET /wizard/:id/quote.pdf
func (h *WizardHandler) Quote(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve lens wizard")
		return
	}

	in, err := quoteInput(session)
	if err != nil {
		respondError(c, err, "Quote is not available")
		return
	}

	buf, err := h.quotes.GenerateQuote(in)
	if err != nil {
		respondError(c, err, "Failed to generate quote")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=quote-%s.pdf", in.Reference))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Close handles DELETE /wizard/:id
func (h *WizardHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to close lens wizard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lens wizard closed successfully",
	})
}

// respondSession writes the session view. A rejected event still returns the
// view so the client can show the state's error message.
func (h *WizardHandler) respondSession(c *gin.Context, session *configurator.Session, err error, message string) {
	if session == nil {
		respondError(c, err, "Failed to update lens wizard")
		return
	}

	view := h.service.ViewOf(session)
	if err != nil {
		_ = c.Error(err)
		errorMessage := view.State.Error
		if errorMessage == "" {
			errorMessage = wizard.UserMessage(err)
		}
		c.JSON(statusFor(err), gin.H{
			"error":   errorMessage,
			"details": err.Error(),
			"data":    view,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    view,
	})
}

func quoteInput(session *configurator.Session) (pdf.QuoteInput, error) {
	state := session.State()
	catalog := session.Catalog()
	if catalog == nil {
		return pdf.QuoteInput{}, wizard.ErrNotReady
	}
	if state.Step.IsTerminal() {
		return pdf.QuoteInput{}, wizard.ErrSessionClosed
	}

	in := pdf.QuoteInput{
		Reference:    quoteReference(session.ID),
		ProductName:  catalog.Product.Name,
		Summary:      summary.Compute(state, catalog),
		Prescription: state.Prescription,
	}
	if state.LensType != nil {
		in.LensType = state.LensType.Name
	}
	return in, nil
}

func quoteReference(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
