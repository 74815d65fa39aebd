package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-service/internal/observability"
	"marketplace-service/internal/services"
)

// OfferHandler resolves price offers. Creation and listing live on the
// listing routes; only the terminal transitions are addressed by offer id.
type OfferHandler struct {
	offers *services.OfferService
}

// NewOfferHandler builds an OfferHandler.
func NewOfferHandler(offers *services.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// Accept marks the offer ACCEPTED and opens (or returns) the trade room.
func (h *OfferHandler) Accept(c *gin.Context) {
	h.resolve(c, services.DecisionAccept)
}

// Reject marks the offer REJECTED.
func (h *OfferHandler) Reject(c *gin.Context) {
	h.resolve(c, services.DecisionReject)
}

func (h *OfferHandler) resolve(c *gin.Context, decision services.OfferDecision) {
	offerID, ok := pathID(c, "offer_id")
	if !ok {
		return
	}
	result, err := h.offers.Resolve(c.Request.Context(), offerID, currentUserID(c), decision)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyResolved) {
			observability.IncOfferResolution("conflict")
		}
		respondError(c, err)
		return
	}
	switch decision {
	case services.DecisionAccept:
		observability.IncOfferResolution("accepted")
	case services.DecisionReject:
		observability.IncOfferResolution("rejected")
	}
	c.JSON(http.StatusOK, result)
}
