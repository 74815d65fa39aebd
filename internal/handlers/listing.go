package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
)

// ListingHandler manages listing lifecycle endpoints.
type ListingHandler struct {
	listings *services.ListingService
	offers   *services.OfferService
	chat     *services.ChatService
}

// NewListingHandler builds a ListingHandler.
func NewListingHandler(listings *services.ListingService, offers *services.OfferService, chat *services.ChatService) *ListingHandler {
	return &ListingHandler{listings: listings, offers: offers, chat: chat}
}

// Create registers a new listing owned by the authenticated user.
func (h *ListingHandler) Create(c *gin.Context) {
	var req struct {
		ItemName    string `json:"item_name" binding:"required"`
		Description string `json:"description" binding:"required"`
		Currency    string `json:"currency"`
		Price       int64  `json:"price" binding:"required"`
		Negotiable  bool   `json:"negotiable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), currentUserID(c), services.CreateListingInput{
		ItemName:    req.ItemName,
		Description: req.Description,
		Currency:    models.Currency(req.Currency),
		Price:       req.Price,
		Negotiable:  req.Negotiable,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// Get returns a single listing.
func (h *ListingHandler) Get(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	listing, err := h.listings.Get(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// List returns the listing feed, most recently surfaced first.
func (h *ListingHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	listings, total, err := h.listings.List(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "total": total, "page": page, "size": size})
}

// Bump resurfaces the listing in the feed, subject to the cooldown.
func (h *ListingHandler) Bump(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	listing, err := h.listings.Bump(c.Request.Context(), listingID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// UpdateStatus moves the listing to a new lifecycle status.
func (h *ListingHandler) UpdateStatus(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := h.listings.UpdateStatus(c.Request.Context(), listingID, currentUserID(c), models.ListingStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Delete soft-deletes the listing.
func (h *ListingHandler) Delete(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	if err := h.listings.Delete(c.Request.Context(), listingID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "listing deleted"})
}

// CreateOffer places a price offer against the listing.
func (h *ListingHandler) CreateOffer(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	var req struct {
		Price    int64  `json:"price" binding:"required"`
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offer, err := h.offers.Create(c.Request.Context(), listingID, currentUserID(c), req.Price, models.Currency(req.Currency))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// ListOffers returns the offers on a listing to its owner.
func (h *ListingHandler) ListOffers(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	offers, err := h.offers.ListForListing(c.Request.Context(), listingID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// ListRooms returns the chat rooms opened against a listing to its owner.
func (h *ListingHandler) ListRooms(c *gin.Context) {
	listingID, ok := pathID(c, "listing_id")
	if !ok {
		return
	}
	rooms, err := h.chat.RoomsForListing(c.Request.Context(), listingID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_rooms": rooms})
}
