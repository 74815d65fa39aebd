package services

import (
	"context"
	"log"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

// BumpCooldown is how long a listing must rest between re-surfaces.
const BumpCooldown = 72 * time.Hour

// ListingService owns the listing lifecycle: creation, the trade status, the
// bump cooldown and soft deletion.
type ListingService struct {
	listings repositories.ListingRepository
	now      func() time.Time
}

// NewListingService constructs a ListingService.
func NewListingService(listings repositories.ListingRepository) *ListingService {
	return &ListingService{listings: listings, now: time.Now}
}

// CreateListingInput carries the owner-supplied fields of a new listing.
type CreateListingInput struct {
	ItemName    string
	Description string
	Currency    models.Currency
	Price       int64
	Negotiable  bool
}

// Create validates and stores a new AVAILABLE listing.
func (s *ListingService) Create(ctx context.Context, ownerID int64, input CreateListingInput) (models.Listing, error) {
	if input.ItemName == "" {
		return models.Listing{}, ErrItemNameRequired
	}
	if input.Description == "" {
		return models.Listing{}, ErrDescriptionRequired
	}
	if input.Price < 0 {
		return models.Listing{}, ErrInvalidPrice
	}
	currency := input.Currency
	if currency == "" {
		currency = models.CurrencyBell
	}
	if !currency.Valid() {
		return models.Listing{}, ErrInvalidCurrency
	}

	listing, err := s.listings.Create(ctx, models.Listing{
		OwnerID:     ownerID,
		ItemName:    input.ItemName,
		Description: input.Description,
		Currency:    currency,
		Price:       input.Price,
		Negotiable:  input.Negotiable,
		Status:      models.ListingAvailable,
	})
	if err != nil {
		return models.Listing{}, err
	}
	log.Printf("listing created listing_id=%d owner_id=%d", listing.ID, ownerID)
	return listing, nil
}

// Get fetches a listing.
func (s *ListingService) Get(ctx context.Context, listingID int64) (models.Listing, error) {
	return s.listings.Get(ctx, listingID)
}

// List returns a feed page, optionally filtered by trade status.
func (s *ListingService) List(ctx context.Context, status string, page, size int) ([]models.Listing, int64, error) {
	var filter *models.ListingStatus
	if status != "" {
		parsed := models.ListingStatus(status)
		if !parsed.Valid() {
			return nil, 0, ErrInvalidStatus
		}
		filter = &parsed
	}
	return s.listings.List(ctx, filter, page, size)
}

// Bump re-surfaces a listing. Only the owner may bump, and only once the
// cooldown window has elapsed since the later of creation and last bump.
func (s *ListingService) Bump(ctx context.Context, listingID, actorID int64) (models.Listing, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.OwnerID != actorID {
		return models.Listing{}, ErrForbidden
	}

	now := s.now()
	if now.Before(listing.LastSurfacedAt().Add(BumpCooldown)) {
		return models.Listing{}, ErrBumpCooldown
	}

	if err := s.listings.Bump(ctx, listingID, now); err != nil {
		return models.Listing{}, err
	}
	listing.BumpedAt = &now
	log.Printf("listing bumped listing_id=%d", listingID)
	return listing, nil
}

// UpdateStatus sets the trade status. Only the owner may call; no ordering is
// enforced here. Callers that need the RESERVED precondition check it before
// invoking.
func (s *ListingService) UpdateStatus(ctx context.Context, listingID, actorID int64, target models.ListingStatus) (models.Listing, error) {
	if !target.Valid() {
		return models.Listing{}, ErrInvalidStatus
	}

	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.OwnerID != actorID {
		return models.Listing{}, ErrForbidden
	}

	if err := s.listings.UpdateStatus(ctx, listingID, target); err != nil {
		return models.Listing{}, err
	}
	listing.Status = target
	log.Printf("listing status updated listing_id=%d status=%s", listingID, target)
	return listing, nil
}

// Delete tombstones a listing. Owner only.
func (s *ListingService) Delete(ctx context.Context, listingID, actorID int64) error {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.OwnerID != actorID {
		return ErrForbidden
	}
	if err := s.listings.SoftDelete(ctx, listingID); err != nil {
		return err
	}
	log.Printf("listing deleted listing_id=%d", listingID)
	return nil
}
