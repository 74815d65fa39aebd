package services

import (
	"context"
	"log"

	"marketplace-service/internal/models"
	"marketplace-service/internal/notifications"
	"marketplace-service/internal/repositories"
)

// OfferDecision is the resolution requested by the listing owner.
type OfferDecision string

const (
	DecisionAccept OfferDecision = "ACCEPT"
	DecisionReject OfferDecision = "REJECT"
)

func (d OfferDecision) targetStatus() (models.OfferStatus, error) {
	switch d {
	case DecisionAccept:
		return models.OfferAccepted, nil
	case DecisionReject:
		return models.OfferRejected, nil
	}
	return "", ErrInvalidDecision
}

// ResolveResult is the outcome of a resolved offer. ChatRoomID is set only on
// acceptance.
type ResolveResult struct {
	OfferID    int64              `json:"offer_id"`
	Status     models.OfferStatus `json:"status"`
	ChatRoomID int64              `json:"chat_room_id,omitempty"`
}

// OfferService owns price offer creation and atomic resolution.
type OfferService struct {
	offers   repositories.OfferRepository
	listings repositories.ListingRepository
	members  repositories.MemberRepository
	chat     *ChatService
	notifier notifications.Notifier
}

// NewOfferService constructs an OfferService.
func NewOfferService(
	offers repositories.OfferRepository,
	listings repositories.ListingRepository,
	members repositories.MemberRepository,
	chat *ChatService,
	notifier notifications.Notifier,
) *OfferService {
	return &OfferService{
		offers:   offers,
		listings: listings,
		members:  members,
		chat:     chat,
		notifier: notifier,
	}
}

// Create validates and stores a PENDING offer, then notifies the listing
// owner. At most one pending offer may exist per (listing, offerer).
func (s *OfferService) Create(ctx context.Context, listingID, offererID, price int64, currency models.Currency) (models.PriceOffer, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return models.PriceOffer{}, err
	}

	if !listing.Negotiable {
		return models.PriceOffer{}, ErrNotNegotiable
	}
	if listing.OwnerID == offererID {
		return models.PriceOffer{}, ErrSelfOffer
	}
	if listing.Status != models.ListingAvailable {
		return models.PriceOffer{}, ErrListingNotAvailable
	}
	if price <= 0 {
		return models.PriceOffer{}, ErrInvalidPrice
	}
	if currency == "" {
		currency = listing.Currency
	}
	if !currency.Valid() {
		return models.PriceOffer{}, ErrInvalidCurrency
	}

	pending, err := s.offers.HasPending(ctx, listingID, offererID)
	if err != nil {
		return models.PriceOffer{}, err
	}
	if pending {
		return models.PriceOffer{}, repositories.ErrDuplicatePendingOffer
	}

	offer, err := s.offers.Create(ctx, models.PriceOffer{
		ListingID:      listingID,
		OffererID:      offererID,
		ListingOwnerID: listing.OwnerID,
		OfferedPrice:   price,
		Currency:       currency,
	})
	if err != nil {
		return models.PriceOffer{}, err
	}
	log.Printf("price offer created offer_id=%d listing_id=%d offerer_id=%d price=%d",
		offer.ID, listingID, offererID, price)

	if s.notifier != nil {
		nickname := "unknown"
		if member, err := s.members.Get(ctx, offererID); err == nil {
			nickname = member.Nickname
		}
		s.notifier.OfferReceived(ctx, offer, nickname, listing.ItemName)
	}

	return offer, nil
}

// Resolve moves a PENDING offer to ACCEPTED or REJECTED. The transition is a
// single conditional update in the store; of N concurrent resolvers exactly
// one sees a changed row, the rest get ErrAlreadyResolved. On acceptance the
// chat room for (listing, offerer) is created or reused and returned.
func (s *OfferService) Resolve(ctx context.Context, offerID, actorID int64, decision OfferDecision) (ResolveResult, error) {
	target, err := decision.targetStatus()
	if err != nil {
		return ResolveResult{}, err
	}

	offer, err := s.offers.Get(ctx, offerID)
	if err != nil {
		return ResolveResult{}, err
	}
	if offer.ListingOwnerID != actorID {
		return ResolveResult{}, ErrForbidden
	}
	if offer.Status.Terminal() {
		return ResolveResult{}, ErrAlreadyResolved
	}

	changed, err := s.offers.Resolve(ctx, offerID, target)
	if err != nil {
		return ResolveResult{}, err
	}
	if changed == 0 {
		log.Printf("price offer resolution lost race offer_id=%d", offerID)
		return ResolveResult{}, ErrAlreadyResolved
	}
	log.Printf("price offer resolved offer_id=%d status=%s", offerID, target)

	result := ResolveResult{OfferID: offerID, Status: target}
	if target == models.OfferAccepted {
		room, err := s.chat.GetOrCreateRoom(ctx, offer.ListingID, offer.OffererID)
		if err != nil {
			return ResolveResult{}, err
		}
		result.ChatRoomID = room.ID
	}
	return result, nil
}

// ListForListing returns the offers against a listing. Owner only.
func (s *OfferService) ListForListing(ctx context.Context, listingID, actorID int64) ([]models.PriceOffer, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return s.offers.ListForListing(ctx, listingID)
}
