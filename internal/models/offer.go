package models

import "time"

// OfferStatus is the lifecycle state of a price offer. ACCEPTED and REJECTED
// are terminal.
type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferRejected:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s OfferStatus) Terminal() bool {
	switch s {
	case OfferAccepted, OfferRejected:
		return true
	case OfferPending:
		return false
	}
	return false
}

// PriceOffer is a buyer's proposed price against a listing. ListingOwnerID is
// denormalized so resolution authorization needs no listing lookup.
type PriceOffer struct {
	ID             int64       `db:"id" json:"id"`
	ListingID      int64       `db:"listing_id" json:"listing_id"`
	OffererID      int64       `db:"offerer_id" json:"offerer_id"`
	ListingOwnerID int64       `db:"listing_owner_id" json:"listing_owner_id"`
	OfferedPrice   int64       `db:"offered_price" json:"offered_price"`
	Currency       Currency    `db:"currency" json:"currency"`
	Status         OfferStatus `db:"status" json:"status"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}
