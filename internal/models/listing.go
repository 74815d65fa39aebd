package models

import "time"

// ListingStatus is the trade status of a listing.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "AVAILABLE"
	ListingReserved  ListingStatus = "RESERVED"
	ListingCompleted ListingStatus = "COMPLETED"
)

// Valid reports whether the status is one of the known trade states.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingReserved, ListingCompleted:
		return true
	}
	return false
}

// Currency is the unit a price is denominated in.
type Currency string

const (
	CurrencyBell       Currency = "BELL"
	CurrencyMileTicket Currency = "MILE_TICKET"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyBell, CurrencyMileTicket:
		return true
	}
	return false
}

// Listing is a sell/buy post with a trade status and optional negotiable price.
type Listing struct {
	ID          int64         `db:"id" json:"id"`
	OwnerID     int64         `db:"owner_id" json:"owner_id"`
	ItemName    string        `db:"item_name" json:"item_name"`
	Description string        `db:"description" json:"description"`
	Currency    Currency      `db:"currency" json:"currency"`
	Price       int64         `db:"price" json:"price"`
	Negotiable  bool          `db:"negotiable" json:"negotiable"`
	Status      ListingStatus `db:"status" json:"status"`
	BumpedAt    *time.Time    `db:"bumped_at" json:"bumped_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// LastSurfacedAt is the later of creation and last bump, the anchor for the
// bump cooldown window.
func (l Listing) LastSurfacedAt() time.Time {
	if l.BumpedAt != nil {
		return *l.BumpedAt
	}
	return l.CreatedAt
}
