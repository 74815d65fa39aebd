package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-service/internal/models"
)

var (
	ErrOfferNotFound         = errors.New("price offer not found")
	ErrDuplicatePendingOffer = errors.New("pending price offer already exists")
)

// OfferRepository abstracts price offer persistence. Resolve is the
// compare-and-swap primitive: a single conditional UPDATE whose row count
// tells concurrent resolvers apart.
type OfferRepository interface {
	Create(ctx context.Context, offer models.PriceOffer) (models.PriceOffer, error)
	Get(ctx context.Context, offerID int64) (models.PriceOffer, error)
	HasPending(ctx context.Context, listingID, offererID int64) (bool, error)
	Resolve(ctx context.Context, offerID int64, target models.OfferStatus) (int64, error)
	ListForListing(ctx context.Context, listingID int64) ([]models.PriceOffer, error)
}

// OfferRepo is a sqlx implementation of OfferRepository.
type OfferRepo struct {
	db *sqlx.DB
}

// NewOfferRepo constructs an OfferRepo.
func NewOfferRepo(db *sqlx.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

const offerColumns = `id, listing_id, offerer_id, listing_owner_id, offered_price, currency, status, created_at, updated_at`

// Create stores a PENDING offer. The partial unique index on
// (listing_id, offerer_id) for pending live rows backstops the duplicate
// check under concurrent creates.
func (r *OfferRepo) Create(ctx context.Context, offer models.PriceOffer) (models.PriceOffer, error) {
	var stored models.PriceOffer
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO price_offers (listing_id, offerer_id, listing_owner_id, offered_price, currency, status)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING `+offerColumns,
		offer.ListingID, offer.OffererID, offer.ListingOwnerID,
		offer.OfferedPrice, offer.Currency, models.OfferPending)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.PriceOffer{}, ErrDuplicatePendingOffer
	}
	return stored, err
}

// Get fetches a live offer by id.
func (r *OfferRepo) Get(ctx context.Context, offerID int64) (models.PriceOffer, error) {
	var offer models.PriceOffer
	err := r.db.GetContext(ctx, &offer,
		`SELECT `+offerColumns+` FROM price_offers WHERE id=$1 AND deleted_at IS NULL`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PriceOffer{}, ErrOfferNotFound
	}
	return offer, err
}

// HasPending reports whether a PENDING offer exists for (listing, offerer).
func (r *OfferRepo) HasPending(ctx context.Context, listingID, offererID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM price_offers
         WHERE listing_id=$1 AND offerer_id=$2 AND status=$3 AND deleted_at IS NULL)`,
		listingID, offererID, models.OfferPending)
	return exists, err
}

// Resolve atomically moves a PENDING offer to the target status and returns
// the number of rows changed. Zero means another resolver won the race.
func (r *OfferRepo) Resolve(ctx context.Context, offerID int64, target models.OfferStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE price_offers SET status=$2, updated_at=NOW()
         WHERE id=$1 AND status=$3 AND deleted_at IS NULL`,
		offerID, target, models.OfferPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListForListing returns live offers against a listing, newest first.
func (r *OfferRepo) ListForListing(ctx context.Context, listingID int64) ([]models.PriceOffer, error) {
	var offers []models.PriceOffer
	err := r.db.SelectContext(ctx, &offers,
		`SELECT `+offerColumns+` FROM price_offers
         WHERE listing_id=$1 AND deleted_at IS NULL ORDER BY created_at DESC, id DESC`, listingID)
	return offers, err
}
