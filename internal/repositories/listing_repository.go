package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-service/internal/models"
)

var ErrListingNotFound = errors.New("listing not found")

// ListingRepository abstracts listing persistence.
type ListingRepository interface {
	Create(ctx context.Context, listing models.Listing) (models.Listing, error)
	Get(ctx context.Context, listingID int64) (models.Listing, error)
	ListByIDs(ctx context.Context, listingIDs []int64) (map[int64]models.Listing, error)
	List(ctx context.Context, status *models.ListingStatus, page, size int) ([]models.Listing, int64, error)
	UpdateStatus(ctx context.Context, listingID int64, status models.ListingStatus) error
	Bump(ctx context.Context, listingID int64, at time.Time) error
	SoftDelete(ctx context.Context, listingID int64) error
}

// ListingRepo is a sqlx implementation of ListingRepository.
type ListingRepo struct {
	db *sqlx.DB
}

// NewListingRepo constructs a ListingRepo.
func NewListingRepo(db *sqlx.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

const listingColumns = `id, owner_id, item_name, description, currency, price, negotiable, status, bumped_at, created_at, updated_at`

// Create stores a new listing and returns the stored row.
func (r *ListingRepo) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	var stored models.Listing
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO listings (owner_id, item_name, description, currency, price, negotiable, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+listingColumns,
		listing.OwnerID, listing.ItemName, listing.Description, listing.Currency,
		listing.Price, listing.Negotiable, listing.Status)
	return stored, err
}

// Get fetches a live listing by id.
func (r *ListingRepo) Get(ctx context.Context, listingID int64) (models.Listing, error) {
	var listing models.Listing
	err := r.db.GetContext(ctx, &listing,
		`SELECT `+listingColumns+` FROM listings WHERE id=$1 AND deleted_at IS NULL`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrListingNotFound
	}
	return listing, err
}

// ListByIDs fetches live listings for all given ids in one query.
func (r *ListingRepo) ListByIDs(ctx context.Context, listingIDs []int64) (map[int64]models.Listing, error) {
	result := make(map[int64]models.Listing, len(listingIDs))
	if len(listingIDs) == 0 {
		return result, nil
	}

	var listings []models.Listing
	err := r.db.SelectContext(ctx, &listings,
		`SELECT `+listingColumns+` FROM listings WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(listingIDs))
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		result[l.ID] = l
	}
	return result, nil
}

// List returns a feed page ordered by the later of bump and creation time.
func (r *ListingRepo) List(ctx context.Context, status *models.ListingStatus, page, size int) ([]models.Listing, int64, error) {
	where := `deleted_at IS NULL`
	args := []interface{}{}
	if status != nil {
		where += ` AND status=$1`
		args = append(args, *status)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM listings WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` + where +
		` ORDER BY COALESCE(bumped_at, created_at) DESC, id DESC`
	if status != nil {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, size, page*size)

	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// UpdateStatus sets the trade status of a live listing.
func (r *ListingRepo) UpdateStatus(ctx context.Context, listingID int64, status models.ListingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET status=$2, updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`,
		listingID, status)
	if err != nil {
		return err
	}
	return requireRow(res, ErrListingNotFound)
}

// Bump records a re-surface timestamp.
func (r *ListingRepo) Bump(ctx context.Context, listingID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET bumped_at=$2, updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`,
		listingID, at)
	if err != nil {
		return err
	}
	return requireRow(res, ErrListingNotFound)
}

// SoftDelete tombstones a listing.
func (r *ListingRepo) SoftDelete(ctx context.Context, listingID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`,
		listingID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrListingNotFound)
}

func requireRow(res sql.Result, missing error) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return missing
	}
	return nil
}
