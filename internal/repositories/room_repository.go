package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"marketplace-service/internal/models"
)

var ErrRoomNotFound = errors.New("chat room not found")

// RoomRepository abstracts chat room persistence. Leaving is tracked per
// participant in room_exits; the room row is tombstoned only once both sides
// have left, so history stays queryable by the remaining participant.
type RoomRepository interface {
	Create(ctx context.Context, room models.ChatRoom) (models.ChatRoom, error)
	Get(ctx context.Context, roomID int64) (models.ChatRoom, error)
	FindByListingAndApplicant(ctx context.Context, listingID, applicantID int64) (models.ChatRoom, error)
	Reserve(ctx context.Context, roomID, reservedUserID int64, scheduledAt *time.Time) error
	Unreserve(ctx context.Context, roomID int64) error
	UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error
	Touch(ctx context.Context, roomID int64) error
	MarkLeft(ctx context.Context, roomID, userID int64) error
	HasLeft(ctx context.Context, roomID, userID int64) (bool, error)
	ClearExits(ctx context.Context, roomID int64) error
	SoftDelete(ctx context.Context, roomID int64) error
	ListByParticipant(ctx context.Context, userID int64, page, size int) ([]models.ChatRoom, int64, error)
	ListByListing(ctx context.Context, listingID int64) ([]models.ChatRoom, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, listing_id, owner_id, applicant_id, reserved_user_id, scheduled_trade_at, status, created_at, updated_at`

// Create stores a new ACTIVE room.
func (r *RoomRepo) Create(ctx context.Context, room models.ChatRoom) (models.ChatRoom, error) {
	var stored models.ChatRoom
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO chat_rooms (listing_id, owner_id, applicant_id, status)
         VALUES ($1, $2, $3, $4)
         RETURNING `+roomColumns,
		room.ListingID, room.OwnerID, room.ApplicantID, models.RoomActive)
	return stored, err
}

// Get fetches a live room by id.
func (r *RoomRepo) Get(ctx context.Context, roomID int64) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE id=$1 AND deleted_at IS NULL`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// FindByListingAndApplicant returns the live room for the pair, if any.
func (r *RoomRepo) FindByListingAndApplicant(ctx context.Context, listingID, applicantID int64) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms
         WHERE listing_id=$1 AND applicant_id=$2 AND deleted_at IS NULL`, listingID, applicantID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// Reserve pins the reserved participant and moves the room to RESERVED.
func (r *RoomRepo) Reserve(ctx context.Context, roomID, reservedUserID int64, scheduledAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET reserved_user_id=$2, scheduled_trade_at=$3, status=$4, updated_at=NOW()
         WHERE id=$1 AND deleted_at IS NULL`,
		roomID, reservedUserID, scheduledAt, models.RoomReserved)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRoomNotFound)
}

// Unreserve clears the reservation and moves the room back to ACTIVE.
func (r *RoomRepo) Unreserve(ctx context.Context, roomID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET reserved_user_id=NULL, scheduled_trade_at=NULL, status=$2, updated_at=NOW()
         WHERE id=$1 AND deleted_at IS NULL`,
		roomID, models.RoomActive)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRoomNotFound)
}

// UpdateStatus sets the room lifecycle status.
func (r *RoomRepo) UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET status=$2, updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`,
		roomID, status)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRoomNotFound)
}

// Touch bumps updated_at so the room list sorts by latest activity.
func (r *RoomRepo) Touch(ctx context.Context, roomID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, roomID)
	return err
}

// MarkLeft records that a participant left the room.
func (r *RoomRepo) MarkLeft(ctx context.Context, roomID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_exits (room_id, user_id) VALUES ($1, $2)
         ON CONFLICT (room_id, user_id) DO NOTHING`, roomID, userID)
	return err
}

// HasLeft reports whether a participant has left the room.
func (r *RoomRepo) HasLeft(ctx context.Context, roomID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM room_exits WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// ClearExits makes the room visible again for both sides. New traffic in a
// room a participant had left brings it back to their list.
func (r *RoomRepo) ClearExits(ctx context.Context, roomID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM room_exits WHERE room_id=$1`, roomID)
	return err
}

// SoftDelete tombstones a room once both participants have left.
func (r *RoomRepo) SoftDelete(ctx context.Context, roomID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`,
		roomID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRoomNotFound)
}

// ListByParticipant returns a page of live rooms the user participates in and
// has not left, ordered by latest activity.
func (r *RoomRepo) ListByParticipant(ctx context.Context, userID int64, page, size int) ([]models.ChatRoom, int64, error) {
	const where = `(c.owner_id=$1 OR c.applicant_id=$1) AND c.deleted_at IS NULL
        AND NOT EXISTS (SELECT 1 FROM room_exits e WHERE e.room_id=c.id AND e.user_id=$1)`

	var total int64
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM chat_rooms c WHERE `+where, userID); err != nil {
		return nil, 0, err
	}

	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT c.id, c.listing_id, c.owner_id, c.applicant_id, c.reserved_user_id,
                c.scheduled_trade_at, c.status, c.created_at, c.updated_at
         FROM chat_rooms c WHERE `+where+`
         ORDER BY c.updated_at DESC, c.id DESC LIMIT $2 OFFSET $3`,
		userID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

// ListByListing returns live rooms against a listing.
func (r *RoomRepo) ListByListing(ctx context.Context, listingID int64) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT `+roomColumns+` FROM chat_rooms
         WHERE listing_id=$1 AND deleted_at IS NULL ORDER BY updated_at DESC`, listingID)
	return rooms, err
}
