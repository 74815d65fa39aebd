package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-service/internal/models"
)

// MessageRepository abstracts chat message persistence. The batched lookups
// exist so the room list costs a fixed number of queries, not one per room.
type MessageRepository interface {
	Create(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	ListByRoom(ctx context.Context, roomID int64) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, roomID, readerID int64) (int64, error)
	LastByRoomIDs(ctx context.Context, roomIDs []int64) (map[int64]models.ChatMessage, error)
	UnreadCountByRoomIDs(ctx context.Context, roomIDs []int64, userID int64) (map[int64]int, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, sender_id, kind, content, image_url, read, created_at`

// Create stores a message and returns the stored row with its assigned id.
func (r *MessageRepo) Create(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	var stored models.ChatMessage
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO chat_messages (room_id, sender_id, kind, content, image_url)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+messageColumns,
		msg.RoomID, msg.SenderID, msg.Kind, msg.Content, msg.ImageURL)
	return stored, err
}

// ListByRoom returns the live messages of a room in ascending id order.
func (r *MessageRepo) ListByRoom(ctx context.Context, roomID int64) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM chat_messages
         WHERE room_id=$1 AND deleted_at IS NULL ORDER BY id ASC`, roomID)
	return msgs, err
}

// MarkRead flips read on every unread message in the room not authored by the
// reader and returns the number of rows flipped.
func (r *MessageRepo) MarkRead(ctx context.Context, roomID, readerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_messages SET read=TRUE
         WHERE room_id=$1 AND sender_id<>$2 AND read=FALSE AND deleted_at IS NULL`,
		roomID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LastByRoomIDs returns the last message per room across all given rooms in
// one query. DISTINCT ON with id DESC makes the highest id win, which is the
// tie-break when timestamps collide.
func (r *MessageRepo) LastByRoomIDs(ctx context.Context, roomIDs []int64) (map[int64]models.ChatMessage, error) {
	result := make(map[int64]models.ChatMessage, len(roomIDs))
	if len(roomIDs) == 0 {
		return result, nil
	}

	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT DISTINCT ON (room_id) `+messageColumns+`
         FROM chat_messages
         WHERE room_id = ANY($1) AND deleted_at IS NULL
         ORDER BY room_id, id DESC`,
		pq.Array(roomIDs))
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		result[m.RoomID] = m
	}
	return result, nil
}

// UnreadCountByRoomIDs returns per-room unread counts for the user across all
// given rooms in one grouped query. The user's own messages never count.
func (r *MessageRepo) UnreadCountByRoomIDs(ctx context.Context, roomIDs []int64, userID int64) (map[int64]int, error) {
	result := make(map[int64]int, len(roomIDs))
	if len(roomIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT room_id, COUNT(*) FROM chat_messages
         WHERE room_id = ANY($1) AND sender_id<>$2 AND read=FALSE AND deleted_at IS NULL
         GROUP BY room_id`,
		pq.Array(roomIDs), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var roomID int64
		var count int
		if err := rows.Scan(&roomID, &count); err != nil {
			return nil, err
		}
		result[roomID] = count
	}
	return result, rows.Err()
}
