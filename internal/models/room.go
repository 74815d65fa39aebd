package models

import "time"

// RoomStatus is the lifecycle state of a chat room. COMPLETED is terminal;
// RESERVED may fall back to ACTIVE via unreserve.
type RoomStatus string

const (
	RoomActive    RoomStatus = "ACTIVE"
	RoomReserved  RoomStatus = "RESERVED"
	RoomCompleted RoomStatus = "COMPLETED"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomActive, RoomReserved, RoomCompleted:
		return true
	}
	return false
}

// ChatRoom is the unique conversation between a listing's owner and one
// applicant.
type ChatRoom struct {
	ID               int64      `db:"id" json:"id"`
	ListingID        int64      `db:"listing_id" json:"listing_id"`
	OwnerID          int64      `db:"owner_id" json:"owner_id"`
	ApplicantID      int64      `db:"applicant_id" json:"applicant_id"`
	ReservedUserID   *int64     `db:"reserved_user_id" json:"reserved_user_id,omitempty"`
	ScheduledTradeAt *time.Time `db:"scheduled_trade_at" json:"scheduled_trade_at,omitempty"`
	Status           RoomStatus `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// IsParticipant reports whether the user is the owner or the applicant.
func (r ChatRoom) IsParticipant(userID int64) bool {
	return r.OwnerID == userID || r.ApplicantID == userID
}

// OtherParticipant returns the counterparty of the given participant.
func (r ChatRoom) OtherParticipant(userID int64) int64 {
	if r.OwnerID == userID {
		return r.ApplicantID
	}
	return r.OwnerID
}

// RoomSummary is the room-list read model: one room annotated with listing and
// counterparty display data, the last message and the unread count.
type RoomSummary struct {
	Room            ChatRoom   `json:"room"`
	ListingItemName string     `json:"listing_item_name"`
	ListingPrice    *int64     `json:"listing_price,omitempty"`
	ListingStatus   string     `json:"listing_status,omitempty"`
	OtherUserID     int64      `json:"other_user_id"`
	OtherNickname   string     `json:"other_nickname"`
	OtherIsland     string     `json:"other_island,omitempty"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	UnreadCount     int        `json:"unread_count"`
}

// RoomPage is a page of room summaries.
type RoomPage struct {
	Rooms      []RoomSummary `json:"rooms"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	TotalCount int64         `json:"total_count"`
}
