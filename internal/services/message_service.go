package services

import (
	"context"
	"log"

	"marketplace-service/internal/filter"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

const unknownNickname = "unknown"

// MessageService owns the durable half of the message channel: persistence,
// read receipts, history and the batched room-list read model. Live fan-out
// lives in the ws package and runs only after this layer has persisted.
type MessageService struct {
	rooms     repositories.RoomRepository
	messages  repositories.MessageRepository
	listings  repositories.ListingRepository
	members   repositories.MemberRepository
	profanity *filter.ProfanityFilter
}

// NewMessageService constructs a MessageService.
func NewMessageService(
	rooms repositories.RoomRepository,
	messages repositories.MessageRepository,
	listings repositories.ListingRepository,
	members repositories.MemberRepository,
	profanity *filter.ProfanityFilter,
) *MessageService {
	return &MessageService{
		rooms:     rooms,
		messages:  messages,
		listings:  listings,
		members:   members,
		profanity: profanity,
	}
}

// SendInput carries a message submission. Kind defaults to TEXT.
type SendInput struct {
	Kind     models.MessageKind
	Content  string
	ImageURL string
}

// Send persists a message for a room participant and returns the stored row
// enriched with sender display data. TEXT content passes the profanity mask
// before storage.
func (s *MessageService) Send(ctx context.Context, roomID, senderID int64, input SendInput) (models.EnrichedMessage, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return models.EnrichedMessage{}, err
	}
	if err := validateParticipant(room, senderID); err != nil {
		return models.EnrichedMessage{}, err
	}

	kind := input.Kind
	if kind == "" {
		kind = models.MessageText
	}
	if !kind.Valid() {
		return models.EnrichedMessage{}, ErrInvalidKind
	}

	content := input.Content
	switch kind {
	case models.MessageText:
		if content == "" {
			return models.EnrichedMessage{}, ErrEmptyMessage
		}
		if s.profanity != nil {
			content = s.profanity.Mask(content)
		}
	case models.MessageImage:
		if input.ImageURL == "" {
			return models.EnrichedMessage{}, ErrEmptyMessage
		}
	}

	msg, err := s.messages.Create(ctx, models.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Kind:     kind,
		Content:  content,
		ImageURL: input.ImageURL,
	})
	if err != nil {
		return models.EnrichedMessage{}, err
	}

	// New traffic reorders the sender's and receiver's room lists and brings
	// the room back for a participant who had left it.
	if err := s.rooms.Touch(ctx, roomID); err != nil {
		log.Printf("room touch failed room_id=%d: %v", roomID, err)
	}
	if err := s.rooms.ClearExits(ctx, roomID); err != nil {
		log.Printf("room exit reset failed room_id=%d: %v", roomID, err)
	}

	nickname := unknownNickname
	if member, err := s.members.Get(ctx, senderID); err == nil {
		nickname = member.Nickname
	}

	log.Printf("message stored message_id=%d room_id=%d sender_id=%d kind=%s", msg.ID, roomID, senderID, kind)
	return models.EnrichedMessage{ChatMessage: msg, SenderNickname: nickname}, nil
}

// MarkRead flips read on every unread message in the room not authored by the
// reader. Returns the number flipped; the count feeds logging, correctness
// does not depend on it.
func (s *MessageService) MarkRead(ctx context.Context, roomID, readerID int64) (int64, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if err := validateParticipant(room, readerID); err != nil {
		return 0, err
	}

	count, err := s.messages.MarkRead(ctx, roomID, readerID)
	if err != nil {
		return 0, err
	}
	log.Printf("messages marked read room_id=%d reader_id=%d count=%d", roomID, readerID, count)
	return count, nil
}

// History returns the room's messages in ascending id order, senders enriched
// through one batched member lookup.
func (s *MessageService) History(ctx context.Context, roomID, requesterID int64) ([]models.EnrichedMessage, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := validateParticipant(room, requesterID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []models.EnrichedMessage{}, nil
	}

	senderIDs := make([]int64, 0, 2)
	seen := map[int64]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := s.members.ListByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	enriched := make([]models.EnrichedMessage, 0, len(msgs))
	for _, m := range msgs {
		nickname := unknownNickname
		if sender, ok := senders[m.SenderID]; ok {
			nickname = sender.Nickname
		}
		enriched = append(enriched, models.EnrichedMessage{ChatMessage: m, SenderNickname: nickname})
	}
	return enriched, nil
}

// RoomList returns a page of the user's rooms annotated with listing info,
// the counterparty, the last message and the unread count. With R rooms on
// the page this costs a fixed number of queries, not O(R): one page query
// plus one batched lookup per dependency.
func (s *MessageService) RoomList(ctx context.Context, userID int64, page, size int) (models.RoomPage, error) {
	rooms, total, err := s.rooms.ListByParticipant(ctx, userID, page, size)
	if err != nil {
		return models.RoomPage{}, err
	}

	result := models.RoomPage{
		Rooms:      make([]models.RoomSummary, 0, len(rooms)),
		Page:       page,
		Size:       size,
		TotalCount: total,
	}
	if len(rooms) == 0 {
		return result, nil
	}

	roomIDs := make([]int64, 0, len(rooms))
	listingIDs := make([]int64, 0, len(rooms))
	otherIDs := make([]int64, 0, len(rooms))
	seenListing := map[int64]struct{}{}
	seenOther := map[int64]struct{}{}
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.ID)
		if _, ok := seenListing[room.ListingID]; !ok {
			seenListing[room.ListingID] = struct{}{}
			listingIDs = append(listingIDs, room.ListingID)
		}
		other := room.OtherParticipant(userID)
		if _, ok := seenOther[other]; !ok {
			seenOther[other] = struct{}{}
			otherIDs = append(otherIDs, other)
		}
	}

	listings, err := s.listings.ListByIDs(ctx, listingIDs)
	if err != nil {
		return models.RoomPage{}, err
	}
	others, err := s.members.ListByIDs(ctx, otherIDs)
	if err != nil {
		return models.RoomPage{}, err
	}
	lastMessages, err := s.messages.LastByRoomIDs(ctx, roomIDs)
	if err != nil {
		return models.RoomPage{}, err
	}
	unreadCounts, err := s.messages.UnreadCountByRoomIDs(ctx, roomIDs, userID)
	if err != nil {
		return models.RoomPage{}, err
	}

	for _, room := range rooms {
		summary := models.RoomSummary{
			Room:            room,
			ListingItemName: "deleted listing",
			OtherUserID:     room.OtherParticipant(userID),
			OtherNickname:   unknownNickname,
			UnreadCount:     unreadCounts[room.ID],
		}
		if listing, ok := listings[room.ListingID]; ok {
			price := listing.Price
			summary.ListingItemName = listing.ItemName
			summary.ListingPrice = &price
			summary.ListingStatus = string(listing.Status)
		}
		if other, ok := others[summary.OtherUserID]; ok {
			summary.OtherNickname = other.Nickname
			summary.OtherIsland = other.IslandName
		}
		if last, ok := lastMessages[room.ID]; ok {
			at := last.CreatedAt
			summary.LastMessage = last.Preview()
			summary.LastMessageAt = &at
		}
		result.Rooms = append(result.Rooms, summary)
	}
	return result, nil
}
