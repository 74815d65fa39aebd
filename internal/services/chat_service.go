package services

import (
	"context"
	"errors"
	"log"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

// ChatService owns chat room creation, reservation, trade completion and
// leaving. Exactly one live room exists per (listing, applicant).
type ChatService struct {
	rooms     repositories.RoomRepository
	listings  repositories.ListingRepository
	lifecycle *ListingService
}

// NewChatService constructs a ChatService.
func NewChatService(rooms repositories.RoomRepository, listings repositories.ListingRepository, lifecycle *ListingService) *ChatService {
	return &ChatService{rooms: rooms, listings: listings, lifecycle: lifecycle}
}

// GetOrCreateRoom returns the live room for (listing, applicant), creating it
// in ACTIVE status on first contact. Idempotent.
func (s *ChatService) GetOrCreateRoom(ctx context.Context, listingID, applicantID int64) (models.ChatRoom, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	if listing.OwnerID == applicantID {
		return models.ChatRoom{}, ErrSelfChat
	}

	room, err := s.rooms.FindByListingAndApplicant(ctx, listingID, applicantID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repositories.ErrRoomNotFound) {
		return models.ChatRoom{}, err
	}

	created, err := s.rooms.Create(ctx, models.ChatRoom{
		ListingID:   listingID,
		OwnerID:     listing.OwnerID,
		ApplicantID: applicantID,
	})
	if err != nil {
		// A concurrent first contact may have hit the unique index first.
		if existing, ferr := s.rooms.FindByListingAndApplicant(ctx, listingID, applicantID); ferr == nil {
			return existing, nil
		}
		return models.ChatRoom{}, err
	}
	log.Printf("chat room created room_id=%d listing_id=%d applicant_id=%d", created.ID, listingID, applicantID)
	return created, nil
}

// GetRoom fetches a room. Participants only.
func (s *ChatService) GetRoom(ctx context.Context, roomID, actorID int64) (models.ChatRoom, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	if err := validateParticipant(room, actorID); err != nil {
		return models.ChatRoom{}, err
	}
	return room, nil
}

// Reserve pins the applicant as the reserved participant. Listing owner only;
// fails if the room is already reserved.
func (s *ChatService) Reserve(ctx context.Context, roomID, actorID int64, scheduledAt *time.Time) (models.ChatRoom, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	if room.OwnerID != actorID {
		return models.ChatRoom{}, ErrForbidden
	}
	if room.ReservedUserID != nil {
		return models.ChatRoom{}, ErrAlreadyReserved
	}

	if err := s.rooms.Reserve(ctx, roomID, room.ApplicantID, scheduledAt); err != nil {
		return models.ChatRoom{}, err
	}
	applicant := room.ApplicantID
	room.ReservedUserID = &applicant
	room.ScheduledTradeAt = scheduledAt
	room.Status = models.RoomReserved
	log.Printf("chat room reserved room_id=%d reserved_user_id=%d", roomID, applicant)
	return room, nil
}

// Unreserve clears the reservation and returns the room to ACTIVE. Listing
// owner only; fails if the room is not reserved.
func (s *ChatService) Unreserve(ctx context.Context, roomID, actorID int64) (models.ChatRoom, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	if room.OwnerID != actorID {
		return models.ChatRoom{}, ErrForbidden
	}
	if room.ReservedUserID == nil {
		return models.ChatRoom{}, ErrNotReserved
	}

	if err := s.rooms.Unreserve(ctx, roomID); err != nil {
		return models.ChatRoom{}, err
	}
	room.ReservedUserID = nil
	room.ScheduledTradeAt = nil
	room.Status = models.RoomActive
	log.Printf("chat room unreserved room_id=%d", roomID)
	return room, nil
}

// CompleteTrade marks the room COMPLETED and moves the listing to COMPLETED
// through the listing lifecycle. Listing owner only; the room must be
// reserved first.
func (s *ChatService) CompleteTrade(ctx context.Context, roomID, actorID int64) (models.ChatRoom, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return models.ChatRoom{}, err
	}
	if room.OwnerID != actorID {
		return models.ChatRoom{}, ErrForbidden
	}
	if room.ReservedUserID == nil {
		return models.ChatRoom{}, ErrNotReserved
	}

	if err := s.rooms.UpdateStatus(ctx, roomID, models.RoomCompleted); err != nil {
		return models.ChatRoom{}, err
	}
	if _, err := s.lifecycle.UpdateStatus(ctx, room.ListingID, actorID, models.ListingCompleted); err != nil {
		return models.ChatRoom{}, err
	}
	room.Status = models.RoomCompleted
	log.Printf("trade completed room_id=%d listing_id=%d", roomID, room.ListingID)
	return room, nil
}

// Leave tombstones the room for the leaving participant. History stays
// queryable by the other side; the row itself is tombstoned only once both
// have left.
func (s *ChatService) Leave(ctx context.Context, roomID, actorID int64) error {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if err := validateParticipant(room, actorID); err != nil {
		return err
	}

	if err := s.rooms.MarkLeft(ctx, roomID, actorID); err != nil {
		return err
	}
	otherLeft, err := s.rooms.HasLeft(ctx, roomID, room.OtherParticipant(actorID))
	if err != nil {
		return err
	}
	if otherLeft {
		if err := s.rooms.SoftDelete(ctx, roomID); err != nil {
			return err
		}
	}
	log.Printf("chat room left room_id=%d user_id=%d", roomID, actorID)
	return nil
}

// RoomsForListing returns the rooms opened against a listing. Listing owner
// only.
func (s *ChatService) RoomsForListing(ctx context.Context, listingID, actorID int64) ([]models.ChatRoom, error) {
	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return s.rooms.ListByListing(ctx, listingID)
}

// validateParticipant is the authorization primitive shared by every room
// operation: only the owner and the applicant may act.
func validateParticipant(room models.ChatRoom, userID int64) error {
	if !room.IsParticipant(userID) {
		return ErrForbidden
	}
	return nil
}
