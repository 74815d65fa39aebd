package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"marketplace-service/internal/models"
)

type ListingRepositoryMock struct {
	mock.Mock
}

func (m *ListingRepositoryMock) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	args := m.Called(ctx, listing)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingRepositoryMock) Get(ctx context.Context, listingID int64) (models.Listing, error) {
	args := m.Called(ctx, listingID)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingRepositoryMock) ListByIDs(ctx context.Context, listingIDs []int64) (map[int64]models.Listing, error) {
	args := m.Called(ctx, listingIDs)
	var out map[int64]models.Listing
	if val := args.Get(0); val != nil {
		out = val.(map[int64]models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingRepositoryMock) List(ctx context.Context, status *models.ListingStatus, page, size int) ([]models.Listing, int64, error) {
	args := m.Called(ctx, status, page, size)
	var out []models.Listing
	if val := args.Get(0); val != nil {
		out = val.([]models.Listing)
	}
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *ListingRepositoryMock) UpdateStatus(ctx context.Context, listingID int64, status models.ListingStatus) error {
	args := m.Called(ctx, listingID, status)
	return args.Error(0)
}

func (m *ListingRepositoryMock) Bump(ctx context.Context, listingID int64, at time.Time) error {
	args := m.Called(ctx, listingID, at)
	return args.Error(0)
}

func (m *ListingRepositoryMock) SoftDelete(ctx context.Context, listingID int64) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

type OfferRepositoryMock struct {
	mock.Mock
}

func (m *OfferRepositoryMock) Create(ctx context.Context, offer models.PriceOffer) (models.PriceOffer, error) {
	args := m.Called(ctx, offer)
	var out models.PriceOffer
	if val := args.Get(0); val != nil {
		out = val.(models.PriceOffer)
	}
	return out, args.Error(1)
}

func (m *OfferRepositoryMock) Get(ctx context.Context, offerID int64) (models.PriceOffer, error) {
	args := m.Called(ctx, offerID)
	var out models.PriceOffer
	if val := args.Get(0); val != nil {
		out = val.(models.PriceOffer)
	}
	return out, args.Error(1)
}

func (m *OfferRepositoryMock) HasPending(ctx context.Context, listingID, offererID int64) (bool, error) {
	args := m.Called(ctx, listingID, offererID)
	return args.Bool(0), args.Error(1)
}

func (m *OfferRepositoryMock) Resolve(ctx context.Context, offerID int64, target models.OfferStatus) (int64, error) {
	args := m.Called(ctx, offerID, target)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OfferRepositoryMock) ListForListing(ctx context.Context, listingID int64) ([]models.PriceOffer, error) {
	args := m.Called(ctx, listingID)
	var out []models.PriceOffer
	if val := args.Get(0); val != nil {
		out = val.([]models.PriceOffer)
	}
	return out, args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) Create(ctx context.Context, room models.ChatRoom) (models.ChatRoom, error) {
	args := m.Called(ctx, room)
	var out models.ChatRoom
	if val := args.Get(0); val != nil {
		out = val.(models.ChatRoom)
	}
	return out, args.Error(1)
}

func (m *RoomRepositoryMock) Get(ctx context.Context, roomID int64) (models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	var out models.ChatRoom
	if val := args.Get(0); val != nil {
		out = val.(models.ChatRoom)
	}
	return out, args.Error(1)
}

func (m *RoomRepositoryMock) FindByListingAndApplicant(ctx context.Context, listingID, applicantID int64) (models.ChatRoom, error) {
	args := m.Called(ctx, listingID, applicantID)
	var out models.ChatRoom
	if val := args.Get(0); val != nil {
		out = val.(models.ChatRoom)
	}
	return out, args.Error(1)
}

func (m *RoomRepositoryMock) Reserve(ctx context.Context, roomID, reservedUserID int64, scheduledAt *time.Time) error {
	args := m.Called(ctx, roomID, reservedUserID, scheduledAt)
	return args.Error(0)
}

func (m *RoomRepositoryMock) Unreserve(ctx context.Context, roomID int64) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error {
	args := m.Called(ctx, roomID, status)
	return args.Error(0)
}

func (m *RoomRepositoryMock) Touch(ctx context.Context, roomID int64) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) MarkLeft(ctx context.Context, roomID, userID int64) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) HasLeft(ctx context.Context, roomID, userID int64) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) ClearExits(ctx context.Context, roomID int64) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) SoftDelete(ctx context.Context, roomID int64) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) ListByParticipant(ctx context.Context, userID int64, page, size int) ([]models.ChatRoom, int64, error) {
	args := m.Called(ctx, userID, page, size)
	var out []models.ChatRoom
	if val := args.Get(0); val != nil {
		out = val.([]models.ChatRoom)
	}
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *RoomRepositoryMock) ListByListing(ctx context.Context, listingID int64) ([]models.ChatRoom, error) {
	args := m.Called(ctx, listingID)
	var out []models.ChatRoom
	if val := args.Get(0); val != nil {
		out = val.([]models.ChatRoom)
	}
	return out, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, msg)
	var out models.ChatMessage
	if val := args.Get(0); val != nil {
		out = val.(models.ChatMessage)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListByRoom(ctx context.Context, roomID int64) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	var out []models.ChatMessage
	if val := args.Get(0); val != nil {
		out = val.([]models.ChatMessage)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, roomID, readerID int64) (int64, error) {
	args := m.Called(ctx, roomID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) LastByRoomIDs(ctx context.Context, roomIDs []int64) (map[int64]models.ChatMessage, error) {
	args := m.Called(ctx, roomIDs)
	var out map[int64]models.ChatMessage
	if val := args.Get(0); val != nil {
		out = val.(map[int64]models.ChatMessage)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCountByRoomIDs(ctx context.Context, roomIDs []int64, userID int64) (map[int64]int, error) {
	args := m.Called(ctx, roomIDs, userID)
	var out map[int64]int
	if val := args.Get(0); val != nil {
		out = val.(map[int64]int)
	}
	return out, args.Error(1)
}

type MemberRepositoryMock struct {
	mock.Mock
}

func (m *MemberRepositoryMock) Get(ctx context.Context, memberID int64) (models.Member, error) {
	args := m.Called(ctx, memberID)
	var out models.Member
	if val := args.Get(0); val != nil {
		out = val.(models.Member)
	}
	return out, args.Error(1)
}

func (m *MemberRepositoryMock) ListByIDs(ctx context.Context, memberIDs []int64) (map[int64]models.Member, error) {
	args := m.Called(ctx, memberIDs)
	var out map[int64]models.Member
	if val := args.Get(0); val != nil {
		out = val.(map[int64]models.Member)
	}
	return out, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) OfferReceived(ctx context.Context, offer models.PriceOffer, offererNickname, itemName string) {
	m.Called(ctx, offer, offererNickname, itemName)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(token string) (int64, error) {
	args := m.Called(token)
	return args.Get(0).(int64), args.Error(1)
}
