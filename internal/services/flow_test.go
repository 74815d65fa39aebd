package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketplace-service/internal/filter"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

// In-memory repositories backing the full negotiation flow below. They mirror
// the store contracts the sqlx implementations promise: conditional updates
// report changed rows, uniqueness holds per (listing, offerer) pending offer
// and per (listing, applicant) live room, and the newest message per room is
// the one with the highest id.

type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	listings map[int64]models.Listing
	offers   map[int64]models.PriceOffer
	rooms    map[int64]models.ChatRoom
	messages map[int64]models.ChatMessage
	members  map[int64]models.Member
	exits    map[int64]map[int64]bool
	deleted  map[int64]bool // room tombstones
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		listings: map[int64]models.Listing{},
		offers:   map[int64]models.PriceOffer{},
		rooms:    map[int64]models.ChatRoom{},
		messages: map[int64]models.ChatMessage{},
		members:  map[int64]models.Member{},
		exits:    map[int64]map[int64]bool{},
		deleted:  map[int64]bool{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memListings struct{ s *memStore }

func (r memListings) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	listing.ID = r.s.id()
	listing.CreatedAt = r.s.clock
	r.s.listings[listing.ID] = listing
	return listing, nil
}

func (r memListings) Get(ctx context.Context, listingID int64) (models.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	listing, ok := r.s.listings[listingID]
	if !ok {
		return models.Listing{}, repositories.ErrListingNotFound
	}
	return listing, nil
}

func (r memListings) ListByIDs(ctx context.Context, listingIDs []int64) (map[int64]models.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[int64]models.Listing{}
	for _, id := range listingIDs {
		if listing, ok := r.s.listings[id]; ok {
			out[id] = listing
		}
	}
	return out, nil
}

func (r memListings) List(ctx context.Context, status *models.ListingStatus, page, size int) ([]models.Listing, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Listing
	for _, listing := range r.s.listings {
		if status == nil || listing.Status == *status {
			out = append(out, listing)
		}
	}
	return out, int64(len(out)), nil
}

func (r memListings) UpdateStatus(ctx context.Context, listingID int64, status models.ListingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	listing, ok := r.s.listings[listingID]
	if !ok {
		return repositories.ErrListingNotFound
	}
	listing.Status = status
	r.s.listings[listingID] = listing
	return nil
}

func (r memListings) Bump(ctx context.Context, listingID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	listing, ok := r.s.listings[listingID]
	if !ok {
		return repositories.ErrListingNotFound
	}
	listing.BumpedAt = &at
	r.s.listings[listingID] = listing
	return nil
}

func (r memListings) SoftDelete(ctx context.Context, listingID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.listings, listingID)
	return nil
}

type memOffers struct{ s *memStore }

func (r memOffers) Create(ctx context.Context, offer models.PriceOffer) (models.PriceOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.offers {
		if existing.ListingID == offer.ListingID && existing.OffererID == offer.OffererID &&
			existing.Status == models.OfferPending {
			return models.PriceOffer{}, repositories.ErrDuplicatePendingOffer
		}
	}
	offer.ID = r.s.id()
	offer.Status = models.OfferPending
	offer.CreatedAt = r.s.clock
	r.s.offers[offer.ID] = offer
	return offer, nil
}

func (r memOffers) Get(ctx context.Context, offerID int64) (models.PriceOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	offer, ok := r.s.offers[offerID]
	if !ok {
		return models.PriceOffer{}, repositories.ErrOfferNotFound
	}
	return offer, nil
}

func (r memOffers) HasPending(ctx context.Context, listingID, offererID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, offer := range r.s.offers {
		if offer.ListingID == listingID && offer.OffererID == offererID && offer.Status == models.OfferPending {
			return true, nil
		}
	}
	return false, nil
}

func (r memOffers) Resolve(ctx context.Context, offerID int64, target models.OfferStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	offer, ok := r.s.offers[offerID]
	if !ok || offer.Status != models.OfferPending {
		return 0, nil
	}
	offer.Status = target
	r.s.offers[offerID] = offer
	return 1, nil
}

func (r memOffers) ListForListing(ctx context.Context, listingID int64) ([]models.PriceOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PriceOffer
	for _, offer := range r.s.offers {
		if offer.ListingID == listingID {
			out = append(out, offer)
		}
	}
	return out, nil
}

type memRooms struct{ s *memStore }

func (r memRooms) Create(ctx context.Context, room models.ChatRoom) (models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room.ID = r.s.id()
	room.Status = models.RoomActive
	room.CreatedAt = r.s.clock
	room.UpdatedAt = r.s.clock
	r.s.rooms[room.ID] = room
	return room, nil
}

func (r memRooms) Get(ctx context.Context, roomID int64) (models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[roomID]
	if !ok || r.s.deleted[roomID] {
		return models.ChatRoom{}, repositories.ErrRoomNotFound
	}
	return room, nil
}

func (r memRooms) FindByListingAndApplicant(ctx context.Context, listingID, applicantID int64) (models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.rooms {
		if room.ListingID == listingID && room.ApplicantID == applicantID && !r.s.deleted[room.ID] {
			return room, nil
		}
	}
	return models.ChatRoom{}, repositories.ErrRoomNotFound
}

func (r memRooms) Reserve(ctx context.Context, roomID, reservedUserID int64, scheduledAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room := r.s.rooms[roomID]
	room.ReservedUserID = &reservedUserID
	room.ScheduledTradeAt = scheduledAt
	room.Status = models.RoomReserved
	r.s.rooms[roomID] = room
	return nil
}

func (r memRooms) Unreserve(ctx context.Context, roomID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room := r.s.rooms[roomID]
	room.ReservedUserID = nil
	room.ScheduledTradeAt = nil
	room.Status = models.RoomActive
	r.s.rooms[roomID] = room
	return nil
}

func (r memRooms) UpdateStatus(ctx context.Context, roomID int64, status models.RoomStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room := r.s.rooms[roomID]
	room.Status = status
	r.s.rooms[roomID] = room
	return nil
}

func (r memRooms) Touch(ctx context.Context, roomID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room := r.s.rooms[roomID]
	room.UpdatedAt = r.s.clock
	r.s.rooms[roomID] = room
	return nil
}

func (r memRooms) MarkLeft(ctx context.Context, roomID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.exits[roomID] == nil {
		r.s.exits[roomID] = map[int64]bool{}
	}
	r.s.exits[roomID][userID] = true
	return nil
}

func (r memRooms) HasLeft(ctx context.Context, roomID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.exits[roomID][userID], nil
}

func (r memRooms) ClearExits(ctx context.Context, roomID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.exits, roomID)
	return nil
}

func (r memRooms) SoftDelete(ctx context.Context, roomID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleted[roomID] = true
	return nil
}

func (r memRooms) ListByParticipant(ctx context.Context, userID int64, page, size int) ([]models.ChatRoom, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ChatRoom
	for _, room := range r.s.rooms {
		if r.s.deleted[room.ID] || !room.IsParticipant(userID) || r.s.exits[room.ID][userID] {
			continue
		}
		out = append(out, room)
	}
	return out, int64(len(out)), nil
}

func (r memRooms) ListByListing(ctx context.Context, listingID int64) ([]models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ChatRoom
	for _, room := range r.s.rooms {
		if room.ListingID == listingID && !r.s.deleted[room.ID] {
			out = append(out, room)
		}
	}
	return out, nil
}

type memMessages struct{ s *memStore }

func (r memMessages) Create(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = r.s.id()
	msg.CreatedAt = r.s.clock
	r.s.messages[msg.ID] = msg
	return msg, nil
}

func (r memMessages) ListByRoom(ctx context.Context, roomID int64) ([]models.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ChatMessage
	for id := int64(1); id <= r.s.nextID; id++ {
		if msg, ok := r.s.messages[id]; ok && msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r memMessages) MarkRead(ctx context.Context, roomID, readerID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, msg := range r.s.messages {
		if msg.RoomID == roomID && msg.SenderID != readerID && !msg.Read {
			msg.Read = true
			r.s.messages[id] = msg
			count++
		}
	}
	return count, nil
}

// LastByRoomIDs resolves created-at ties by the higher id, the same order the
// store query uses.
func (r memMessages) LastByRoomIDs(ctx context.Context, roomIDs []int64) (map[int64]models.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[int64]models.ChatMessage{}
	for _, roomID := range roomIDs {
		for _, msg := range r.s.messages {
			if msg.RoomID != roomID {
				continue
			}
			if best, ok := out[roomID]; !ok || msg.ID > best.ID {
				out[roomID] = msg
			}
		}
	}
	return out, nil
}

func (r memMessages) UnreadCountByRoomIDs(ctx context.Context, roomIDs []int64, userID int64) (map[int64]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[int64]int{}
	for _, roomID := range roomIDs {
		for _, msg := range r.s.messages {
			if msg.RoomID == roomID && msg.SenderID != userID && !msg.Read {
				out[roomID]++
			}
		}
	}
	return out, nil
}

type memMembers struct{ s *memStore }

func (r memMembers) Get(ctx context.Context, memberID int64) (models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	member, ok := r.s.members[memberID]
	if !ok {
		return models.Member{}, repositories.ErrMemberNotFound
	}
	return member, nil
}

func (r memMembers) ListByIDs(ctx context.Context, memberIDs []int64) (map[int64]models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[int64]models.Member{}
	for _, id := range memberIDs {
		if member, ok := r.s.members[id]; ok {
			out[id] = member
		}
	}
	return out, nil
}

func TestNegotiationFlow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.members[7] = models.Member{ID: 7, Nickname: "isabelle", IslandName: "dodo isle"}
	store.members[8] = models.Member{ID: 8, Nickname: "tom"}

	listingService := NewListingService(memListings{store})
	chatService := NewChatService(memRooms{store}, memListings{store}, listingService)
	offerService := NewOfferService(memOffers{store}, memListings{store}, memMembers{store}, chatService, nil)
	messageService := NewMessageService(memRooms{store}, memMessages{store}, memListings{store}, memMembers{store}, filter.NewProfanityFilter())

	// Owner 7 lists an item.
	listing, err := listingService.Create(ctx, 7, CreateListingInput{
		ItemName:    "royal crown",
		Description: "barely worn",
		Price:       1200000,
		Negotiable:  true,
	})
	require.NoError(t, err)
	require.Equal(t, models.ListingAvailable, listing.Status)

	// Applicant 8 offers; a second pending offer from the same applicant is
	// refused.
	offer, err := offerService.Create(ctx, listing.ID, 8, 900000, "")
	require.NoError(t, err)
	_, err = offerService.Create(ctx, listing.ID, 8, 950000, "")
	require.ErrorIs(t, err, repositories.ErrDuplicatePendingOffer)

	// Acceptance opens the room; resolving again conflicts.
	result, err := offerService.Resolve(ctx, offer.ID, 7, DecisionAccept)
	require.NoError(t, err)
	require.NotZero(t, result.ChatRoomID)
	_, err = offerService.Resolve(ctx, offer.ID, 7, DecisionReject)
	require.ErrorIs(t, err, ErrAlreadyResolved)

	// Re-contact reuses the same room.
	room, err := chatService.GetOrCreateRoom(ctx, listing.ID, 8)
	require.NoError(t, err)
	require.Equal(t, result.ChatRoomID, room.ID)

	// Two messages land within the same clock tick; the room list shows the
	// later one by id.
	_, err = messageService.Send(ctx, room.ID, 8, SendInput{Content: "still available?"})
	require.NoError(t, err)
	_, err = messageService.Send(ctx, room.ID, 8, SendInput{Content: "I can come by tonight"})
	require.NoError(t, err)

	page, err := messageService.RoomList(ctx, 7, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)
	summary := page.Rooms[0]
	require.Equal(t, "royal crown", summary.ListingItemName)
	require.Equal(t, "tom", summary.OtherNickname)
	require.Equal(t, "I can come by tonight", summary.LastMessage)
	require.Equal(t, 2, summary.UnreadCount)

	// Owner reads; unread drains.
	count, err := messageService.MarkRead(ctx, room.ID, 7)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	page, err = messageService.RoomList(ctx, 7, 0, 20)
	require.NoError(t, err)
	require.Equal(t, 0, page.Rooms[0].UnreadCount)

	// Reserve, then complete: the room and the listing both finish.
	scheduled := store.clock.Add(24 * time.Hour)
	_, err = chatService.Reserve(ctx, room.ID, 7, &scheduled)
	require.NoError(t, err)
	done, err := chatService.CompleteTrade(ctx, room.ID, 7)
	require.NoError(t, err)
	require.Equal(t, models.RoomCompleted, done.Status)
	finished, err := listingService.Get(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, models.ListingCompleted, finished.Status)

	// The applicant leaves; the room stays visible to the owner and vanishes
	// from the applicant's list. New traffic from the owner brings it back.
	require.NoError(t, chatService.Leave(ctx, room.ID, 8))
	page, err = messageService.RoomList(ctx, 8, 0, 20)
	require.NoError(t, err)
	require.Empty(t, page.Rooms)
	page, err = messageService.RoomList(ctx, 7, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)

	_, err = messageService.Send(ctx, room.ID, 7, SendInput{Content: "thanks again!"})
	require.NoError(t, err)
	page, err = messageService.RoomList(ctx, 8, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)

	// Both gone: the room is tombstoned for everyone.
	require.NoError(t, chatService.Leave(ctx, room.ID, 8))
	require.NoError(t, chatService.Leave(ctx, room.ID, 7))
	_, err = chatService.GetRoom(ctx, room.ID, 7)
	require.ErrorIs(t, err, repositories.ErrRoomNotFound)
}
