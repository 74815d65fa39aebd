package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"marketplace-service/internal/models"
	"marketplace-service/internal/observability"
)

// Hub fans room events out to the sessions subscribed to each room. When a
// redis client is configured, events are published to a shared channel so
// every instance (this one included) delivers them to its local sessions;
// without redis, delivery is local only.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[Session]ConnInfo
	rdb    *redis.Client
	stream string
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[Session]ConnInfo),
		rdb:    rdb,
		stream: "marketplace:room-events",
	}
}

func (h *Hub) Subscribe(roomID int64, sess Session, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[Session]ConnInfo)
	}
	h.rooms[roomID][sess] = info
	log.Printf("level=info msg=\"ws subscribe\" room_id=%d conn_id=%s user_id=%d subscribers=%d",
		roomID, info.ConnID, info.UserID, len(h.rooms[roomID]))
}

func (h *Hub) Unsubscribe(roomID int64, sess Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(roomID, sess)
}

// UnsubscribeAll detaches a session from every room. Called on disconnect.
func (h *Hub) UnsubscribeAll(sess Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.rooms {
		h.removeLocked(roomID, sess)
	}
}

func (h *Hub) removeLocked(roomID int64, sess Session) {
	subs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := subs[sess]; !ok {
		return
	}
	delete(subs, sess)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

// Subscribers reports how many sessions are attached to a room.
func (h *Hub) Subscribers(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastMessage delivers a persisted message to the room's subscribers,
// the sender's own sessions included.
func (h *Hub) BroadcastMessage(roomID int64, msg models.EnrichedMessage) {
	h.publish(models.RoomEvent{Type: models.RoomEventMessage, RoomID: roomID, Message: &msg})
}

// BroadcastRead tells subscribers that readerID has marked the room read.
func (h *Hub) BroadcastRead(roomID, readerID int64) {
	h.publish(models.RoomEvent{Type: models.RoomEventRead, RoomID: roomID, ReaderID: readerID})
}

func (h *Hub) publish(event models.RoomEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("level=error msg=\"ws event marshal failed\" room_id=%d error=%v", event.RoomID, err)
		return
	}
	if h.rdb != nil {
		err := h.rdb.Publish(context.Background(), h.stream, payload).Err()
		if err == nil {
			return
		}
		log.Printf("level=warn msg=\"redis publish failed, delivering locally\" room_id=%d error=%v", event.RoomID, err)
	}
	h.deliver(event.RoomID, payload)
}

// Run consumes the shared redis channel and delivers each event to the local
// subscribers. It returns when ctx is cancelled; a no-op without redis.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, h.stream)
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var event models.RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("level=error msg=\"ws bridge payload invalid\" error=%v", err)
				continue
			}
			h.deliver(event.RoomID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) deliver(roomID int64, payload []byte) {
	h.mu.RLock()
	subs := make(map[Session]ConnInfo, len(h.rooms[roomID]))
	for sess, info := range h.rooms[roomID] {
		subs[sess] = info
	}
	h.mu.RUnlock()

	var stale []Session
	for sess, info := range subs {
		if err := sess.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("level=warn msg=\"ws write failed, dropping session\" room_id=%d conn_id=%s user_id=%d error=%v",
				roomID, info.ConnID, info.UserID, err)
			observability.IncWSDroppedFrame("write_error")
			stale = append(stale, sess)
		}
	}
	for _, sess := range stale {
		h.UnsubscribeAll(sess)
		sess.Close()
	}
}
