package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketplace-service/internal/models"
)

type fakeSession struct {
	mu       sync.Mutex
	payloads [][]byte
	writeErr error
	closed   bool
}

func (s *fakeSession) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.payloads = append(s.payloads, data)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func TestBroadcastMessageReachesAllSubscribers(t *testing.T) {
	hub := NewHub(nil)
	owner := &fakeSession{}
	applicant := &fakeSession{}
	hub.Subscribe(21, owner, ConnInfo{ConnID: "a", UserID: 7})
	hub.Subscribe(21, applicant, ConnInfo{ConnID: "b", UserID: 8})

	hub.BroadcastMessage(21, models.EnrichedMessage{
		ChatMessage:    models.ChatMessage{ID: 100, RoomID: 21, SenderID: 8, Content: "hello"},
		SenderNickname: "tom",
	})

	require.Equal(t, 1, owner.received())
	require.Equal(t, 1, applicant.received())

	var event models.RoomEvent
	require.NoError(t, json.Unmarshal(owner.payloads[0], &event))
	require.Equal(t, models.RoomEventMessage, event.Type)
	require.Equal(t, int64(21), event.RoomID)
	require.NotNil(t, event.Message)
	require.Equal(t, "tom", event.Message.SenderNickname)
}

func TestBroadcastScopedToRoom(t *testing.T) {
	hub := NewHub(nil)
	inRoom := &fakeSession{}
	elsewhere := &fakeSession{}
	hub.Subscribe(21, inRoom, ConnInfo{ConnID: "a"})
	hub.Subscribe(22, elsewhere, ConnInfo{ConnID: "b"})

	hub.BroadcastRead(21, 8)

	require.Equal(t, 1, inRoom.received())
	require.Equal(t, 0, elsewhere.received())
}

func TestBroadcastReadCarriesReader(t *testing.T) {
	hub := NewHub(nil)
	sess := &fakeSession{}
	hub.Subscribe(21, sess, ConnInfo{ConnID: "a"})

	hub.BroadcastRead(21, 8)

	var event models.RoomEvent
	require.NoError(t, json.Unmarshal(sess.payloads[0], &event))
	require.Equal(t, models.RoomEventRead, event.Type)
	require.Equal(t, int64(8), event.ReaderID)
}

func TestWriteFailureEvictsSession(t *testing.T) {
	hub := NewHub(nil)
	healthy := &fakeSession{}
	broken := &fakeSession{writeErr: errors.New("pipe closed")}
	hub.Subscribe(21, healthy, ConnInfo{ConnID: "a"})
	hub.Subscribe(21, broken, ConnInfo{ConnID: "b"})

	hub.BroadcastRead(21, 8)

	require.Equal(t, 1, hub.Subscribers(21))
	require.True(t, broken.closed)

	hub.BroadcastRead(21, 8)
	require.Equal(t, 2, healthy.received())
}

func TestUnsubscribeAllClearsEveryRoom(t *testing.T) {
	hub := NewHub(nil)
	sess := &fakeSession{}
	hub.Subscribe(21, sess, ConnInfo{ConnID: "a"})
	hub.Subscribe(22, sess, ConnInfo{ConnID: "a"})

	hub.UnsubscribeAll(sess)

	require.Equal(t, 0, hub.Subscribers(21))
	require.Equal(t, 0, hub.Subscribers(22))
}

func TestConcurrentSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		sess := &fakeSession{}
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			hub.Subscribe(n%4, sess, ConnInfo{UserID: n})
		}(int64(i))
		go func(n int64) {
			defer wg.Done()
			hub.BroadcastRead(n%4, n)
		}(int64(i))
	}
	wg.Wait()

	total := 0
	for roomID := int64(0); roomID < 4; roomID++ {
		total += hub.Subscribers(roomID)
	}
	require.Equal(t, 16, total)
}

func TestUnsubscribeUnknownSessionIsNoop(t *testing.T) {
	hub := NewHub(nil)
	hub.Unsubscribe(21, &fakeSession{})
	require.Equal(t, 0, hub.Subscribers(21))
}

// overlapSession flags any two writes that run at the same time.
type overlapSession struct {
	inflight   atomic.Int32
	overlapped atomic.Bool
	writes     atomic.Int32
}

func (s *overlapSession) WriteMessage(messageType int, data []byte) error {
	if s.inflight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	time.Sleep(time.Millisecond)
	s.writes.Add(1)
	s.inflight.Add(-1)
	return nil
}

func (s *overlapSession) Close() error { return nil }

func TestSharedSessionWritesAreSerialized(t *testing.T) {
	hub := NewHub(nil)
	raw := &overlapSession{}
	sess := newLockedSession(raw)
	hub.Subscribe(21, sess, ConnInfo{ConnID: "a", UserID: 7})
	hub.Subscribe(22, sess, ConnInfo{ConnID: "a", UserID: 7})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.BroadcastRead(21, 8)
		}()
		go func() {
			defer wg.Done()
			hub.BroadcastRead(22, 8)
		}()
	}
	wg.Wait()

	require.False(t, raw.overlapped.Load(), "two writers entered the session at once")
	require.Equal(t, int32(16), raw.writes.Load())
}
