package ws

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session is the write side of a live connection. Tests substitute in-process
// fakes; real connections are wrapped in a lockedSession before reaching the
// hub.
type Session interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// lockedSession serializes writes to a shared connection. gorilla allows at
// most one writer per conn at a time, and broadcasts arrive from whichever
// goroutine produced the event.
type lockedSession struct {
	mu   sync.Mutex
	next Session
}

func newLockedSession(next Session) *lockedSession {
	return &lockedSession{next: next}
}

func (s *lockedSession) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.WriteMessage(messageType, data)
}

func (s *lockedSession) Close() error {
	return s.next.Close()
}

// ConnInfo carries immutable metadata about a live connection. A fresh value
// is built when the principal is bound; fields are never mutated afterwards.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "conn-unknown"
	}
	return hex.EncodeToString(buf)
}
