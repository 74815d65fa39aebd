package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/observability"
	"marketplace-service/internal/services"
)

// LiveHandler serves the single live endpoint. Connections are accepted
// whether or not a credential is presented; an unauthenticated session may
// bind a principal later with an auth frame, and every other frame is
// dropped until it does.
type LiveHandler struct {
	hub      *Hub
	chat     *services.ChatService
	messages *services.MessageService
	verifier auth.Verifier
}

func NewLiveHandler(hub *Hub, chat *services.ChatService, messages *services.MessageService, verifier auth.Verifier) *LiveHandler {
	return &LiveHandler{hub: hub, chat: chat, messages: messages, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is the envelope for everything a session sends us.
type clientFrame struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	RoomID   int64  `json:"room_id,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Content  string `json:"content,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Handle upgrades the connection and starts the frame loop.
func (h *LiveHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("marketplace-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}

	var userID int64
	if token != "" {
		id, err := h.verifier.Verify(token)
		if err != nil {
			// The connection is still upgraded: the client may retry
			// with an auth frame instead of reconnecting.
			log.Printf("level=warn msg=\"ws handshake credential rejected\" error=%v", err)
		} else {
			userID = id
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	log.Printf("level=info msg=\"ws connect\" conn_id=%s user_id=%d ip=%s", info.ConnID, info.UserID, info.IP)

	go h.frameLoop(conn, newLockedSession(conn), info)
}

// frameLoop reads frames until the peer disconnects. Failed frames are
// dropped in place rather than closing the connection; the request context
// from the handshake is gone by the time frames arrive, so service calls run
// on a background context.
func (h *LiveHandler) frameLoop(conn *websocket.Conn, sess Session, info ConnInfo) {
	defer func() {
		h.hub.UnsubscribeAll(sess)
		sess.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		log.Printf("level=info msg=\"ws disconnect\" conn_id=%s user_id=%d duration_ms=%d",
			info.ConnID, info.UserID, time.Since(info.ConnectedAt).Milliseconds())
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			h.drop(info, "malformed", err)
			continue
		}
		info = h.dispatch(context.Background(), sess, info, frame)
	}
}

// dispatch handles one frame and returns the connection info, rebuilt when
// an auth frame binds the principal.
func (h *LiveHandler) dispatch(ctx context.Context, sess Session, info ConnInfo, frame clientFrame) ConnInfo {
	if frame.Type == "auth" {
		return h.bindPrincipal(info, frame)
	}
	if info.UserID == 0 {
		h.drop(info, "unauthenticated", nil)
		return info
	}

	switch frame.Type {
	case "subscribe":
		if _, err := h.chat.GetRoom(ctx, frame.RoomID, info.UserID); err != nil {
			h.drop(info, "forbidden", err)
			return info
		}
		h.hub.Subscribe(frame.RoomID, sess, info)
		observability.IncWSEvent("subscribe")
	case "unsubscribe":
		h.hub.Unsubscribe(frame.RoomID, sess)
		observability.IncWSEvent("unsubscribe")
	case "send":
		input := services.SendInput{
			Kind:     models.MessageKind(frame.Kind),
			Content:  frame.Content,
			ImageURL: frame.ImageURL,
		}
		msg, err := h.messages.Send(ctx, frame.RoomID, info.UserID, input)
		if err != nil {
			h.drop(info, "send_failed", err)
			return info
		}
		h.hub.BroadcastMessage(frame.RoomID, msg)
		observability.IncWSEvent("send")
	case "read":
		if _, err := h.messages.MarkRead(ctx, frame.RoomID, info.UserID); err != nil {
			h.drop(info, "read_failed", err)
			return info
		}
		h.hub.BroadcastRead(frame.RoomID, info.UserID)
		observability.IncWSEvent("read")
	default:
		h.drop(info, "unknown_type", nil)
	}
	return info
}

// bindPrincipal attaches a user to the session. Once bound, the principal is
// fixed for the life of the connection.
func (h *LiveHandler) bindPrincipal(info ConnInfo, frame clientFrame) ConnInfo {
	if info.UserID != 0 {
		h.drop(info, "rebind", nil)
		return info
	}
	userID, err := h.verifier.Verify(frame.Token)
	if err != nil {
		h.drop(info, "bad_credential", err)
		return info
	}
	info.UserID = userID
	observability.IncWSEvent("auth")
	log.Printf("level=info msg=\"ws principal bound\" conn_id=%s user_id=%d", info.ConnID, userID)
	return info
}

func (h *LiveHandler) drop(info ConnInfo, reason string, err error) {
	observability.IncWSDroppedFrame(reason)
	log.Printf("level=warn msg=\"ws frame dropped\" conn_id=%s user_id=%d reason=%s error=%v",
		info.ConnID, info.UserID, reason, err)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
