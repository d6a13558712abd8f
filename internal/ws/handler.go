package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"waz-calendar/internal/auth"
	"waz-calendar/internal/observability"
)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*auth.Session, error)
}

// Handler upgrades authenticated requests to the realtime channel.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier TokenVerifier) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle authenticates with the Authorization header or the token query parameter.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("waz-calendar/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	session, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := newConnInfo(c.Request, session.Username, span.SpanContext().TraceID().String(), time.Now())
	h.hub.AddClient(info.Username, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, wsRoutingKey, wsEvent("ws_connect", info, ""))

	go h.readLoop(conn, info)
}

// readLoop discards client frames and unregisters the connection once it fails.
func (h *Handler) readLoop(conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		if h.hub.RemoveClient(info.Username, conn) {
			observability.DecWSActive()
		}
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(context.Background(), wsRoutingKey, wsEvent("ws_disconnect", info, closeReason))
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.hub.publishWSError(info, err)
			}
			return
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
