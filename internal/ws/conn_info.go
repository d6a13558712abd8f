package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"waz-calendar/internal/observability"
)

// ConnInfo describes one authenticated websocket connection. It is copied
// into every ws_* event published for that connection.
type ConnInfo struct {
	ConnID      string
	Username    string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnInfo(r *http.Request, username, traceID string, now time.Time) ConnInfo {
	return ConnInfo{
		ConnID:      uuid.NewString(),
		Username:    username,
		DeviceID:    observability.DeviceIDFromRequest(r),
		IP:          observability.IPFromRequest(r),
		RequestID:   observability.RequestIDFromRequest(r),
		TraceID:     traceID,
		ConnectedAt: now,
	}
}
