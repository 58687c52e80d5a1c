// Package ws serves the passive observer channel: every completed move is
// pushed best-effort to all connected viewers. Runs on its own net/http
// listener because the websocket handshake needs net/http semantics.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/kapu/chess-coach-go/internal/adapter/coachpresenter"
	"github.com/kapu/chess-coach-go/internal/coach"
	"github.com/kapu/chess-coach-go/internal/session"
	"github.com/kapu/chess-coach-go/pkg/coachdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// UpdateMessage is the wire frame pushed to observers.
type UpdateMessage struct {
	Type   string             `json:"type"`
	State  coachdto.GameState `json:"state"`
	Report *coachdto.Report   `json:"report"`
}

type Hub struct {
	session *session.Session
	logger  *zap.Logger
}

func NewHub(s *session.Session, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{session: s, logger: logger}
}

// ServeHTTP upgrades the connection, sends the greeting snapshot, then relays
// session updates until the client goes away. A slow client only loses
// updates; it never stalls the session (drops happen at the subscription
// buffer).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode:    websocket.CompressionNoContextTakeover,
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx := r.Context()

	state, report := h.session.GetState()
	if err := h.write(ctx, conn, state, report); err != nil {
		h.logger.Debug("greeting snapshot failed", zap.Error(err))
		return
	}

	updates, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	// Reader goroutine only detects disconnect; clients never send anything
	// meaningful.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutdown")
			return
		case <-readDone:
			conn.Close(websocket.StatusNormalClosure, "client closed")
			return
		case upd, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := h.write(ctx, conn, upd.State, upd.Report); err != nil {
				h.logger.Debug("observer write failed, dropping client", zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, state session.State, report *coach.Report) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, UpdateMessage{
		Type:   "update",
		State:  coachpresenter.ToStateDTO(state),
		Report: coachpresenter.ToReportDTO(report),
	})
}
