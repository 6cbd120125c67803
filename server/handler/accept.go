package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	adapterwebsocket "alpaca/server/adapter/websocket"
	"alpaca/server/domain"
)

type AcceptHandler struct {
	pubsub      domain.PubSub
	roomManager domain.RoomManager
	cfg         domain.EndpointConfig
}

func NewAcceptHandler(pubsub domain.PubSub, roomManager domain.RoomManager, cfg domain.EndpointConfig) *AcceptHandler {
	return &AcceptHandler{pubsub: pubsub, roomManager: roomManager, cfg: cfg}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	endpoint, err := domain.NewSessionEndpoint(ctx, session, connection, h.pubsub, h.roomManager, h.cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		conn.Close(websocket.StatusInternalError, "initialization failed")
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "sessionID", session.ID())
	if err := endpoint.Run(); err != nil {
		slog.ErrorContext(ctx, "failed to run session endpoint", "err", err)
		return
	}
}
