package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"alpaca/server/domain"
	"alpaca/server/handler"
)

// Route はwebsocketの受付とヘルスチェックを登録したハンドラを返します。
func Route(pubsub domain.PubSub, roomManager domain.RoomManager, cfg domain.EndpointConfig) http.Handler {
	var counter handler.RoomCounter
	if c, ok := roomManager.(handler.RoomCounter); ok {
		counter = c
	}

	mux := http.NewServeMux()
	mux.Handle("GET /ws", handler.NewAcceptHandler(pubsub, roomManager, cfg))
	mux.Handle("GET /healthz", handler.NewHealthHandler(counter))
	return otelhttp.NewHandler(mux, "alpaca")
}
