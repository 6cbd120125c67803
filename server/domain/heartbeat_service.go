package domain

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultPingInterval はpingの送信間隔の既定値です。
const DefaultPingInterval = 5 * time.Second

// HeartbeatService は定期的にpingメッセージを送信する死活監視サービスです。
type HeartbeatService struct {
	pingInterval time.Duration
	sessionID    SessionID
	writeCh      chan<- []byte

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewHeartbeatService は新しいHeartbeatServiceを生成します。
func NewHeartbeatService(pingInterval time.Duration, sessionID SessionID, writeCh chan<- []byte) *HeartbeatService {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return &HeartbeatService{
		pingInterval: pingInterval,
		sessionID:    sessionID,
		writeCh:      writeCh,
	}
}

// Run はpingInterval間隔でpingメッセージをwriteChに送信します。
// ctxがキャンセルされると終了します。
func (h *HeartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingMsg := EncodePingMessage(h.sessionID)
			select {
			case h.writeCh <- pingMsg:
				h.sent.Add(1)
				slog.DebugContext(ctx, "heartbeat: ping sent", "sessionID", h.sessionID)
			default:
				h.dropped.Add(1)
				slog.WarnContext(ctx, "heartbeat: writeCh full, ping dropped", "sessionID", h.sessionID)
			}
		}
	}
}

// Counts は送信できたpingと破棄したpingの数を返します。
func (h *HeartbeatService) Counts() (sent, dropped uint64) {
	return h.sent.Load(), h.dropped.Load()
}
