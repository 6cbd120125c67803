package domain

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	// StatusNormalClosure は正常終了を示すクローズコードです。
	StatusNormalClosure int32 = 1000
	// StatusGoingAway はサーバー側の都合で切断する場合のクローズコードです。
	StatusGoingAway int32 = 1001
)

// クローズ理由はcontrol frameに収まる長さに切り詰める
const maxCloseReason = 123

// Connection は物理的な接続を表します。
type Connection struct {
	SessionID SessionID
	transport Transport

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
	once     sync.Once
}

func NewConnection(sessionID SessionID, transport Transport) *Connection {
	return &Connection{
		SessionID: sessionID,
		transport: transport,
	}
}

func (c *Connection) Write(ctx context.Context, data []byte) error {
	if err := c.transport.Write(ctx, data); err != nil {
		return err
	}
	c.bytesOut.Add(uint64(len(data)))
	return nil
}

func (c *Connection) Read(ctx context.Context) ([]byte, error) {
	data, err := c.transport.Read(ctx)
	if err != nil {
		return nil, err
	}
	c.bytesIn.Add(uint64(len(data)))
	return data, nil
}

// Close は接続を1度だけ閉じます。
func (c *Connection) Close(code int32, reason string) {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	c.once.Do(func() {
		_ = c.transport.Close(code, reason)
	})
}

// Stats は送受信したバイト数を返します。
func (c *Connection) Stats() (in, out uint64) {
	return c.bytesIn.Load(), c.bytesOut.Load()
}
