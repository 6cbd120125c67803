// Package client はゲームサーバーに接続するwebsocketクライアントです。
// ボットと端末クライアントが使用します。
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"alpaca/server/application"
	"alpaca/server/domain"
)

var ErrNotAssigned = errors.New("session id not assigned yet")

// Client は1つのセッションを表す接続です。
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	mu        sync.RWMutex
	sessionID domain.SessionID
	seq       atomic.Uint32

	assigned  chan struct{}
	snapshots chan *application.Snapshot
}

// Dial はserverURLに接続します。受信はRunを呼ぶまで始まりません。
func Dial(ctx context.Context, serverURL string, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conn:      conn,
		logger:    logger,
		assigned:  make(chan struct{}),
		snapshots: make(chan *application.Snapshot, 1),
	}, nil
}

// Run は接続が切れるかctxがキャンセルされるまで受信を続けます。
// セッションIDが通知されると自動でルームに参加し、pingには自動で応答します。
func (c *Client) Run(ctx context.Context) error {
	defer close(c.snapshots)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := c.handle(ctx, data); err != nil {
			return err
		}
	}
}

func (c *Client) handle(ctx context.Context, data []byte) error {
	header, payloadHeader, body, err := domain.ParseMessage(data)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to parse message", "err", err)
		return nil
	}

	switch payloadHeader.DataType {
	case domain.DataTypeControl:
		switch domain.ControlSubType(payloadHeader.SubType) {
		case domain.ControlSubTypeAssign:
			id := domain.SessionIDFromBytes(header.SessionID)
			c.mu.Lock()
			c.sessionID = id
			c.mu.Unlock()
			c.logger.InfoContext(ctx, "session assigned", "sessionID", id)
			if err := c.write(ctx, domain.EncodeJoinMessage(id, c.nextSeq(), "")); err != nil {
				return fmt.Errorf("join: %w", err)
			}
			close(c.assigned)
		case domain.ControlSubTypePing:
			if err := c.sendControl(ctx, domain.ControlSubTypePong); err != nil {
				return fmt.Errorf("pong: %w", err)
			}
		}
	case domain.DataTypeSnapshot:
		s, err := application.ParseSnapshot(body)
		if err != nil {
			c.logger.WarnContext(ctx, "invalid snapshot", "err", err)
			return nil
		}
		// 最新のスナップショットだけを残す
		select {
		case <-c.snapshots:
		default:
		}
		c.snapshots <- s
	}
	return nil
}

// Assigned はセッションIDが通知されルームに参加するとcloseされます。
func (c *Client) Assigned() <-chan struct{} {
	return c.assigned
}

// Snapshots は最新のスナップショットを受け取るチャネルです。Runが終わるとcloseされます。
func (c *Client) Snapshots() <-chan *application.Snapshot {
	return c.snapshots
}

func (c *Client) SessionID() domain.SessionID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Start はゲームの開始（再開）を要求します。
func (c *Client) Start(ctx context.Context) error {
	return c.sendControl(ctx, domain.ControlSubTypeStart)
}

// SendKey はキー入力を送信します。
func (c *Client) SendKey(ctx context.Context, key string) error {
	id := c.SessionID()
	if id.IsEmpty() {
		return ErrNotAssigned
	}
	return c.write(ctx, domain.EncodeInputMessage(id, c.nextSeq(), key))
}

// Close は正常終了コードで接続を閉じます。
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Client) sendControl(ctx context.Context, subType domain.ControlSubType) error {
	id := c.SessionID()
	if id.IsEmpty() {
		return ErrNotAssigned
	}
	return c.write(ctx, domain.EncodeControlMessage(id, c.nextSeq(), subType))
}

func (c *Client) write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageBinary, data)
}

func (c *Client) nextSeq() uint16 {
	return uint16(c.seq.Add(1))
}
