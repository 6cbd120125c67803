package adapterwebsocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"alpaca/server/domain"
)

// MaxFrameSize はクライアントから受け付ける1フレームの上限です。入力とjoinしか来ないので小さく抑えます。
const MaxFrameSize = 4 << 10

// ErrTextFrame はバイナリプロトコルにテキストフレームが届いた場合のエラーです。
var ErrTextFrame = errors.New("websocket: text frame on binary protocol")

type wsTransport struct {
	conn *websocket.Conn
}

// NewTransportFrom はwebsocket接続をdomain.Transportとして包みます。
func NewTransportFrom(conn *websocket.Conn) domain.Transport {
	conn.SetReadLimit(MaxFrameSize)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageBinary {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTextFrame, len(data))
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, data)
}

func (t *wsTransport) Close(code int32, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}
