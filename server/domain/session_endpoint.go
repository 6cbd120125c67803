package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
	// ErrSessionIdle はセッションが一定時間無通信だった場合のクローズ理由です。
	ErrSessionIdle = errors.New("session idle")
)

// DefaultIdleTimeout は無通信とみなすまでの既定の時間です。
const DefaultIdleTimeout = 30 * time.Second

// EndpointConfig はSessionEndpointの動作パラメータです。
type EndpointConfig struct {
	IdleTimeout  time.Duration
	PingInterval time.Duration
}

type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session     *Session
	connection  *Connection
	pubsub      PubSub
	roomManager RoomManager
	heartbeat   *HeartbeatService
	idleTimeout time.Duration

	roomMu sync.Mutex
	roomID RoomID // join時にRoomManagerから取得

	ctrlCh  chan endpointEvent // 制御用チャネル
	writeCh chan []byte        // 書き込み用チャネル

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(ctx context.Context, session *Session, connection *Connection, pubsub PubSub, roomManager RoomManager, cfg EndpointConfig) (*SessionEndpoint, error) {
	if session == nil || connection == nil || pubsub == nil || roomManager == nil {
		return nil, ErrInitializationFailed
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(ctx)
	writeCh := make(chan []byte, 1024)
	se := &SessionEndpoint{
		ctx:         ctx,
		cancel:      cancel,
		session:     session,
		connection:  connection,
		pubsub:      pubsub,
		roomManager: roomManager,
		heartbeat:   NewHeartbeatService(cfg.PingInterval, session.ID(), writeCh),
		idleTimeout: cfg.IdleTimeout,
		ctrlCh:      make(chan endpointEvent, 16),
		writeCh:     writeCh,
	}
	return se, nil
}

// Run は接続が閉じられるまでブロックします。
func (se *SessionEndpoint) Run() error {
	// 自分宛のメッセージを購読
	sessionTopic := SessionTopic(se.session.ID())
	msgCh := se.pubsub.Subscribe(sessionTopic)
	defer se.pubsub.Unsubscribe(sessionTopic, msgCh)

	// セッションID通知を最初に書き込む
	if err := se.Send(EncodeAssignMessage(se.session.ID())); err != nil {
		se.close(err)
		return err
	}

	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.subscribeLoop(ctx, msgCh)
		return nil
	})
	eg.Go(func() error {
		se.heartbeat.Run(ctx)
		return nil
	})

	return eg.Wait()
}

func (se *SessionEndpoint) Send(data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) Close(ctx context.Context) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose})
}

func (se *SessionEndpoint) ForceClose() {
	se.close(nil)
}

// RoomID は参加中のルームIDを返します。未参加なら空です。
func (se *SessionEndpoint) RoomID() RoomID {
	se.roomMu.Lock()
	defer se.roomMu.Unlock()
	return se.roomID
}

// ownerLoop は論理セッションの状態を監視し、必要に応じて接続の管理を行います。
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		case <-ticker.C:
			if ok, reason := se.session.IsIdle(se.idleTimeout); ok {
				slog.InfoContext(ctx, "session idle", "sessionID", se.session.ID(), "reason", reason)
				se.handleControlEvent(ctx, endpointEvent{kind: evClose, err: ErrSessionIdle})
			}
		}
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		data, err := se.connection.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
			}
			return
		}
		se.session.TouchRead()
		se.handleData(ctx, data)
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			if err := se.connection.Write(ctx, data); err != nil {
				if ctx.Err() == nil {
					se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				}
				return
			}
			se.session.TouchWrite()
		}
	}
}

// subscribeLoop はpubsubからのメッセージをwriteChに転送します。
func (se *SessionEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			select {
			case se.writeCh <- msg.Data:
				// 送信成功
			default:
				slog.WarnContext(ctx, "subscribeLoop: writeCh full, message dropped", "sessionID", se.session.ID())
			}
		}
	}
}

func (se *SessionEndpoint) close(cause error) {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	se.leaveRoom(se.ctx)
	se.cancel()
	se.session.Close()

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	code := StatusNormalClosure
	if errors.Is(cause, ErrSessionIdle) {
		code = StatusGoingAway
	}
	se.connection.Close(code, reason)
	in, out := se.connection.Stats()
	slog.InfoContext(se.ctx, "session closed", "sessionID", se.session.ID(), "reason", reason, "bytesIn", in, "bytesOut", out)
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	header, payloadHeader, body, err := ParseMessage(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse message", "err", err)
		return
	}
	if header.SessionID != se.session.ID().Bytes() {
		slog.WarnContext(ctx, "session ID mismatch", "expected", se.session.ID(), "got", SessionIDFromBytes(header.SessionID))
		return
	}

	switch payloadHeader.DataType {
	case DataTypeControl:
		se.handleControlMessage(ctx, ControlSubType(payloadHeader.SubType), data, body)
	case DataTypeInput:
		se.forwardToRoom(ctx, data)
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", payloadHeader.DataType)
	}
}

// forwardToRoom はデータメッセージをroom topicに転送します。
func (se *SessionEndpoint) forwardToRoom(ctx context.Context, data []byte) {
	roomID := se.RoomID()
	if roomID.IsEmpty() {
		slog.WarnContext(ctx, "received data message before joining a room", "sessionID", se.session.ID())
		return
	}
	se.pubsub.Publish(ctx, RoomTopic(roomID), Message{
		SessionID: se.session.ID(),
		Data:      data,
	})
}

func (se *SessionEndpoint) handleControlMessage(ctx context.Context, subType ControlSubType, data, body []byte) {
	switch subType {
	case ControlSubTypeJoin:
		se.joinRoom(ctx, data, body)
	case ControlSubTypeLeave:
		if se.RoomID().IsEmpty() {
			slog.WarnContext(ctx, "session not in any room, cannot leave", "sessionID", se.session.ID())
			return
		}
		se.leaveRoom(ctx)
	case ControlSubTypePong:
		se.sendCtrlEvent(ctx, endpointEvent{kind: evPong})
	case ControlSubTypeStart:
		se.forwardToRoom(ctx, data)
	default:
		slog.DebugContext(ctx, "ignored control message", "sessionID", se.session.ID(), "subType", subType)
	}
}

func (se *SessionEndpoint) joinRoom(ctx context.Context, data, body []byte) {
	payload, err := ParseJoinPayload(body)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse join message", "err", err)
		return
	}
	if !payload.RoomID.IsEmpty() {
		slog.WarnContext(ctx, "joining an existing room is not supported", "sessionID", se.session.ID(), "roomID", payload.RoomID)
		return
	}
	if !se.RoomID().IsEmpty() {
		slog.WarnContext(ctx, "session already joined a room", "sessionID", se.session.ID(), "roomID", se.RoomID())
		return
	}

	roomID, err := se.roomManager.GetRoom(ctx, se.session.ID())
	if err != nil {
		slog.ErrorContext(ctx, "failed to get room", "err", err)
		return
	}

	se.roomMu.Lock()
	se.roomID = roomID
	se.roomMu.Unlock()

	// room ctrl topicにJoinメッセージをpublish（Roomがsessionsに追加）
	se.pubsub.Publish(ctx, RoomCtrlTopic(roomID), Message{SessionID: se.session.ID(), Data: data})
	slog.InfoContext(ctx, "session joined room", "sessionID", se.session.ID(), "roomID", roomID)
}

func (se *SessionEndpoint) leaveRoom(ctx context.Context) {
	se.roomMu.Lock()
	roomID := se.roomID
	se.roomID = ""
	se.roomMu.Unlock()
	if roomID.IsEmpty() {
		return
	}

	se.pubsub.Publish(ctx, RoomCtrlTopic(roomID), Message{
		SessionID: se.session.ID(),
		Data:      EncodeLeaveMessage(se.session.ID()),
	})
	se.roomManager.Release(ctx, roomID, se.session.ID())
	slog.InfoContext(ctx, "session left room", "sessionID", se.session.ID(), "roomID", roomID)
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		se.close(ev.err)
	case evPong:
		se.session.TouchPong()
	case evReadError, evWriteError:
		slog.DebugContext(ctx, "connection error", "sessionID", se.session.ID(), "kind", ev.kind, "err", ev.err)
		se.close(ev.err)
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}
