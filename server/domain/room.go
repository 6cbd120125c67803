package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type RoomID string

func (id RoomID) String() string { return string(id) }

func (id RoomID) IsEmpty() bool { return id == "" }

var ErrRoomBusy = errors.New("room control channel is full")

// DefaultTickInterval は60Hz相当のtick間隔です。
const DefaultTickInterval = 16 * time.Millisecond

type roomSendKind uint8

const (
	roomSendBroadcast roomSendKind = iota + 1
	roomSendTo
)

type roomSend struct {
	kind      roomSendKind
	sessionID SessionID
	data      []byte
}

// Room は1つのApplicationを固定tickで駆動するループです。
// Applicationへのアクセスは全てRunのgoroutineに直列化されます。
type Room struct {
	ID       RoomID
	sessions map[SessionID]struct{}

	pubsub      PubSub
	application Application // 外部からアプリケーションロジックを注入できる

	sendCh chan roomSend
	ready  chan struct{}

	tickInterval time.Duration
}

func NewRoom(id RoomID, pubsub PubSub, application Application, tickInterval time.Duration) *Room {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Room{
		ID:           id,
		sessions:     make(map[SessionID]struct{}),
		pubsub:       pubsub,
		application:  application,
		sendCh:       make(chan roomSend, 1024),
		ready:        make(chan struct{}),
		tickInterval: tickInterval,
	}
}

// Ready はRunがトピックの購読を終えるとcloseされます。
func (r *Room) Ready() <-chan struct{} {
	return r.ready
}

func (r *Room) Broadcast(ctx context.Context, data []byte) {
	for sessionID := range r.sessions {
		r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{SessionID: sessionID, Data: data})
	}
}

func (r *Room) SendTo(ctx context.Context, sessionID SessionID, data []byte) {
	r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{SessionID: sessionID, Data: data})
}

func (r *Room) EnqueueBroadcast(ctx context.Context, data []byte) error {
	return r.enqueueSend(ctx, roomSend{kind: roomSendBroadcast, data: data})
}

func (r *Room) EnqueueSendTo(ctx context.Context, sessionID SessionID, data []byte) error {
	return r.enqueueSend(ctx, roomSend{kind: roomSendTo, sessionID: sessionID, data: data})
}

func (r *Room) enqueueSend(ctx context.Context, msg roomSend) error {
	select {
	case <-ctx.Done():
		return nil
	case r.sendCh <- msg:
		return nil
	default:
		return ErrRoomBusy
	}
}

func (r *Room) Run(ctx context.Context) error {
	// room宛のメッセージを購読
	roomTopic := RoomTopic(r.ID)
	msgCh := r.pubsub.Subscribe(roomTopic)
	defer r.pubsub.Unsubscribe(roomTopic, msgCh)

	// room制御用トピックを購読（join/leave）
	ctrlTopic := RoomCtrlTopic(r.ID)
	ctrlCh := r.pubsub.Subscribe(ctrlTopic)
	defer r.pubsub.Unsubscribe(ctrlTopic, ctrlCh)

	close(r.ready)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.tick(ctx, ctrlCh, msgCh)
		}
	}
}

// tick は制御メッセージ → 入力メッセージ → 送信キュー → Application.Tick の順に1tick分を処理します。
func (r *Room) tick(ctx context.Context, ctrlCh, msgCh <-chan Message) {
CTRL_LOOP:
	for {
		select {
		case ctrl, ok := <-ctrlCh:
			if !ok {
				break CTRL_LOOP
			}
			r.handleControlMessage(ctx, ctrl)
		default:
			break CTRL_LOOP
		}
	}
	// 受信メッセージを処理
RECEIVE_LOOP:
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				break RECEIVE_LOOP
			}
			if _, member := r.sessions[msg.SessionID]; !member {
				slog.DebugContext(ctx, "room: message from non-member dropped", "roomID", r.ID, "sessionID", msg.SessionID)
				continue
			}
			// アプリケーションロジックが担当する
			if err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data); err != nil {
				slog.WarnContext(ctx, "room handle message failed", "roomID", r.ID, "err", err)
			}
		default:
			break RECEIVE_LOOP
		}
	}
	// 送信するデータがあれば送信する このデータは１フレーム前のデータになる
SEND_LOOP:
	for {
		select {
		case msg := <-r.sendCh:
			r.handleSendMessage(ctx, msg)
		default:
			break SEND_LOOP
		}
	}
	// ApplicationのTick()を呼び出し、戻り値があればブロードキャスト
	if data := r.application.Tick(ctx); data != nil {
		r.Broadcast(ctx, data)
	}
}

// handleControlMessage はjoin/leave制御メッセージを処理します。
func (r *Room) handleControlMessage(ctx context.Context, msg Message) {
	_, payloadHeader, _, err := ParseMessage(msg.Data)
	if err != nil {
		slog.WarnContext(ctx, "room: invalid control message", "roomID", r.ID, "err", err)
		return
	}
	if payloadHeader.DataType != DataTypeControl {
		return
	}
	switch ControlSubType(payloadHeader.SubType) {
	case ControlSubTypeJoin:
		r.sessions[msg.SessionID] = struct{}{}
		slog.DebugContext(ctx, "room: session joined", "roomID", r.ID, "sessionID", msg.SessionID)
	case ControlSubTypeLeave:
		delete(r.sessions, msg.SessionID)
		slog.DebugContext(ctx, "room: session left", "roomID", r.ID, "sessionID", msg.SessionID)
	default:
	}
}

func (r *Room) handleSendMessage(ctx context.Context, msg roomSend) {
	switch msg.kind {
	case roomSendBroadcast:
		r.Broadcast(ctx, msg.data)
	case roomSendTo:
		r.SendTo(ctx, msg.sessionID, msg.data)
	default:
	}
}

// NumSessions は参加中のセッション数を返します。Runのgoroutineからのみ呼び出してください。
func (r *Room) NumSessions() int {
	return len(r.sessions)
}
