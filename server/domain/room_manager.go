package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

//go:generate go tool mockgen -destination=./mocks/room_manager_mock.go -package=mocks . RoomManager

var (
	ErrManagerClosed  = errors.New("room manager is closed")
	ErrRoomStartAbort = errors.New("room stopped before it was ready")
)

// RoomManager はセッションにルームを割り当て、不要になったルームを停止します。
type RoomManager interface {
	// GetRoom はセッション用のルームを用意し、そのIDを返します。
	GetRoom(ctx context.Context, sessionID SessionID) (RoomID, error)
	// Release はセッションをルームから外します。最後のセッションが抜けたルームは停止します。
	Release(ctx context.Context, roomID RoomID, sessionID SessionID)
}

// ApplicationFactory はルームごとに新しいApplicationを生成します。
type ApplicationFactory func(id RoomID) Application

type managedRoom struct {
	room    *Room
	cancel  context.CancelFunc
	members map[SessionID]struct{}
}

// SessionRoomManager はセッションごとに専用のルーム（=1つのゲームセッション）を生成します。
type SessionRoomManager struct {
	ctx          context.Context
	pubsub       PubSub
	newApp       ApplicationFactory
	tickInterval time.Duration

	mu    sync.Mutex
	rooms map[RoomID]*managedRoom
}

var _ RoomManager = (*SessionRoomManager)(nil)

// NewSessionRoomManager はctxを親とするルームを生成するRoomManagerを返します。
// ctxがキャンセルされると全てのルームが停止します。
func NewSessionRoomManager(ctx context.Context, pubsub PubSub, newApp ApplicationFactory, tickInterval time.Duration) *SessionRoomManager {
	return &SessionRoomManager{
		ctx:          ctx,
		pubsub:       pubsub,
		newApp:       newApp,
		tickInterval: tickInterval,
		rooms:        make(map[RoomID]*managedRoom),
	}
}

func (m *SessionRoomManager) GetRoom(ctx context.Context, sessionID SessionID) (RoomID, error) {
	if m.ctx.Err() != nil {
		return "", ErrManagerClosed
	}

	id := RoomID(uuid.NewString())
	room := NewRoom(id, m.pubsub, m.newApp(id), m.tickInterval)
	roomCtx, cancel := context.WithCancel(m.ctx)

	go func() {
		if err := room.Run(roomCtx); err != nil {
			slog.ErrorContext(roomCtx, "room error", "roomID", id, "err", err)
		}
	}()

	// 購読完了前にpublishされたjoinが失われないように待つ
	select {
	case <-room.Ready():
	case <-ctx.Done():
		cancel()
		return "", ctx.Err()
	case <-roomCtx.Done():
		cancel()
		return "", ErrRoomStartAbort
	}

	m.mu.Lock()
	m.rooms[id] = &managedRoom{
		room:    room,
		cancel:  cancel,
		members: map[SessionID]struct{}{sessionID: {}},
	}
	m.mu.Unlock()

	slog.InfoContext(ctx, "room created", "roomID", id, "sessionID", sessionID)
	return id, nil
}

func (m *SessionRoomManager) Release(ctx context.Context, roomID RoomID, sessionID SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(mr.members, sessionID)
	if len(mr.members) > 0 {
		return
	}
	mr.cancel()
	delete(m.rooms, roomID)
	slog.InfoContext(ctx, "room stopped", "roomID", roomID)
}

// Len は稼働中のルーム数を返します。
func (m *SessionRoomManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
