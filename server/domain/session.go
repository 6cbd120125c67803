package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionID は論理セッションを識別するUUID文字列です。
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// SessionIDFromBytes はワイヤ上の16バイトからSessionIDを復元します。
func SessionIDFromBytes(b [16]byte) SessionID {
	if uuid.UUID(b) == uuid.Nil {
		return ""
	}
	return SessionID(uuid.UUID(b).String())
}

// Bytes はワイヤ用の16バイト表現を返します。空またはパース不能なIDはゼロ値になります。
func (id SessionID) Bytes() [16]byte {
	parsed, err := uuid.Parse(string(id))
	if err != nil {
		return [16]byte{}
	}
	return parsed
}

func (id SessionID) String() string {
	return string(id)
}

func (id SessionID) IsEmpty() bool {
	return id == ""
}

// Session は1接続の論理的な接続状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead  atomic.Int64
	lastWrite atomic.Int64
	lastPong  atomic.Int64

	// lifecycle
	closed atomic.Bool
}

func NewSession() *Session {
	s := &Session{
		id: NewSessionID(),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastWrite.Store(now)
	s.lastPong.Store(now)
	return s
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
}

func (s *Session) TouchWrite() {
	s.lastWrite.Store(time.Now().UnixNano())
}

func (s *Session) TouchPong() {
	s.lastPong.Store(time.Now().UnixNano())
}

// Close はセッションを閉じます。初回の呼び出しのみtrueを返します。
func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// IsIdle は読み込み・書き込み・pongのいずれかがtimeoutを超えて途絶えているかを返します。
func (s *Session) IsIdle(timeout time.Duration) (bool, IdleReason) {
	if timeout <= 0 {
		return false, IdleDisabled
	}
	var reason IdleReason
	if s.IsReadIdle(timeout) {
		reason |= IdleRead
	}
	if s.IsWriteIdle(timeout) {
		reason |= IdleWrite
	}
	if s.IsPongIdle(timeout) {
		reason |= IdlePong
	}
	return reason != IdleNone, reason
}

func (s *Session) IsReadIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastRead.Load()), timeout)
}

func (s *Session) IsWriteIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastWrite.Load()), timeout)
}

func (s *Session) IsPongIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastPong.Load()), timeout)
}

func isIdleSince(last time.Time, timeout time.Duration) bool {
	return time.Since(last) > timeout
}

func unixNanoToTime(nano int64) time.Time {
	return time.Unix(0, nano)
}
