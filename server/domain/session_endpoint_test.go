package domain_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	domain "alpaca/server/domain"
	"alpaca/server/domain/mocks"

	"go.uber.org/mock/gomock"
)

var testEndpointConfig = domain.EndpointConfig{
	IdleTimeout:  time.Hour,
	PingInterval: time.Hour,
}

// 初期化時にリソースが正しくセットアップされることを確認
func TestNewSessionEndpoint_InitializesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(s.ID(), tr)
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)

	se, err := domain.NewSessionEndpoint(context.Background(), s, c, ps, rm, domain.EndpointConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if se == nil {
		t.Fatalf("endpoint is nil")
	}
	if !se.RoomID().IsEmpty() {
		t.Errorf("RoomID = %s, want empty", se.RoomID())
	}
}

func TestNewSessionEndpoint_NilDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	c := domain.NewConnection(s.ID(), mocks.NewMockTransport(ctrl))
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)

	tests := []struct {
		name string
		s    *domain.Session
		c    *domain.Connection
		ps   domain.PubSub
		rm   domain.RoomManager
	}{
		{"nil session", nil, c, ps, rm},
		{"nil connection", s, nil, ps, rm},
		{"nil pubsub", s, c, nil, rm},
		{"nil room manager", s, c, ps, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewSessionEndpoint(context.Background(), tt.s, tt.c, tt.ps, tt.rm, testEndpointConfig)
			if !errors.Is(err, domain.ErrInitializationFailed) {
				t.Fatalf("expected ErrInitializationFailed, got %v", err)
			}
		})
	}
}

// scriptedReader はreadsから1件ずつ返し、閉じられたらEOFを返します。
func scriptedReader(reads <-chan []byte) func(ctx context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case data, ok := <-reads:
			if !ok {
				return nil, io.EOF
			}
			return data, nil
		}
	}
}

// join → input → 切断の流れでroomへの転送とleaveが行われることを確認
func TestSessionEndpoint_Run_JoinForwardAndLeave(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)
	roomID := domain.RoomID("room-1")

	reads := make(chan []byte, 4)
	reads <- domain.EncodeJoinMessage(s.ID(), 1, "")
	reads <- domain.EncodeInputMessage(s.ID(), 2, "d")
	reads <- domain.EncodeControlMessage(s.ID(), 3, domain.ControlSubTypeStart)
	close(reads)

	var sub <-chan domain.Message = make(chan domain.Message)
	ps.EXPECT().Subscribe(domain.SessionTopic(s.ID())).Return(sub)
	ps.EXPECT().Unsubscribe(domain.SessionTopic(s.ID()), sub)

	tr.EXPECT().Read(gomock.Any()).DoAndReturn(scriptedReader(reads)).MinTimes(1)
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	tr.EXPECT().Close(domain.StatusNormalClosure, io.EOF.Error()).Return(nil).Times(1)

	gomock.InOrder(
		rm.EXPECT().GetRoom(gomock.Any(), s.ID()).Return(roomID, nil),
		rm.EXPECT().Release(gomock.Any(), roomID, s.ID()),
	)
	ps.EXPECT().Publish(gomock.Any(), domain.RoomCtrlTopic(roomID), gomock.Any()).Times(2)
	ps.EXPECT().Publish(gomock.Any(), domain.RoomTopic(roomID), gomock.Any()).Times(2)

	se, err := domain.NewSessionEndpoint(context.Background(), s, domain.NewConnection(s.ID(), tr), ps, rm, testEndpointConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after read EOF")
	}
	if !s.IsClosed() {
		t.Error("session should be closed")
	}
	if !se.RoomID().IsEmpty() {
		t.Errorf("RoomID = %s, want empty after leave", se.RoomID())
	}
}

// 他セッションIDのメッセージやjoin前の入力はroomに転送されないことを確認
func TestSessionEndpoint_Run_DropsForeignAndUnjoinedInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)

	reads := make(chan []byte, 4)
	reads <- domain.EncodeInputMessage(s.ID(), 1, "w")
	reads <- domain.EncodeJoinMessage(domain.NewSessionID(), 2, "")
	reads <- []byte{0x01, 0x02}
	close(reads)

	var sub <-chan domain.Message = make(chan domain.Message)
	ps.EXPECT().Subscribe(gomock.Any()).Return(sub)
	ps.EXPECT().Unsubscribe(gomock.Any(), gomock.Any())

	tr.EXPECT().Read(gomock.Any()).DoAndReturn(scriptedReader(reads)).MinTimes(1)
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	se, err := domain.NewSessionEndpoint(context.Background(), s, domain.NewConnection(s.ID(), tr), ps, rm, testEndpointConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after read EOF")
	}
}

// 最初の書き込みがセッションID通知であることを確認
func TestSessionEndpoint_Run_AssignsSessionID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)

	var sub <-chan domain.Message = make(chan domain.Message)
	ps.EXPECT().Subscribe(gomock.Any()).Return(sub)
	ps.EXPECT().Unsubscribe(gomock.Any(), gomock.Any())

	written := make(chan []byte, 1)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}).AnyTimes()
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) error {
		select {
		case written <- data:
		default:
		}
		return nil
	}).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	se, err := domain.NewSessionEndpoint(context.Background(), s, domain.NewConnection(s.ID(), tr), ps, rm, testEndpointConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run() }()

	select {
	case data := <-written:
		header, payloadHeader, _, err := domain.ParseMessage(data)
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}
		if domain.ControlSubType(payloadHeader.SubType) != domain.ControlSubTypeAssign {
			t.Errorf("SubType = %s, want assign", domain.ControlSubType(payloadHeader.SubType))
		}
		if domain.SessionIDFromBytes(header.SessionID) != s.ID() {
			t.Errorf("SessionID = %s, want %s", domain.SessionIDFromBytes(header.SessionID), s.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("assign message was not written")
	}

	se.ForceClose()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after ForceClose")
	}
}
