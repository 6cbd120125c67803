package domain

import (
	"context"
	"log/slog"
	"sync"
)

//go:generate go tool mockgen -destination=./mocks/pubsub_mock.go -package=mocks . PubSub

// Topic はPubSubの宛先です。
type Topic string

func SessionTopic(id SessionID) Topic { return Topic("session:" + id.String()) }
func RoomTopic(id RoomID) Topic       { return Topic("room:" + id.String()) }
func RoomCtrlTopic(id RoomID) Topic   { return Topic("room:" + id.String() + ":ctrl") }

// Message はPubSubで配送される1メッセージです。
type Message struct {
	SessionID SessionID
	Data      []byte
}

// PubSub はセッションとルームの間でメッセージを配送します。
type PubSub interface {
	Publish(ctx context.Context, topic Topic, msg Message)
	Subscribe(topic Topic) <-chan Message
	Unsubscribe(topic Topic, ch <-chan Message)
}

const subscriberBufferSize = 256

// SimplePubSub はプロセス内で完結するPubSub実装です。
// 購読者のバッファが満杯の場合、メッセージは破棄されます。
type SimplePubSub struct {
	mu   sync.RWMutex
	subs map[Topic][]chan Message
}

var _ PubSub = (*SimplePubSub)(nil)

func NewSimplePubSub() *SimplePubSub {
	return &SimplePubSub{
		subs: make(map[Topic][]chan Message),
	}
}

func (p *SimplePubSub) Publish(ctx context.Context, topic Topic, msg Message) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs[topic] {
		select {
		case ch <- msg:
		default:
			slog.WarnContext(ctx, "pubsub: subscriber full, message dropped", "topic", topic)
		}
	}
}

func (p *SimplePubSub) Subscribe(topic Topic) <-chan Message {
	ch := make(chan Message, subscriberBufferSize)
	p.mu.Lock()
	p.subs[topic] = append(p.subs[topic], ch)
	p.mu.Unlock()
	return ch
}

// Unsubscribe は購読を解除し、チャネルをcloseします。
func (p *SimplePubSub) Unsubscribe(topic Topic, ch <-chan Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.subs[topic]
	for i, c := range subs {
		if (<-chan Message)(c) != ch {
			continue
		}
		close(c)
		subs = append(subs[:i], subs[i+1:]...)
		break
	}
	if len(subs) == 0 {
		delete(p.subs, topic)
		return
	}
	p.subs[topic] = subs
}
