package domain

import "context"

// EchoApplication は受信したメッセージを次のtickでそのままブロードキャストするテスト用Application。
type EchoApplication struct {
	pendingData []byte
}

var _ Application = (*EchoApplication)(nil)

func NewEchoApplication() *EchoApplication {
	return &EchoApplication{}
}

func (e *EchoApplication) HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error {
	e.pendingData = data
	return nil
}

func (e *EchoApplication) Tick(ctx context.Context) []byte {
	if e.pendingData == nil {
		return nil
	}
	data := e.pendingData
	e.pendingData = nil
	return data
}
