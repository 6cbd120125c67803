package domain

import "context"

//go:generate go tool mockgen -destination=./mocks/application_mock.go -package=mocks . Application

// Application はRoomのtickループ上で動くゲームロジックです。
// 全てのメソッドはRoomのgoroutineからのみ呼び出されます。
type Application interface {
	// HandleMessage はセッションから届いたメッセージを次のTickまでに処理します。
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error
	// Tick は1tick進め、ブロードキャストするデータを返します。nilなら何も送りません。
	Tick(ctx context.Context) []byte
}
