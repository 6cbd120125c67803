package application

// BotController はボットの意思決定インターフェースです。
// スナップショットを受け取り、このtickで送信するキー名を返します。
type BotController interface {
	Decide(s *Snapshot, variant *Variant) []string
}

var rotationKeys = map[Rotation]string{
	RotationUp:    "w",
	RotationLeft:  "a",
	RotationDown:  "s",
	RotationRight: "d",
}

// FiringRotation は弾が真上に飛ぶプレイヤーの向きを返します。
func FiringRotation(variant *Variant) Rotation {
	deg := int(270-variant.AimOffset) % 360
	if deg < 0 {
		deg += 360
	}
	// 最寄りの90度単位に丸める
	return Rotation(((deg + 45) / 90 % 4) * 90)
}
