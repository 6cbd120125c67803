package application

import (
	"time"

	"alpaca/server/domain"
)

const (
	MaxHealth = 100
)

// Field はアリーナ上のプレイヤー・弾・敵・エフェクトとスコア/体力を管理する構造体です。
type Field struct {
	Player  Player
	Bullets []*Bullet
	Enemies []*Enemy
	Effects []*Effect
	Score   int
	Health  int

	variant *Variant
	nextID  EntityID
}

// NewField は指定されたバリアントで初期状態のフィールドを作成します。
func NewField(variant *Variant) *Field {
	f := &Field{variant: variant}
	f.Reset()
	return f
}

// Reset はスコア・体力・全エンティティ・プレイヤー位置を初期状態に戻します。
// IDカウンタはセッションの間戻しません。
func (f *Field) Reset() {
	f.Player = Player{
		Position: domain.Position2D{X: f.variant.PlayerSpawn.X, Y: f.variant.PlayerSpawn.Y},
		Rotation: RotationRight,
	}
	clear(f.Bullets)
	clear(f.Enemies)
	clear(f.Effects)
	f.Bullets = f.Bullets[:0]
	f.Enemies = f.Enemies[:0]
	f.Effects = f.Effects[:0]
	f.Score = 0
	f.Health = MaxHealth
}

// NextID はセッション内で一意なIDを払い出します。
func (f *Field) NextID() EntityID {
	f.nextID++
	return f.nextID
}

// MovePlayer はプレイヤーを移動させ向きを更新します。境界を超えないようにクランプします。
func (f *Field) MovePlayer(dx, dy float32, rotation Rotation) {
	v := f.variant
	f.Player.Position.X = clamp(f.Player.Position.X+dx, 0, v.Width-v.SpriteSize)
	f.Player.Position.Y = clamp(f.Player.Position.Y+dy, 0, v.Height-v.SpriteSize)
	f.Player.Rotation = rotation
}

// PlayerCenter はプレイヤースプライトの中心座標を返します。
func (f *Field) PlayerCenter() domain.Position2D {
	half := f.variant.SpriteSize / 2
	return domain.Position2D{X: f.Player.Position.X + half, Y: f.Player.Position.Y + half}
}

// Damage は体力を減らします。0未満にはなりません。
func (f *Field) Damage(amount int) {
	if amount <= 0 {
		return
	}
	f.Health = max(0, f.Health-amount)
}

// AddScore はスコアを加算します。負の値は無視します。
func (f *Field) AddScore(points int) {
	if points > 0 {
		f.Score += points
	}
}

// SpawnEnemy は敵をフィールドに追加します。
func (f *Field) SpawnEnemy(e *Enemy) {
	f.Enemies = append(f.Enemies, e)
}

// SpawnEffect は撃破エフェクトを追加します。
func (f *Field) SpawnEffect(pos domain.Position2D, now time.Time) {
	f.Effects = append(f.Effects, &Effect{ID: f.NextID(), Position: pos, SpawnedAt: now})
}

// ExpireEffects は寿命を過ぎたエフェクトを取り除きます。
func (f *Field) ExpireEffects(now time.Time) {
	kept := f.Effects[:0]
	for _, e := range f.Effects {
		if e.Remaining(now, f.variant.EffectLifetime) > 0 {
			kept = append(kept, e)
		}
	}
	clear(f.Effects[len(kept):])
	f.Effects = kept
}

// IsDead は体力が0かを返します。
func (f *Field) IsDead() bool {
	return f.Health <= 0
}
