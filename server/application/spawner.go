package application

import (
	"math/rand/v2"

	"alpaca/server/domain"
)

// Spawner はバリアントの範囲内でランダムな敵を生成します。
type Spawner struct {
	variant *Variant
	rng     *rand.Rand
}

func NewSpawner(variant *Variant, rng *rand.Rand) *Spawner {
	return &Spawner{variant: variant, rng: rng}
}

// Spawn はidを持つ敵を1体生成します。種別・x座標・落下速度は一様分布から選びます。
func (s *Spawner) Spawn(id EntityID) *Enemy {
	v := s.variant
	kind := v.EnemyKinds[s.rng.IntN(len(v.EnemyKinds))]
	return &Enemy{
		ID:   id,
		Kind: kind,
		Position: domain.Position2D{
			X: v.SpawnXMin + s.rng.Float32()*(v.SpawnXMax-v.SpawnXMin),
			Y: v.SpawnY,
		},
		Speed: v.EnemySpeedMin + s.rng.Float32()*(v.EnemySpeedMax-v.EnemySpeedMin),
	}
}
