package application

import (
	"math"
	"math/rand/v2"

	"alpaca/server/domain"
)

const (
	botDangerMargin float32 = 24.0 // 接触半径にこの距離を足した範囲で回避を始める
	botFireChance   float64 = 0.5  // 照準が合っているときに撃つ確率
)

// RuleBotController はルールベースのボットAIです。
// ボットごとに異なる個性パラメータを持ちます。
type RuleBotController struct {
	AimTolerance float32 // x方向のずれがこれ以下なら照準が合っているとみなす
	rng          *rand.Rand
}

// NewRuleBotController はランダムな個性を持つボットAIを生成します。
func NewRuleBotController() *RuleBotController {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return &RuleBotController{
		AimTolerance: 6 + rng.Float32()*8, // 6〜14
		rng:          rng,
	}
}

func (r *RuleBotController) Decide(s *Snapshot, variant *Variant) []string {
	if s.State != StateActive {
		return nil
	}
	half := variant.SpriteSize / 2
	center := domain.Position2D{X: s.Player.X + half, Y: s.Player.Y + half}

	// 接触回避を優先
	if key, ok := r.evade(center, s.Enemies, variant); ok {
		return []string{key}
	}

	target := r.findTarget(center, s.Enemies)
	if target == nil {
		return nil
	}

	dx := target.Position.X - center.X
	if float32(math.Abs(float64(dx))) > r.AimTolerance {
		if dx < 0 {
			return []string{"a"}
		}
		return []string{"d"}
	}

	// 照準が合っていれば上向きに撃つ
	want := FiringRotation(variant)
	keys := make([]string, 0, 2)
	if s.Rotation != want {
		keys = append(keys, rotationKeys[want])
	}
	if r.rng == nil || r.rng.Float64() < botFireChance {
		keys = append(keys, " ")
	}
	return keys
}

// evade は接触しそうな敵から左右に逃げるキーを返します。
func (r *RuleBotController) evade(center domain.Position2D, enemies []EnemyView, variant *Variant) (string, bool) {
	danger := variant.ContactRadius + botDangerMargin
	var closest *EnemyView
	closestDist := float32(math.MaxFloat32)
	for i := range enemies {
		e := &enemies[i]
		if e.Position.Y > center.Y {
			continue
		}
		dist := Distance(center, e.Position)
		if dist < danger && dist < closestDist {
			closest = e
			closestDist = dist
		}
	}
	if closest == nil {
		return "", false
	}
	// 敵と反対側へ。壁際なら逆へ逃げる
	h := variant.SpriteSize / 2
	goRight := closest.Position.X < center.X
	if goRight && center.X+h > variant.Width-variant.MoveSpeed {
		goRight = false
	}
	if !goRight && center.X-h < variant.MoveSpeed {
		goRight = true
	}
	if goRight {
		return "d", true
	}
	return "a", true
}

// findTarget は最も下まで迫っている敵を探します。
func (r *RuleBotController) findTarget(center domain.Position2D, enemies []EnemyView) *EnemyView {
	var target *EnemyView
	for i := range enemies {
		e := &enemies[i]
		if e.Position.Y > center.Y {
			continue
		}
		if target == nil || e.Position.Y > target.Position.Y {
			target = e
		}
	}
	return target
}
