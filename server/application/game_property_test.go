package application

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"pgregory.net/rapid"
)

var propertyKeys = []string{"w", "a", "s", "d", " ", "x"}

// 敵が頻繁に出現するようにしたバリアントで任意の操作列を実行し、毎tick不変条件を確認する
func TestGame_Invariants(t *testing.T) {
	base := testVariant(t, DefaultVariant)

	rapid.Check(t, func(rt *rapid.T) {
		v := base
		v.SpawnEveryTicks = rapid.IntRange(1, 10).Draw(rt, "spawnEvery")
		v.EnemySpeedMin = rapid.Float32Range(1, 8).Draw(rt, "speedMin")
		v.EnemySpeedMax = v.EnemySpeedMin + rapid.Float32Range(0, 8).Draw(rt, "speedSpread")

		clock := newFakeClock()
		g := NewGame(v, clock, rand.New(rand.NewPCG(rapid.Uint64().Draw(rt, "seed"), 0)))
		g.Start()
		ctx := context.Background()

		prevScore := 0
		steps := rapid.IntRange(1, 400).Draw(rt, "steps")
		for i := range steps {
			if rapid.Bool().Draw(rt, "press") {
				key := rapid.SampledFrom(propertyKeys).Draw(rt, "key")
				g.HandleKey(key)
			}
			clock.Advance(time.Duration(rapid.IntRange(0, 40).Draw(rt, "elapsedMs")) * time.Millisecond)
			g.Step(ctx)

			f := g.Field()
			if f.Health < 0 || f.Health > MaxHealth {
				rt.Fatalf("step %d: health %d out of [0,100]", i, f.Health)
			}
			if f.Score < prevScore {
				rt.Fatalf("step %d: score decreased %d -> %d", i, prevScore, f.Score)
			}
			if (f.Score-prevScore)%v.KillScore != 0 {
				rt.Fatalf("step %d: score delta %d is not a multiple of %d", i, f.Score-prevScore, v.KillScore)
			}
			prevScore = f.Score

			for _, b := range f.Bullets {
				if !f.InArena(b.Position) {
					rt.Fatalf("step %d: bullet %d out of arena at %+v", i, b.ID, b.Position)
				}
			}
			for _, e := range f.Enemies {
				if !f.EnemyInBounds(e) {
					rt.Fatalf("step %d: enemy %d out of bounds at %+v", i, e.ID, e.Position)
				}
			}
			p := f.Player.Position
			if p.X < 0 || p.X > v.Width-v.SpriteSize || p.Y < 0 || p.Y > v.Height-v.SpriteSize {
				rt.Fatalf("step %d: player out of arena at %+v", i, p)
			}
			if f.Health == 0 && g.State() != StateGameOver {
				rt.Fatalf("step %d: health 0 but state %s", i, g.State())
			}
		}
	})
}

// 射撃間隔内の2回目の射撃は必ず捨てられる
func TestGame_CooldownProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g, clock := newTestGame(rt)
		g.Start()
		cooldown := g.Variant().ShootCooldown

		if !g.Fire() {
			rt.Fatal("first fire rejected")
		}
		delta := time.Duration(rapid.Int64Range(0, int64(2*cooldown)).Draw(rt, "delta"))
		clock.Advance(delta)
		second := g.Fire()

		if second != (delta >= cooldown) {
			rt.Fatalf("delta %v: second fire = %v", delta, second)
		}
		want := 1
		if second {
			want = 2
		}
		if len(g.Field().Bullets) != want {
			rt.Fatalf("len(Bullets) = %d, want %d", len(g.Field().Bullets), want)
		}
	})
}
