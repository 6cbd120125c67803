package application

import (
	"context"
	"reflect"
	"testing"
	"time"

	"alpaca/server/domain"
)

func TestGame_IdleIgnoresInputAndSteps(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()

	if g.State() != StateIdle {
		t.Fatalf("State = %s, want idle", g.State())
	}
	if g.HandleKey("d") || g.Fire() {
		t.Error("idle game accepted input")
	}
	for range 200 {
		g.Step(ctx)
	}
	if len(g.Field().Enemies) != 0 {
		t.Errorf("idle game spawned %d enemies", len(g.Field().Enemies))
	}
}

func TestGame_StartAndMove(t *testing.T) {
	g, _ := newTestGame(t)
	g.Start()

	if g.State() != StateActive {
		t.Fatalf("State = %s, want active", g.State())
	}
	if !g.HandleKey("D") {
		t.Fatal("HandleKey(D) rejected")
	}
	p := g.Field().Player
	if p.Position.X != 28 || p.Position.Y != 340 || p.Rotation != RotationRight {
		t.Errorf("Player = %+v, want (28,340) rot 0", p)
	}
	if g.HandleKey("q") {
		t.Error("unknown key should be ignored")
	}

	g.HandleKey("w")
	if g.Field().Player.Rotation != RotationUp {
		t.Errorf("Rotation = %d, want 270", g.Field().Player.Rotation)
	}
}

func TestGame_FireCooldown(t *testing.T) {
	g, clock := newTestGame(t)
	g.Start()

	if !g.Fire() {
		t.Fatal("first fire rejected")
	}
	clock.Advance(100 * time.Millisecond)
	if g.Fire() {
		t.Error("fire within cooldown accepted")
	}
	if len(g.Field().Bullets) != 1 {
		t.Fatalf("len(Bullets) = %d, want 1", len(g.Field().Bullets))
	}
	clock.Advance(50 * time.Millisecond)
	if !g.Fire() {
		t.Error("fire after cooldown rejected")
	}
	if len(g.Field().Bullets) != 2 {
		t.Errorf("len(Bullets) = %d, want 2", len(g.Field().Bullets))
	}
}

// alpacaは向き0(右)で撃つと弾は真上に飛ぶ
func TestGame_FireDirection(t *testing.T) {
	g, _ := newTestGame(t)
	g.Start()
	g.Fire()

	b := g.Field().Bullets[0]
	// 中心(44,364) から上に28
	if !approx(b.Position.X, 44) || !approx(b.Position.Y, 336) {
		t.Errorf("bullet position = %+v, want (44,336)", b.Position)
	}
	if !approx(b.Velocity.X, 0) || !approx(b.Velocity.Y, -12) {
		t.Errorf("bullet velocity = %+v, want (0,-12)", b.Velocity)
	}
}

func TestGame_SpawnCadence(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()
	g.Start()

	for range 124 {
		g.Step(ctx)
	}
	if n := len(g.Field().Enemies); n != 0 {
		t.Fatalf("enemies after 124 ticks = %d, want 0", n)
	}
	g.Step(ctx)
	if n := len(g.Field().Enemies); n != 1 {
		t.Fatalf("enemies after 125 ticks = %d, want 1", n)
	}
}

func TestGame_GameOverFreezesPipeline(t *testing.T) {
	g, clock := newTestGame(t)
	ctx := context.Background()
	g.Start()

	f := g.Field()
	f.Health = 20
	center := f.PlayerCenter()
	f.SpawnEnemy(&Enemy{ID: f.NextID(), Position: domain.Position2D{X: center.X, Y: center.Y - 2}, Speed: 1})
	far := &Enemy{ID: f.NextID(), Position: domain.Position2D{X: 700, Y: 10}, Speed: 2}
	f.SpawnEnemy(far)
	f.SpawnEffect(domain.Position2D{X: 1, Y: 1}, clock.Now())

	if !g.Step(ctx) {
		t.Fatal("Step did not report game over")
	}
	if g.State() != StateGameOver {
		t.Fatalf("State = %s, want game_over", g.State())
	}
	if f.Health != 0 {
		t.Errorf("Health = %d, want 0", f.Health)
	}

	y := far.Position.Y
	for range 300 {
		if g.Step(ctx) {
			t.Fatal("game over reported twice")
		}
	}
	if far.Position.Y != y {
		t.Errorf("enemy moved after game over: %v -> %v", y, far.Position.Y)
	}
	if len(f.Enemies) != 1 {
		t.Errorf("enemies changed after game over: %d", len(f.Enemies))
	}
	if g.HandleKey("d") {
		t.Error("input accepted after game over")
	}

	// エフェクトはGameOver中も期限切れで消える
	clock.Advance(time.Second)
	g.Step(ctx)
	if len(f.Effects) != 0 {
		t.Errorf("effects not expired after game over: %d", len(f.Effects))
	}
}

func TestGame_RestartIdempotence(t *testing.T) {
	fresh, _ := newTestGame(t)
	fresh.Start()
	want := fresh.Snapshot()

	ctx := context.Background()

	// Active中に再開
	g, clock := newTestGame(t)
	g.Start()
	g.HandleKey("w")
	g.Fire()
	for range 300 {
		clock.Advance(16 * time.Millisecond)
		g.Step(ctx)
	}
	g.Field().Score = 300
	g.Start()
	if got := g.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("restart from active:\n got %+v\nwant %+v", got, want)
	}

	// GameOverから再開
	g.Field().Health = 0
	g.Step(ctx)
	if g.State() != StateGameOver {
		t.Fatalf("State = %s, want game_over", g.State())
	}
	g.Start()
	if got := g.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("restart from game over:\n got %+v\nwant %+v", got, want)
	}
	if !g.Fire() {
		t.Error("cooldown should be reset by Start")
	}
}
