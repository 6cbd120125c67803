package application

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// State はゲームセッションの状態です。
type State uint8

const (
	StateIdle State = iota
	StateActive
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Clock はゲームが参照する現在時刻の供給元です。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock は実時間のClockを返します。
func SystemClock() Clock { return systemClock{} }

const (
	taskSpawn   = "spawn"
	taskMove    = "move"
	taskCollide = "collide"
)

// Game は1人用のシューターセッションです。
// Idle → Active → GameOver と遷移し、Start でいつでも初期状態から再開します。
// Game はgoroutine安全ではありません。Roomのtick goroutineからのみ操作してください。
type Game struct {
	variant   Variant
	clock     Clock
	field     *Field
	spawner   *Spawner
	scheduler *Scheduler

	state    State
	tick     uint32
	lastFire time.Time
	fired    bool
}

// NewGame は指定されたバリアントでIdle状態のゲームを作成します。
func NewGame(variant Variant, clock Clock, rng *rand.Rand) *Game {
	if clock == nil {
		clock = SystemClock()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	g := &Game{
		variant:   variant,
		clock:     clock,
		scheduler: NewScheduler(),
	}
	g.field = NewField(&g.variant)
	g.spawner = NewSpawner(&g.variant, rng)

	g.scheduler.Register(taskSpawn, variant.SpawnEveryTicks, func(context.Context) {
		g.field.SpawnEnemy(g.spawner.Spawn(g.field.NextID()))
	})
	g.scheduler.Register(taskMove, 1, func(context.Context) {
		g.field.Advance()
	})
	g.scheduler.Register(taskCollide, 1, func(context.Context) {
		g.field.ResolveCollisions(g.clock.Now())
	})
	return g
}

// Start は全状態を初期化してActiveにします。どの状態からでも呼び出せます。
func (g *Game) Start() {
	g.field.Reset()
	g.tick = 0
	g.fired = false
	g.lastFire = time.Time{}
	g.state = StateActive
	g.scheduler.Start()
}

// HandleKey はキー名をCommandに変換して適用します。未知のキーは無視します。
func (g *Game) HandleKey(key string) bool {
	cmd, ok := MapKey(key)
	if !ok {
		return false
	}
	return g.Apply(cmd)
}

// Apply はコマンドを適用します。Active以外では何もしません。
func (g *Game) Apply(cmd Command) bool {
	if g.state != StateActive {
		return false
	}
	if cmd == CommandFire {
		return g.Fire()
	}
	dx, dy, rotation, ok := cmd.direction()
	if !ok {
		return false
	}
	g.field.MovePlayer(dx*g.variant.MoveSpeed, dy*g.variant.MoveSpeed, rotation)
	return true
}

// Fire は射撃間隔を満たしていれば弾を1発生成します。間隔内の要求は黙って捨てます。
func (g *Game) Fire() bool {
	if g.state != StateActive {
		return false
	}
	now := g.clock.Now()
	if g.fired && now.Sub(g.lastFire) < g.variant.ShootCooldown {
		return false
	}
	heading := Heading(float64(g.field.Player.Rotation) + g.variant.AimOffset)
	g.field.Bullets = append(g.field.Bullets, &Bullet{
		ID:        g.field.NextID(),
		Position:  add(g.field.PlayerCenter(), scale(heading, g.variant.MuzzleOffset)),
		Velocity:  scale(heading, g.variant.BulletSpeed),
		CreatedAt: now,
	})
	g.lastFire = now
	g.fired = true
	return true
}

// Step は1tick進めます。エフェクトの消去は状態に関係なく毎tick行います。
// 戻り値はこのtickでGameOverに遷移したかどうかです。
func (g *Game) Step(ctx context.Context) bool {
	g.tick++
	g.field.ExpireEffects(g.clock.Now())

	g.scheduler.Step(ctx)
	if g.state == StateActive && g.field.IsDead() {
		g.state = StateGameOver
		g.scheduler.StopAll()
		slog.DebugContext(ctx, "game over", "score", g.field.Score, "tick", g.tick)
		return true
	}
	return false
}

func (g *Game) State() State { return g.state }

func (g *Game) Tick() uint32 { return g.tick }

func (g *Game) Variant() Variant { return g.variant }

// Field はゲームのフィールドを返します。Roomのtick goroutine以外から変更しないでください。
func (g *Game) Field() *Field { return g.field }
