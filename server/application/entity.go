package application

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"alpaca/server/domain"
)

// EntityID はセッション内で一意な弾・敵・エフェクトのIDです。
type EntityID uint32

// EnemyKind は敵の種別です。
type EnemyKind uint8

const (
	EnemyKindPan  EnemyKind = iota // 軽量・高速
	EnemyKindBomb                  // 設置型
	EnemyKindBoss                  // 重量・範囲型
)

var enemyKindNames = map[EnemyKind]string{
	EnemyKindPan:  "pan",
	EnemyKindBomb: "bomb",
	EnemyKindBoss: "boss",
}

func (k EnemyKind) String() string {
	if name, ok := enemyKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EnemyKind(%d)", k)
}

// ParseEnemyKind は種別名からEnemyKindを返します。
func ParseEnemyKind(name string) (EnemyKind, error) {
	for kind, n := range enemyKindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown enemy kind %q", name)
}

func (k *EnemyKind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	kind, err := ParseEnemyKind(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Rotation はプレイヤーの向き（度）です。0=右, 90=下, 180=左, 270=上。
type Rotation uint16

const (
	RotationRight Rotation = 0
	RotationDown  Rotation = 90
	RotationLeft  Rotation = 180
	RotationUp    Rotation = 270
)

// Player はプレイヤーのスプライトを表します。Positionは左上座標です。
type Player struct {
	Position domain.Position2D
	Rotation Rotation
}

// Bullet はフィールド上の弾丸を表す構造体です。
type Bullet struct {
	ID        EntityID
	Position  domain.Position2D
	Velocity  domain.Position2D
	CreatedAt time.Time
}

// Enemy は上端から落下してくる敵です。
type Enemy struct {
	ID       EntityID
	Kind     EnemyKind
	Position domain.Position2D
	Speed    float32
}

// Effect は撃破時の見た目だけのマーカーで、一定時間後に消えます。
type Effect struct {
	ID        EntityID
	Position  domain.Position2D
	SpawnedAt time.Time
}

// Remaining はnow時点での残り表示時間を返します。
func (e *Effect) Remaining(now time.Time, lifetime time.Duration) time.Duration {
	left := lifetime - now.Sub(e.SpawnedAt)
	if left < 0 {
		return 0
	}
	return left
}
