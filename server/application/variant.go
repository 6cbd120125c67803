package application

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultVariant は既定で使用するバリアント名です。
const DefaultVariant = "alpaca"

var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrInvalidVariant = errors.New("invalid variant")
)

//go:embed variants.yaml
var embeddedVariants []byte

// Point はYAML上の座標です。
type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

// Variant は1つのゲームバリアントの定数セットです。
type Variant struct {
	Name string `yaml:"-"`

	Width       float32 `yaml:"width"`
	Height      float32 `yaml:"height"`
	SpriteSize  float32 `yaml:"sprite_size"`
	PlayerSpawn Point   `yaml:"player_spawn"`

	MoveSpeed     float32       `yaml:"move_speed"`
	BulletSpeed   float32       `yaml:"bullet_speed"`
	MuzzleOffset  float32       `yaml:"muzzle_offset"`
	AimOffset     float64       `yaml:"aim_offset"` // 度
	ShootCooldown time.Duration `yaml:"shoot_cooldown"`

	SpawnEveryTicks int         `yaml:"spawn_every_ticks"`
	SpawnXMin       float32     `yaml:"spawn_x_min"`
	SpawnXMax       float32     `yaml:"spawn_x_max"`
	SpawnY          float32     `yaml:"spawn_y"`
	EnemySpeedMin   float32     `yaml:"enemy_speed_min"`
	EnemySpeedMax   float32     `yaml:"enemy_speed_max"`
	EnemyKinds      []EnemyKind `yaml:"enemy_kinds"`

	HitRadius      float32       `yaml:"hit_radius"`
	ContactRadius  float32       `yaml:"contact_radius"`
	ContactDamage  int           `yaml:"contact_damage"`
	LeakDamage     int           `yaml:"leak_damage"`
	KillScore      int           `yaml:"kill_score"`
	EffectLifetime time.Duration `yaml:"effect_lifetime"`
}

// Validate は定数の組み合わせが成立しているかを確認します。
func (v Variant) Validate() error {
	switch {
	case v.Width <= v.SpriteSize || v.Height <= v.SpriteSize:
		return fmt.Errorf("%w: %s: arena %vx%v too small for sprite %v", ErrInvalidVariant, v.Name, v.Width, v.Height, v.SpriteSize)
	case v.SpawnEveryTicks <= 0:
		return fmt.Errorf("%w: %s: spawn_every_ticks must be positive", ErrInvalidVariant, v.Name)
	case v.SpawnXMin > v.SpawnXMax || v.EnemySpeedMin > v.EnemySpeedMax:
		return fmt.Errorf("%w: %s: spawn ranges are inverted", ErrInvalidVariant, v.Name)
	case len(v.EnemyKinds) == 0:
		return fmt.Errorf("%w: %s: no enemy kinds", ErrInvalidVariant, v.Name)
	case v.ContactDamage < 0 || v.LeakDamage < 0 || v.KillScore < 0:
		return fmt.Errorf("%w: %s: damage and score must not be negative", ErrInvalidVariant, v.Name)
	}
	return nil
}

// VariantTable はバリアント名から定数セットへの表です。
type VariantTable map[string]Variant

// ParseVariants はYAMLからバリアント表を読み込みます。
func ParseVariants(data []byte) (VariantTable, error) {
	var table VariantTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse variants: %w", err)
	}
	for name, v := range table {
		v.Name = name
		if err := v.Validate(); err != nil {
			return nil, err
		}
		table[name] = v
	}
	return table, nil
}

// LoadVariants は組み込みの表を読み込み、pathが指定されていればその内容で上書きします。
func LoadVariants(path string) (VariantTable, error) {
	table, err := ParseVariants(embeddedVariants)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants file: %w", err)
	}
	override, err := ParseVariants(data)
	if err != nil {
		return nil, err
	}
	for name, v := range override {
		table[name] = v
	}
	return table, nil
}

// Lookup はnameのバリアントを返します。
func (t VariantTable) Lookup(name string) (Variant, error) {
	v, ok := t[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// MustDefaultVariant は組み込み表の既定バリアントを返します。
func MustDefaultVariant() Variant {
	table, err := ParseVariants(embeddedVariants)
	if err != nil {
		panic(err)
	}
	v, err := table.Lookup(DefaultVariant)
	if err != nil {
		panic(err)
	}
	return v
}
