package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadVariants_Embedded(t *testing.T) {
	table, err := LoadVariants("")
	if err != nil {
		t.Fatalf("LoadVariants failed: %v", err)
	}

	alpaca, err := table.Lookup("alpaca")
	if err != nil {
		t.Fatalf("Lookup(alpaca) failed: %v", err)
	}
	if alpaca.Name != "alpaca" {
		t.Errorf("Name = %q", alpaca.Name)
	}
	if alpaca.ContactDamage != 20 || alpaca.LeakDamage != 10 {
		t.Errorf("alpaca damage = %d/%d, want 20/10", alpaca.ContactDamage, alpaca.LeakDamage)
	}
	if alpaca.HitRadius != 24 || alpaca.ContactRadius != 32 {
		t.Errorf("alpaca radii = %v/%v, want 24/32", alpaca.HitRadius, alpaca.ContactRadius)
	}
	if alpaca.ShootCooldown != 150*time.Millisecond {
		t.Errorf("alpaca cooldown = %v, want 150ms", alpaca.ShootCooldown)
	}
	if alpaca.AimOffset != -90 {
		t.Errorf("alpaca aim offset = %v, want -90", alpaca.AimOffset)
	}
	if alpaca.EffectLifetime != 500*time.Millisecond {
		t.Errorf("alpaca effect lifetime = %v, want 500ms", alpaca.EffectLifetime)
	}
	if len(alpaca.EnemyKinds) != 3 || alpaca.EnemyKinds[2] != EnemyKindBoss {
		t.Errorf("alpaca enemy kinds = %v", alpaca.EnemyKinds)
	}

	storm, err := table.Lookup("storm")
	if err != nil {
		t.Fatalf("Lookup(storm) failed: %v", err)
	}
	if storm.ContactDamage != 10 || storm.LeakDamage != 20 || storm.ShootCooldown != 200*time.Millisecond {
		t.Errorf("storm = %+v", storm)
	}
}

func TestVariantTable_LookupUnknown(t *testing.T) {
	table, err := LoadVariants("")
	if err != nil {
		t.Fatalf("LoadVariants failed: %v", err)
	}
	if _, err := table.Lookup("nope"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestLoadVariants_OverrideFile(t *testing.T) {
	base := testVariant(t, DefaultVariant)

	path := filepath.Join(t.TempDir(), "variants.yaml")
	content := `
tiny:
  width: 200
  height: 100
  sprite_size: 20
  player_spawn: { x: 0, y: 80 }
  move_speed: 4
  bullet_speed: 6
  muzzle_offset: 10
  aim_offset: 0
  shoot_cooldown: 1s
  spawn_every_ticks: 10
  spawn_x_min: 10
  spawn_x_max: 190
  spawn_y: -5
  enemy_speed_min: 1
  enemy_speed_max: 2
  enemy_kinds: [pan]
  hit_radius: 5
  contact_radius: 8
  contact_damage: 50
  leak_damage: 5
  kill_score: 100
  effect_lifetime: 100ms
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	table, err := LoadVariants(path)
	if err != nil {
		t.Fatalf("LoadVariants failed: %v", err)
	}
	tiny, err := table.Lookup("tiny")
	if err != nil {
		t.Fatalf("Lookup(tiny) failed: %v", err)
	}
	if tiny.ShootCooldown != time.Second || tiny.EnemyKinds[0] != EnemyKindPan {
		t.Errorf("tiny = %+v", tiny)
	}
	// 組み込みのバリアントも残る
	if got, _ := table.Lookup(DefaultVariant); got.HitRadius != base.HitRadius {
		t.Errorf("default variant changed by override")
	}
}

func TestParseVariants_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "x: {width: 800, height: 400, sprite_size: 48, spawn_every_ticks: 1, enemy_kinds: [dragon]}"},
		{"no kinds", "x: {width: 800, height: 400, sprite_size: 48, spawn_every_ticks: 1}"},
		{"zero spawn period", "x: {width: 800, height: 400, sprite_size: 48, enemy_kinds: [pan]}"},
		{"arena too small", "x: {width: 10, height: 10, sprite_size: 48, spawn_every_ticks: 1, enemy_kinds: [pan]}"},
		{"not yaml", "x: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVariants([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadVariants_MissingFile(t *testing.T) {
	if _, err := LoadVariants(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
