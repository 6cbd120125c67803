package application

import (
	"math/rand/v2"
	"testing"
)

func TestSpawner_Ranges(t *testing.T) {
	v := testVariant(t, DefaultVariant)
	s := NewSpawner(&v, rand.New(rand.NewPCG(42, 7)))

	seen := make(map[EnemyKind]bool)
	for i := range 2000 {
		e := s.Spawn(EntityID(i + 1))
		if e.ID != EntityID(i+1) {
			t.Fatalf("ID = %d, want %d", e.ID, i+1)
		}
		if e.Position.X < 50 || e.Position.X > 750 {
			t.Fatalf("x = %v out of [50,750]", e.Position.X)
		}
		if e.Position.Y != -30 {
			t.Fatalf("y = %v, want -30", e.Position.Y)
		}
		if e.Speed < 2 || e.Speed >= 4 {
			t.Fatalf("speed = %v out of [2,4)", e.Speed)
		}
		seen[e.Kind] = true
	}
	for _, kind := range v.EnemyKinds {
		if !seen[kind] {
			t.Errorf("kind %s never spawned", kind)
		}
	}
}
