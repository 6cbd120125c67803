package application

import "testing"

func TestMapKey(t *testing.T) {
	tests := []struct {
		key  string
		want Command
		ok   bool
	}{
		{"w", CommandUp, true},
		{"W", CommandUp, true},
		{"a", CommandLeft, true},
		{"s", CommandDown, true},
		{"D", CommandRight, true},
		{" ", CommandFire, true},
		{"ArrowUp", CommandUp, true},
		{"arrowleft", CommandLeft, true},
		{"x", CommandNone, false},
		{"", CommandNone, false},
		{"Enter", CommandNone, false},
	}
	for _, tt := range tests {
		got, ok := MapKey(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MapKey(%q) = (%s, %v), want (%s, %v)", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCommandDirection(t *testing.T) {
	tests := []struct {
		cmd      Command
		dx, dy   float32
		rotation Rotation
	}{
		{CommandUp, 0, -1, RotationUp},
		{CommandLeft, -1, 0, RotationLeft},
		{CommandDown, 0, 1, RotationDown},
		{CommandRight, 1, 0, RotationRight},
	}
	for _, tt := range tests {
		dx, dy, rotation, ok := tt.cmd.direction()
		if !ok || dx != tt.dx || dy != tt.dy || rotation != tt.rotation {
			t.Errorf("%s.direction() = (%v, %v, %v, %v)", tt.cmd, dx, dy, rotation, ok)
		}
	}
	if _, _, _, ok := CommandFire.direction(); ok {
		t.Error("fire should not have a direction")
	}
}
