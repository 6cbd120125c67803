package application

import (
	"math/rand/v2"
	"time"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testingT は *testing.T と *rapid.T の共通部分です。
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func testVariant(t testingT, name string) Variant {
	t.Helper()
	table, err := LoadVariants("")
	if err != nil {
		t.Fatalf("LoadVariants failed: %v", err)
	}
	v, err := table.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", name, err)
	}
	return v
}

func newTestGame(t testingT) (*Game, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return NewGame(testVariant(t, DefaultVariant), clock, rand.New(rand.NewPCG(1, 2))), clock
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-3 && d > -1e-3
}
