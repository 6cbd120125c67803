package application

import "alpaca/server/domain"

// Advance は1tick分、敵と弾を移動させます。
// 下端を越えた敵は取り除かれ、体力にleakダメージを与えます。戻り値はその数です。
func (f *Field) Advance() (leaked int) {
	leaked = f.advanceEnemies()
	f.advanceBullets()
	return leaked
}

func (f *Field) advanceEnemies() int {
	leaked := 0
	kept := f.Enemies[:0]
	for _, e := range f.Enemies {
		e.Position.Y += e.Speed
		if e.Position.Y > f.variant.Height {
			leaked++
			f.Damage(f.variant.LeakDamage)
			continue
		}
		kept = append(kept, e)
	}
	clear(f.Enemies[len(kept):])
	f.Enemies = kept
	return leaked
}

func (f *Field) advanceBullets() {
	kept := f.Bullets[:0]
	for _, b := range f.Bullets {
		b.Position = add(b.Position, b.Velocity)
		if !f.InArena(b.Position) {
			continue
		}
		kept = append(kept, b)
	}
	clear(f.Bullets[len(kept):])
	f.Bullets = kept
}

// InArena は座標が [0,width]x[0,height] に収まっているかを返します。
func (f *Field) InArena(p domain.Position2D) bool {
	return p.X >= 0 && p.X <= f.variant.Width && p.Y >= 0 && p.Y <= f.variant.Height
}

// EnemyInBounds は敵が画面内、または上端の出現マージン内にいるかを返します。
func (f *Field) EnemyInBounds(e *Enemy) bool {
	return e.Position.X >= 0 && e.Position.X <= f.variant.Width && e.Position.Y <= f.variant.Height
}
