package application

import "time"

// CollisionResult は1回の衝突判定の結果です。
type CollisionResult struct {
	Kills    int // 弾で撃破した敵の数
	Contacts int // プレイヤーに接触した敵の数
}

// ResolveCollisions は弾と敵、プレイヤーと敵の衝突を処理します。
// 1つの弾・敵は1tickにつき高々1回しか処理されません。
func (f *Field) ResolveCollisions(now time.Time) CollisionResult {
	var result CollisionResult
	v := f.variant

	removedEnemies := make(map[EntityID]struct{})
	removedBullets := make(map[EntityID]struct{})

	for _, b := range f.Bullets {
		for _, e := range f.Enemies {
			if _, gone := removedEnemies[e.ID]; gone {
				continue
			}
			if Distance(b.Position, e.Position) >= v.HitRadius {
				continue
			}
			removedEnemies[e.ID] = struct{}{}
			removedBullets[b.ID] = struct{}{}
			f.SpawnEffect(e.Position, now)
			f.AddScore(v.KillScore)
			result.Kills++
			break
		}
	}

	center := f.PlayerCenter()
	for _, e := range f.Enemies {
		if _, gone := removedEnemies[e.ID]; gone {
			continue
		}
		if Distance(center, e.Position) >= v.ContactRadius {
			continue
		}
		removedEnemies[e.ID] = struct{}{}
		f.Damage(v.ContactDamage)
		result.Contacts++
	}

	if len(removedBullets) > 0 {
		kept := f.Bullets[:0]
		for _, b := range f.Bullets {
			if _, gone := removedBullets[b.ID]; !gone {
				kept = append(kept, b)
			}
		}
		clear(f.Bullets[len(kept):])
		f.Bullets = kept
	}
	if len(removedEnemies) > 0 {
		kept := f.Enemies[:0]
		for _, e := range f.Enemies {
			if _, gone := removedEnemies[e.ID]; !gone {
				kept = append(kept, e)
			}
		}
		clear(f.Enemies[len(kept):])
		f.Enemies = kept
	}
	return result
}
