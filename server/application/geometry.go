package application

import (
	"math"

	"alpaca/server/domain"
)

// Distance は2点間のユークリッド距離を返します。
func Distance(a, b domain.Position2D) float32 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}

// Heading は角度（度）の単位ベクトルを返します。画面座標系なのでyは下向きが正です。
func Heading(degrees float64) domain.Position2D {
	rad := degrees * math.Pi / 180
	return domain.Position2D{
		X: float32(math.Cos(rad)),
		Y: float32(math.Sin(rad)),
	}
}

func add(a, b domain.Position2D) domain.Position2D {
	return domain.Position2D{X: a.X + b.X, Y: a.Y + b.Y}
}

func scale(v domain.Position2D, k float32) domain.Position2D {
	return domain.Position2D{X: v.X * k, Y: v.Y * k}
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
