package utils

import (
	"math"

	"alpaca/server/domain"
)

func FinitePosition(p domain.Position2D) bool {
	return IsFinite(p.X) && IsFinite(p.Y)
}

func IsFinite(f float32) bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
