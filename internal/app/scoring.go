package app

import (
	"math"

	"christmas-quiz-service/internal/domain"
)

// Score maps response latency to a point award. Answers at or past the time
// limit earn nothing; otherwise points decay linearly from maxPoints down to
// half of it, clamped to [MinPointsPerQn, maxPoints]. Pure and deterministic.
func Score(responseTimeMs, timeLimitMs int64, maxPoints int) int {
	if responseTimeMs >= timeLimitMs {
		return 0
	}
	ratio := float64(responseTimeMs) / float64(timeLimitMs)
	points := int(math.Round(float64(maxPoints) * (1 - 0.5*ratio)))
	if points < domain.MinPointsPerQn {
		points = domain.MinPointsPerQn
	}
	if points > maxPoints {
		points = maxPoints
	}
	return points
}
