// Package scoring computes run scores from their recorded outcome.
package scoring

import "math"

const (
	baseScore         = 100.0
	objectivePenalty  = 80.0
	targetsPenalty    = 15.0
	crankedMultiplier = 0.2
)

// visualAdd is the multiplier bonus of each visual mode.  Unknown modes add
// nothing.
var visualAdd = map[string]float64{
	"V":  0.0,
	"C":  0.2,
	"S":  0.4,
	"CS": 0.4,
	"B":  0.8,
}

// Multiplier returns the difficulty multiplier of a visual mode and audio
// setting.
func Multiplier(visual string, cranked bool) float64 {
	m := 1 + visualAdd[visual]
	if cranked {
		m += crankedMultiplier
	}
	return m
}

// Score returns the score of a run.  A missed objective costs 80 points
// before the multiplier is applied; remaining targets cost a flat 15 after
// it.  The result is never negative.
func Score(visual string, cranked, targetsEliminated, objectiveComplete bool) int {
	base := baseScore
	if !objectiveComplete {
		base -= objectivePenalty
	}
	s := base * Multiplier(visual, cranked)
	if !targetsEliminated {
		s -= targetsPenalty
	}
	return int(math.Max(0, math.Round(s)))
}
