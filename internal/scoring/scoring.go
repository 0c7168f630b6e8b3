// Package scoring implements the pure, deterministic scoring engine,
// grounded on services/gamification/internal/core/scoring.go's shape: a
// single ComputeScore function taking the question, the raw signals, and
// returning a breakdown — no mutable state, no I/O.
package scoring

import "math"

// Breakdown is the (base, timeBonus, streakBonus) result of scoring one
// answer, where timeBonus already folds in the position tiebreaker for
// display parity.
type Breakdown struct {
	Correct     bool
	Base        int
	TimeBonus   int // includes the position bonus
	StreakBonus int
	Total        int
}

// Compute scores one answer. weight is the question's resolved point
// value; elapsedSecs is the time taken to answer; timeLimitSecs is the
// question's time limit; priorStreak is the count of consecutive correct
// answers immediately preceding this one (not including it); position is
// the 0-based arrival order among this question's submissions so far.
func Compute(weight int, correct bool, elapsedSecs float64, timeLimitSecs int, priorStreak int, position int) Breakdown {
	if !correct || weight == 0 {
		return Breakdown{Correct: false}
	}

	base := weight / 2

	timeBonus := timeBonusFor(weight, elapsedSecs, timeLimitSecs)
	position5 := positionBonus(position)

	subtotal := base + timeBonus
	streak := streakBonusFor(priorStreak+1, subtotal)

	total := base + (timeBonus + position5) + streak

	return Breakdown{
		Correct:     true,
		Base:        base,
		TimeBonus:   timeBonus + position5,
		StreakBonus: streak,
		Total:       total,
	}
}

// timeBonusFor implements the quadratic fast-answer curve with a fast-
// answer floor: t < 0.3s always yields the maximum (weight/2).
func timeBonusFor(weight int, elapsedSecs float64, timeLimitSecs int) int {
	if elapsedSecs < 0.3 {
		return weight / 2
	}
	if timeLimitSecs <= 0 || elapsedSecs >= float64(timeLimitSecs) {
		return 0
	}
	ratio := 1 - elapsedSecs/float64(timeLimitSecs)
	return int(math.Floor(float64(weight) / 2 * ratio * ratio))
}

// positionBonus is the small integer tiebreaker salt: {5,4,3,2,1,0} for
// arrival positions 0..5+.
func positionBonus(position int) int {
	capped := position + 1
	if capped > 6 {
		capped = 6
	}
	bonus := 6 - capped
	if bonus < 0 {
		return 0
	}
	return bonus
}

// streakBonusFor applies the percentage multiplier on subtotal keyed by k,
// the count of consecutive correct answers including the current one.
func streakBonusFor(k int, subtotal int) int {
	var pct float64
	switch {
	case k >= 5:
		pct = 0.30
	case k == 4:
		pct = 0.20
	case k == 3:
		pct = 0.10
	case k == 2:
		pct = 0.05
	default:
		pct = 0
	}
	return int(math.Floor(float64(subtotal) * pct))
}
