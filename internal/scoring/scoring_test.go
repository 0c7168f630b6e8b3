package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_IncorrectOrZeroWeightYieldsZero(t *testing.T) {
	b := Compute(1000, false, 0.1, 30, 0, 0)
	assert.False(t, b.Correct)
	assert.Zero(t, b.Base)
	assert.Zero(t, b.TimeBonus)
	assert.Zero(t, b.StreakBonus)

	b = Compute(0, true, 0.1, 30, 0, 0)
	assert.False(t, b.Correct)
}

func TestCompute_FastAnswerYieldsMaxTimeBonus(t *testing.T) {
	b := Compute(1000, true, 0.2, 30, 0, 0)
	assert.Equal(t, 500, b.Base)
	// time bonus folds in the position bonus (5 for position 0)
	assert.Equal(t, 505, b.TimeBonus)
	assert.Equal(t, 0, b.StreakBonus)
	assert.Equal(t, 1005, b.Total)
}

func TestCompute_TimeoutYieldsZeroTimeBonusButKeepsBase(t *testing.T) {
	b := Compute(1000, true, 30, 30, 0, 5)
	assert.Equal(t, 500, b.Base)
	assert.Equal(t, 0, b.TimeBonus) // position bonus is also 0 at position 5
}

func TestCompute_StreakTiers(t *testing.T) {
	cases := []struct {
		priorStreak int
		wantPct     float64
	}{
		{0, 0},
		{1, 0.05},
		{2, 0.10},
		{3, 0.20},
		{4, 0.30},
		{10, 0.30},
	}
	for _, c := range cases {
		b := Compute(1000, true, 5, 30, c.priorStreak, 0)
		subtotal := b.Base + b.TimeBonus
		want := int(float64(subtotal) * c.wantPct)
		// allow the floor rounding the implementation performs
		assert.InDelta(t, want, b.StreakBonus, 1, "priorStreak=%d", c.priorStreak)
	}
}

func TestCompute_PositionBonusCapsAtSix(t *testing.T) {
	got := []int{}
	for pos := 0; pos <= 7; pos++ {
		b := Compute(1000, true, 30, 30, 0, pos) // t>=timeLimit isolates the position term
		got = append(got, b.TimeBonus)
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0, 0, 0}, got)
}

func TestCompute_TotalEqualsSumOfParts(t *testing.T) {
	b := Compute(2000, true, 1.5, 20, 2, 1)
	assert.Equal(t, b.Base+b.TimeBonus+b.StreakBonus, b.Total)
}
