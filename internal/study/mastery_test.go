package study

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateMastery(t *testing.T) {
	for _, tc := range []struct {
		name    string
		old     float64
		correct bool
		want    float64
	}{
		{name: "first correct from zero", old: 0, correct: true, want: 30},
		{name: "correct from fifty", old: 50, correct: true, want: 65},
		{name: "incorrect from fifty", old: 50, correct: false, want: 35},
		{name: "correct at ceiling stays", old: 100, correct: true, want: 100},
		{name: "incorrect at floor stays", old: 0, correct: false, want: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, UpdateMastery(tc.old, tc.correct, 0.3), 1e-9)
		})
	}
}

func TestUpdateMasteryConvergesWithoutReset(t *testing.T) {
	m := 90.0
	m = UpdateMastery(m, false, 0.3)
	require.Greater(t, m, 50.0, "one wrong answer must not crater mastery")

	for i := 0; i < 50; i++ {
		m = UpdateMastery(m, false, 0.3)
	}
	require.Less(t, m, 1.0)
	require.GreaterOrEqual(t, m, 0.0)

	for i := 0; i < 50; i++ {
		m = UpdateMastery(m, true, 0.3)
	}
	require.Greater(t, m, 99.0)
	require.LessOrEqual(t, m, 100.0)
}
