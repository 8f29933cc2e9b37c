package study

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
)

func concept(id, name string, importance int, examProb, mastery float64) models.ConceptMastery {
	cm := models.ConceptMastery{Mastery: mastery}
	cm.ConceptID = id
	cm.Name = name
	cm.Importance = importance
	cm.ExamProbability = examProb
	return cm
}

func TestPriorityFormula(t *testing.T) {
	require.InDelta(t, 9.0, Priority(concept("a", "a", 10, 90, 0)), 1e-9)
	require.InDelta(t, 0.0, Priority(concept("b", "b", 10, 100, 100)), 1e-9, "full mastery zeroes priority")
	require.InDelta(t, 2.25, Priority(concept("c", "c", 5, 90, 50)), 1e-9)
}

func TestBuildPlanAllocationMonotonic(t *testing.T) {
	concepts := []models.ConceptMastery{
		concept("c1", "High", 9, 100, 0),
		concept("c2", "Mid", 3, 100, 0),
		concept("c3", "Low", 1, 100, 0),
	}
	plan, err := BuildPlan(concepts, 120, PlanParams{MaxTopics: 10, FloorMinutes: 5})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 3)
	require.Equal(t, "High", plan.Entries[0].Name)
	require.GreaterOrEqual(t, plan.Entries[0].AllocatedMinutes, plan.Entries[1].AllocatedMinutes)
	require.GreaterOrEqual(t, plan.Entries[1].AllocatedMinutes, plan.Entries[2].AllocatedMinutes)
	require.LessOrEqual(t, plan.UsedMinutes, 120)
	require.Equal(t, []string{"High"}, plan.HighPriority)
}

func TestBuildPlanKeyPointsFromDefinition(t *testing.T) {
	withDef := concept("c1", "Chain Rule", 8, 90, 0)
	withDef.Definition = "Differentiates a composite function by multiplying the outer and inner derivatives."
	noDef := concept("c2", "Mystery", 7, 90, 0)

	plan, err := BuildPlan([]models.ConceptMastery{withDef, noDef}, 100, PlanParams{MaxTopics: 10, FloorMinutes: 5})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	require.Len(t, plan.Entries[0].KeyPoints, 1)
	require.Contains(t, plan.Entries[0].KeyPoints[0], "composite function")
	require.Empty(t, plan.Entries[1].KeyPoints)
}

func TestBuildPlanFloorMovesToSkip(t *testing.T) {
	concepts := []models.ConceptMastery{
		concept("c1", "Dominant", 10, 100, 0),
		concept("c2", "Sliver", 1, 5, 90),
	}
	plan, err := BuildPlan(concepts, 60, PlanParams{MaxTopics: 10, FloorMinutes: 5})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	require.Equal(t, "Dominant", plan.Entries[0].Name)
	require.Contains(t, plan.SkipTopics, "Sliver")
}

func TestBuildPlanTopNCap(t *testing.T) {
	concepts := []models.ConceptMastery{
		concept("c1", "A", 9, 90, 0),
		concept("c2", "B", 8, 90, 0),
		concept("c3", "C", 7, 90, 0),
	}
	plan, err := BuildPlan(concepts, 120, PlanParams{MaxTopics: 2, FloorMinutes: 5})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	require.Contains(t, plan.SkipTopics, "C")
}

func TestBuildPlanTieBreaks(t *testing.T) {
	// Same priority product, higher importance must rank first.
	concepts := []models.ConceptMastery{
		concept("c1", "LowImp", 5, 80, 0),
		concept("c2", "HighImp", 10, 40, 0),
	}
	plan, err := BuildPlan(concepts, 60, PlanParams{MaxTopics: 10, FloorMinutes: 5})
	require.NoError(t, err)
	require.Equal(t, "HighImp", plan.Entries[0].Name)
}

func TestBuildPlanAllMastered(t *testing.T) {
	concepts := []models.ConceptMastery{
		concept("c1", "Done", 10, 100, 100),
	}
	plan, err := BuildPlan(concepts, 60, PlanParams{})
	require.NoError(t, err)
	require.Empty(t, plan.Entries)
	require.Contains(t, plan.SkipTopics, "Done")
}

func TestBuildPlanErrors(t *testing.T) {
	_, err := BuildPlan(nil, 60, PlanParams{})
	require.ErrorIs(t, err, util.ErrInsufficientData)

	_, err = BuildPlan([]models.ConceptMastery{concept("c1", "A", 5, 50, 0)}, 0, PlanParams{})
	require.ErrorIs(t, err, util.ErrInvalidPlanConfig)
}
