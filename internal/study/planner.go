package study

import (
	"sort"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
)

// Priority ranks a concept for study time: high importance, high exam
// likelihood, low mastery. A fully mastered concept scores zero no matter how
// important it is.
func Priority(c models.ConceptMastery) float64 {
	return float64(c.Importance) * (c.ExamProbability / 100.0) * (1.0 - c.Mastery/100.0)
}

// PlanParams bounds a cram plan: at most MaxTopics scheduled concepts, each
// with at least FloorMinutes.
type PlanParams struct {
	MaxTopics    int
	FloorMinutes int
}

// BuildPlan allocates availableMinutes across the course's concepts by
// normalized priority. Ranking is by priority descending, ties broken by
// higher importance, then higher exam probability, then name. Only the top
// MaxTopics concepts are scheduled; anything whose proportional share falls
// below FloorMinutes is listed in SkipTopics instead of being given a token
// allocation. The top fifth of scheduled concepts (at least one) is surfaced
// as HighPriority.
func BuildPlan(concepts []models.ConceptMastery, availableMinutes int, params PlanParams) (models.CramPlan, error) {
	if availableMinutes <= 0 {
		return models.CramPlan{}, util.ErrInvalidPlanConfig
	}
	if len(concepts) == 0 {
		return models.CramPlan{}, util.ErrInsufficientData
	}
	if params.MaxTopics <= 0 {
		params.MaxTopics = 10
	}
	if params.FloorMinutes <= 0 {
		params.FloorMinutes = 5
	}

	ranked := make([]models.ConceptMastery, len(concepts))
	copy(ranked, concepts)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := Priority(ranked[i]), Priority(ranked[j])
		if pi != pj {
			return pi > pj
		}
		if ranked[i].Importance != ranked[j].Importance {
			return ranked[i].Importance > ranked[j].Importance
		}
		if ranked[i].ExamProbability != ranked[j].ExamProbability {
			return ranked[i].ExamProbability > ranked[j].ExamProbability
		}
		return ranked[i].Name < ranked[j].Name
	})

	top := ranked
	skip := []string{}
	if len(top) > params.MaxTopics {
		for _, c := range top[params.MaxTopics:] {
			skip = append(skip, c.Name)
		}
		top = top[:params.MaxTopics]
	}

	var sum float64
	for _, c := range top {
		sum += Priority(c)
	}

	plan := models.CramPlan{
		TotalMinutes: availableMinutes,
		Entries:      []models.CramEntry{},
		HighPriority: []string{},
		SkipTopics:   skip,
	}
	if sum <= 0 {
		// Everything in scope is fully mastered; nothing earns study time.
		for _, c := range top {
			plan.SkipTopics = append(plan.SkipTopics, c.Name)
		}
		return plan, nil
	}

	for _, c := range top {
		p := Priority(c)
		minutes := int(float64(availableMinutes) * p / sum)
		if minutes < params.FloorMinutes {
			plan.SkipTopics = append(plan.SkipTopics, c.Name)
			continue
		}
		entry := models.CramEntry{
			ConceptID:        c.ConceptID,
			Name:             c.Name,
			AllocatedMinutes: minutes,
			Priority:         p,
		}
		if def := util.DisplaySnippet(c.Definition, 200); def != "" {
			entry.KeyPoints = []string{def}
		}
		plan.Entries = append(plan.Entries, entry)
		plan.UsedMinutes += minutes
	}

	highCount := len(plan.Entries) / 5
	if highCount < 1 && len(plan.Entries) > 0 {
		highCount = 1
	}
	for i := 0; i < highCount; i++ {
		plan.HighPriority = append(plan.HighPriority, plan.Entries[i].Name)
	}
	return plan, nil
}
