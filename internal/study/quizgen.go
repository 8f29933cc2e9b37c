package study

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// GeneratedQuestion is one quiz question as produced by the generation model,
// before it is persisted with ids and ordering.
type GeneratedQuestion struct {
	ConceptID     string   `json:"-"`
	Prompt        string   `json:"prompt"`
	Type          string   `json:"type"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// SelectConcepts picks count concepts for a quiz, weighted toward high
// importance and low mastery. When a course has fewer concepts than requested
// questions the selection wraps around so every question still has a concept.
func SelectConcepts(concepts []models.ConceptMastery, count int) []models.ConceptMastery {
	if count <= 0 || len(concepts) == 0 {
		return nil
	}
	ranked := make([]models.ConceptMastery, len(concepts))
	copy(ranked, concepts)
	sort.SliceStable(ranked, func(i, j int) bool {
		wi := float64(ranked[i].Importance) * (1.0 - ranked[i].Mastery/100.0)
		wj := float64(ranked[j].Importance) * (1.0 - ranked[j].Mastery/100.0)
		if wi != wj {
			return wi > wj
		}
		if ranked[i].ExamProbability != ranked[j].ExamProbability {
			return ranked[i].ExamProbability > ranked[j].ExamProbability
		}
		return ranked[i].Name < ranked[j].Name
	})
	out := make([]models.ConceptMastery, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, ranked[i%len(ranked)])
	}
	return out
}

// AdaptiveDifficulty maps current mastery to a question difficulty: struggling
// users get easier questions, near-mastered users get harder ones.
func AdaptiveDifficulty(mastery float64) string {
	switch {
	case mastery < 40:
		return DifficultyEasy
	case mastery < 70:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// BuildQuestionPrompt asks the model for questions on one concept, grounded
// in the retrieved passages so the facts come from the course material.
func BuildQuestionPrompt(concept models.ConceptMastery, passages []models.PassageResult, count int, difficulty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d %s quiz question(s) about the concept %q.\n", count, difficulty, concept.Name)
	b.WriteString("Return ONLY a JSON object of the form:\n")
	b.WriteString(`{"questions":[{"prompt":"...","type":"multiple_choice|true_false|short_answer","difficulty":"...","options":["..."],"correct_answer":"...","explanation":"..."}]}` + "\n")
	b.WriteString("For multiple_choice give exactly 4 options and make correct_answer one of them verbatim. For true_false make correct_answer \"true\" or \"false\".\n")
	if concept.Definition != "" {
		b.WriteString("Definition: " + concept.Definition + "\n")
	}
	if len(passages) > 0 {
		b.WriteString("\nBase every question only on these passages:\n")
		for i, p := range passages {
			fmt.Fprintf(&b, "[C%d] %s\n", i+1, p.Snippet)
		}
	}
	return b.String()
}

type questionsEnvelope struct {
	Questions []GeneratedQuestion `json:"questions"`
}

// ParseQuestionsJSON parses and validates the model's questions. Questions
// that fail validation are dropped; an output with no valid question at all is
// an error so the caller can fall back to deterministic generation.
func ParseQuestionsJSON(raw string) ([]GeneratedQuestion, error) {
	cleaned := StripCodeFence(raw)
	var env questionsEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		var bare []GeneratedQuestion
		if err2 := json.Unmarshal([]byte(cleaned), &bare); err2 != nil {
			return nil, fmt.Errorf("parse questions json: %w", err)
		}
		env.Questions = bare
	}

	out := make([]GeneratedQuestion, 0, len(env.Questions))
	for _, q := range env.Questions {
		q.Prompt = strings.TrimSpace(q.Prompt)
		q.Type = strings.ToLower(strings.TrimSpace(q.Type))
		q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		if q.Prompt == "" || q.CorrectAnswer == "" {
			continue
		}
		switch q.Type {
		case QuestionMultipleChoice:
			if len(q.Options) < 2 || !containsFold(q.Options, q.CorrectAnswer) {
				continue
			}
		case QuestionTrueFalse:
			lower := strings.ToLower(q.CorrectAnswer)
			if lower != "true" && lower != "false" {
				continue
			}
			q.CorrectAnswer = lower
			q.Options = []string{"true", "false"}
		case QuestionShortAnswer:
			q.Options = nil
		default:
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no valid questions")
	}
	return out, nil
}

// FallbackQuestions builds terminology multiple-choice questions directly from
// the course's concept definitions, used when the generation model is down or
// returns garbage. Distractor definitions come from the other selected
// concepts, so the quiz works with no model at all.
func FallbackQuestions(selected []models.ConceptMastery, pool []models.ConceptMastery, difficulty string) []GeneratedQuestion {
	out := make([]GeneratedQuestion, 0, len(selected))
	for _, c := range selected {
		correct := c.Definition
		if correct == "" {
			correct = "The concept named " + c.Name
		}
		options := []string{correct}
		for _, other := range pool {
			if len(options) >= 4 {
				break
			}
			if other.ConceptID == c.ConceptID || other.Definition == "" || other.Definition == correct {
				continue
			}
			options = append(options, other.Definition)
		}
		if len(options) < 2 {
			options = append(options, "None of the material covers this concept.")
		}
		out = append(out, GeneratedQuestion{
			ConceptID:     c.ConceptID,
			Prompt:        fmt.Sprintf("Which of the following best describes %q?", c.Name),
			Type:          QuestionMultipleChoice,
			Difficulty:    difficulty,
			Options:       options,
			CorrectAnswer: correct,
			Explanation:   "Definition taken from the course material.",
		})
	}
	return out
}

func containsFold(options []string, answer string) bool {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), answer) {
			return true
		}
	}
	return false
}
