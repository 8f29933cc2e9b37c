package study

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

// GradeDeterministic grades choice-type questions by exact match. The answer
// may be the option text or its zero-based index ("2" selects options[2]).
// The returned bool reports whether this function could grade the question at
// all; short-answer questions return false and go through the equivalence
// path.
func GradeDeterministic(q models.Question, givenAnswer string) (correct bool, graded bool) {
	switch q.Type {
	case QuestionMultipleChoice, QuestionTrueFalse:
	default:
		return false, false
	}
	given := strings.TrimSpace(givenAnswer)
	if idx, err := strconv.Atoi(given); err == nil && idx >= 0 && idx < len(q.Options) {
		given = q.Options[idx]
	}
	return strings.EqualFold(given, strings.TrimSpace(q.CorrectAnswer)), true
}

// GradeShortAnswerFallback is the deterministic short-answer path used when
// the equivalence model is unavailable: trimmed, case-insensitive exact match.
func GradeShortAnswerFallback(correctAnswer, givenAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(correctAnswer), strings.TrimSpace(givenAnswer))
}

// BuildEquivalencePrompt asks the model whether a free-form answer means the
// same thing as the expected one.
func BuildEquivalencePrompt(q models.Question, givenAnswer string) string {
	var b strings.Builder
	b.WriteString("Judge whether the student's answer is semantically equivalent to the expected answer.\n")
	b.WriteString(`Return ONLY a JSON object of the form {"equivalent":true|false}.` + "\n\n")
	b.WriteString("Question: " + q.Prompt + "\n")
	b.WriteString("Expected answer: " + q.CorrectAnswer + "\n")
	b.WriteString("Student answer: " + givenAnswer + "\n")
	return b.String()
}

type equivalenceJudgment struct {
	Equivalent bool `json:"equivalent"`
}

// ParseEquivalenceJudgment parses the model's verdict. Unparsable output is
// an error; the caller falls back to exact match rather than guessing.
func ParseEquivalenceJudgment(raw string) (bool, error) {
	var j equivalenceJudgment
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &j); err != nil {
		return false, fmt.Errorf("parse equivalence json: %w", err)
	}
	return j.Equivalent, nil
}
