package study

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

// Closed taxonomy of confusion pattern types. Classifications are normalized
// onto this set so that repeated identical mistakes accumulate on one pattern
// instead of fragmenting into free-text near-duplicates.
const (
	PatternDefinitionSwap       = "definition_swap"
	PatternSignConfusion        = "sign_confusion"
	PatternPartialUnderstanding = "partial_understanding"
	PatternTermConfusion        = "term_confusion"
	PatternOvergeneralization   = "overgeneralization"
	PatternMisconception        = "misconception"
)

var patternTypes = map[string]bool{
	PatternDefinitionSwap:       true,
	PatternSignConfusion:        true,
	PatternPartialUnderstanding: true,
	PatternTermConfusion:        true,
	PatternOvergeneralization:   true,
	PatternMisconception:        true,
}

// Classification is the structured result of analyzing one wrong answer.
type Classification struct {
	PatternType  string `json:"pattern_type"`
	Description  string `json:"description"`
	ConfusedWith string `json:"confused_with"`
	Intervention string `json:"intervention"`
}

// BuildClassificationPrompt asks the model to place a wrong answer into the
// closed taxonomy.
func BuildClassificationPrompt(q models.Question, givenAnswer string) string {
	var b strings.Builder
	b.WriteString("A student answered a quiz question incorrectly. Classify the mistake into exactly one pattern type from this closed set:\n")
	b.WriteString(strings.Join([]string{
		PatternDefinitionSwap, PatternSignConfusion, PatternPartialUnderstanding,
		PatternTermConfusion, PatternOvergeneralization, PatternMisconception,
	}, ", ") + "\n")
	b.WriteString("Return ONLY a JSON object of the form:\n")
	b.WriteString(`{"pattern_type":"...","description":"...","confused_with":"...","intervention":"..."}` + "\n\n")
	if q.ConceptName != "" {
		b.WriteString("Concept: " + q.ConceptName + "\n")
	}
	b.WriteString("Question: " + q.Prompt + "\n")
	if len(q.Options) > 0 {
		b.WriteString("Options: " + strings.Join(q.Options, " | ") + "\n")
	}
	b.WriteString("Correct answer: " + q.CorrectAnswer + "\n")
	b.WriteString("Student answer: " + givenAnswer + "\n")
	return b.String()
}

// ParseClassification parses the model's classification. An unparsable reply
// or an out-of-taxonomy type is an error so the caller can fall back to the
// deterministic heuristic instead of storing junk.
func ParseClassification(raw string) (Classification, error) {
	var c Classification
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &c); err != nil {
		return Classification{}, fmt.Errorf("parse classification json: %w", err)
	}
	c.PatternType = NormalizePatternType(c.PatternType)
	if c.PatternType == "" {
		return Classification{}, fmt.Errorf("classification outside taxonomy")
	}
	return c, nil
}

// NormalizePatternType maps model output onto the closed set, tolerating case
// and separator drift. Returns "" for anything that does not map.
func NormalizePatternType(s string) string {
	key := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"), " ", "_")
	if patternTypes[key] {
		return key
	}
	switch {
	case strings.Contains(key, "definition"):
		return PatternDefinitionSwap
	case strings.Contains(key, "sign") || strings.Contains(key, "direction"):
		return PatternSignConfusion
	case strings.Contains(key, "partial"):
		return PatternPartialUnderstanding
	case strings.Contains(key, "term"):
		return PatternTermConfusion
	case strings.Contains(key, "general"):
		return PatternOvergeneralization
	case strings.Contains(key, "misconception"):
		return PatternMisconception
	}
	return ""
}

// FallbackClassification produces a deterministic classification from the
// question shape alone: the same wrong answer always lands on the same
// pattern, so trigger counts keep accumulating even with no model available.
func FallbackClassification(q models.Question, givenAnswer string) Classification {
	given := strings.TrimSpace(givenAnswer)
	switch q.Type {
	case "true_false":
		return Classification{
			PatternType:  PatternSignConfusion,
			Description:  "Picked the opposite truth value.",
			Intervention: interventionFor(PatternSignConfusion, q.ConceptName),
		}
	case "multiple_choice":
		for _, opt := range q.Options {
			if opt != q.CorrectAnswer && strings.EqualFold(strings.TrimSpace(opt), given) {
				return Classification{
					PatternType:  PatternDefinitionSwap,
					Description:  "Chose a competing option over the correct one.",
					ConfusedWith: opt,
					Intervention: interventionFor(PatternDefinitionSwap, q.ConceptName),
				}
			}
		}
		return Classification{
			PatternType:  PatternTermConfusion,
			Description:  "Answer did not match any listed option.",
			Intervention: interventionFor(PatternTermConfusion, q.ConceptName),
		}
	default:
		if given == "" {
			return Classification{
				PatternType:  PatternPartialUnderstanding,
				Description:  "No answer given.",
				Intervention: interventionFor(PatternPartialUnderstanding, q.ConceptName),
			}
		}
		return Classification{
			PatternType:  PatternMisconception,
			Description:  "Free-form answer did not match the expected one.",
			Intervention: interventionFor(PatternMisconception, q.ConceptName),
		}
	}
}

func interventionFor(patternType, conceptName string) string {
	name := conceptName
	if name == "" {
		name = "this concept"
	}
	switch patternType {
	case PatternDefinitionSwap:
		return "Compare the definition of " + name + " side by side with the option you chose and note one distinguishing feature."
	case PatternSignConfusion:
		return "Re-derive the direction for " + name + " from first principles instead of memorizing the sign."
	case PatternPartialUnderstanding:
		return "You have the right category for " + name + "; drill the specific cases until the details stick."
	case PatternTermConfusion:
		return "Make a two-column glossary entry for " + name + " and the term you mixed it up with."
	case PatternOvergeneralization:
		return "List the boundary conditions where " + name + " does not apply."
	default:
		return "Reread the source passage for " + name + " and restate it in your own words."
	}
}
