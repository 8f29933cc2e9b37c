// Package study holds the intelligence core: concept extraction and merging,
// mastery tracking, confusion classification, quiz generation and grading, and
// cram planning. Everything here is deterministic given its inputs; the only
// semantic judgment is delegated through a narrow text-generation contract and
// every call site carries a deterministic fallback.
package study

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
)

// ConceptCandidate is one concept as proposed by the extraction model before
// course-level merging.
type ConceptCandidate struct {
	Name            string  `json:"name"`
	Definition      string  `json:"definition"`
	Importance      int     `json:"importance"`
	ExamProbability float64 `json:"exam_probability"`
}

// CanonicalName normalizes a concept name for deduplication: lowercased with
// runs of whitespace collapsed to a single space.
func CanonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// BuildExtractionPrompt asks the model for a strict JSON concept list for one
// material's text.
func BuildExtractionPrompt(title, text string) string {
	var b strings.Builder
	b.WriteString("Extract the key concepts a student must learn from the following course material.\n")
	b.WriteString("Return ONLY a JSON object of the form:\n")
	b.WriteString(`{"concepts":[{"name":"...","definition":"...","importance":1-10,"exam_probability":0-100}]}` + "\n")
	b.WriteString("Importance is how central the concept is to the material (10 = core). Exam probability is the percent chance it appears on an exam.\n")
	if strings.TrimSpace(title) != "" {
		b.WriteString("Material: " + title + "\n")
	}
	b.WriteString("\n---\n")
	b.WriteString(text)
	return b.String()
}

type conceptsEnvelope struct {
	Concepts []ConceptCandidate `json:"concepts"`
}

// ParseConceptsJSON parses the extraction model's output. Output that is not
// valid JSON, or contains no usable concept, is an extraction failure: the
// caller marks the material failed instead of recording zero concepts.
// Candidates are clamped to their valid ranges and deduplicated by canonical
// name, keeping the maximum importance and the mean exam probability.
func ParseConceptsJSON(raw string) ([]ConceptCandidate, error) {
	cleaned := StripCodeFence(raw)
	var env conceptsEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		var bare []ConceptCandidate
		if err2 := json.Unmarshal([]byte(cleaned), &bare); err2 != nil {
			return nil, fmt.Errorf("%w: parse concepts json: %v", util.ErrExtractionFailed, err)
		}
		env.Concepts = bare
	}

	type agg struct {
		candidate ConceptCandidate
		probSum   float64
		count     int
	}
	order := make([]string, 0, len(env.Concepts))
	byName := make(map[string]*agg, len(env.Concepts))
	for _, c := range env.Concepts {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		c.Definition = strings.TrimSpace(c.Definition)
		c.Importance = clampInt(c.Importance, 1, 10)
		c.ExamProbability = clampFloat(c.ExamProbability, 0, 100)

		key := CanonicalName(c.Name)
		if a, ok := byName[key]; ok {
			if c.Importance > a.candidate.Importance {
				a.candidate.Importance = c.Importance
			}
			if a.candidate.Definition == "" {
				a.candidate.Definition = c.Definition
			}
			a.probSum += c.ExamProbability
			a.count++
			continue
		}
		byName[key] = &agg{candidate: c, probSum: c.ExamProbability, count: 1}
		order = append(order, key)
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("%w: model returned no usable concepts", util.ErrExtractionFailed)
	}
	out := make([]ConceptCandidate, 0, len(order))
	for _, key := range order {
		a := byName[key]
		a.candidate.ExamProbability = a.probSum / float64(a.count)
		out = append(out, a.candidate)
	}
	return out, nil
}

// StripCodeFence removes a surrounding markdown code fence, which models add
// even when told not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
