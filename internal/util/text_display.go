package util

import (
	"sort"
	"strings"
	"unicode"
)

func DisplaySnippet(s string, maxRunes int) string {
	return trimClean(s, maxRunes)
}

// EvidenceSnippet picks the sentence of chunkText that best matches the query
// terms, so citations show the passage that actually supports the answer.
func EvidenceSnippet(chunkText, query string, maxRunes int) string {
	chunkText = trimClean(chunkText, 4000)
	if chunkText == "" {
		return ""
	}
	terms := queryTerms(query)
	sentences := splitSentences(chunkText)
	if len(terms) == 0 || len(sentences) == 0 {
		return trimClean(chunkText, maxRunes)
	}

	type scored struct {
		sentence string
		hits     int
	}
	list := make([]scored, 0, len(sentences))
	for _, s := range sentences {
		low := strings.ToLower(s)
		hits := 0
		for _, term := range terms {
			if strings.Contains(low, term) {
				hits++
			}
		}
		list = append(list, scored{sentence: s, hits: hits})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].hits == list[j].hits {
			return len(list[i].sentence) < len(list[j].sentence)
		}
		return list[i].hits > list[j].hits
	})
	best := strings.TrimSpace(list[0].sentence)
	if best == "" {
		return trimClean(chunkText, maxRunes)
	}
	return trimClean(best, maxRunes)
}

func splitSentences(s string) []string {
	out := make([]string, 0, 8)
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if x := strings.TrimSpace(b.String()); x != "" {
				out = append(out, x)
			}
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "is": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {}, "why": {},
	"which": {}, "that": {}, "this": {}, "with": {}, "from": {}, "explain": {}, "describe": {},
}

func queryTerms(s string) []string {
	fields := strings.Fields(strings.ToLower(trimClean(s, 2000)))
	seen := map[string]struct{}{}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ",.;:!?()[]{}\"'`")
		if len(f) < 3 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

func trimClean(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = SanitizeText(s)
	s = strings.Join(strings.Fields(s), " ")
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsPrint(r) {
			continue
		}
		out = append(out, r)
	}
	trimmed := strings.TrimSpace(string(out))
	runes := []rune(trimmed)
	if len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return trimmed
}
