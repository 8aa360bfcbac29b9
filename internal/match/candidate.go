package match

import (
	"cmp"
	"slices"
)

// DefaultSuggestScore is the minimum score for a name to be suggested.
const DefaultSuggestScore = 0.5

// Candidate is a known field name ranked against a requested one.
type Candidate struct {
	Name string
	// Key is the comparison key of Name.
	Key string
	// Score is the better of the key and stem similarities, 0 to 1.
	Score float64
}

// CandidateList is a ranked list of candidates, best first.
type CandidateList []Candidate

// RankCandidates scores every known name against requested and sorts them by
// score, then by name.
func RankCandidates(requested string, known []string) CandidateList {
	key, stem := Key(requested), Stem(requested)

	list := make(CandidateList, 0, len(known))
	for _, name := range known {
		c := Candidate{Name: name, Key: Key(name)}
		c.Score = max(Similarity(c.Key, key), Similarity(Stem(name), stem))

		list = append(list, c)
	}

	slices.SortStableFunc(list, func(a, b Candidate) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return list
}

// Suggest returns up to limit known names close enough to requested to be
// offered as "did you mean" hints.
func Suggest(requested string, known []string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	ranked := RankCandidates(requested, known).AboveThreshold(DefaultSuggestScore).Top(limit)

	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Name
	}

	return names
}

// Top returns the first n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// AboveThreshold returns the candidates scoring at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var out CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			out = append(out, cand)
		}
	}

	return out
}
