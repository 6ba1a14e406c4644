package scanner

import (
	"sort"
)

// DefaultTop is the default length of top-N tables.
const DefaultTop = 10

// Frequency is a value and how often it occurred.
type Frequency struct {
	Count int    `json:"count"`
	Value string `json:"value"`
}

// TopByFrequency counts items, most frequent first. Ties are ordered by
// value so the output is deterministic.
func TopByFrequency(items []string) []Frequency {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it]++
	}

	freqs := make([]Frequency, 0, len(counts))
	for v, c := range counts {
		freqs = append(freqs, Frequency{Count: c, Value: v})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Value < freqs[j].Value
	})
	return freqs
}

// Top truncates freqs to at most n entries. n <= 0 keeps everything.
func Top(freqs []Frequency, n int) []Frequency {
	if n <= 0 || len(freqs) <= n {
		return freqs
	}
	return freqs[:n]
}
