//go:build fuzz
// +build fuzz

package dictionary

import (
	"strings"
	"testing"
)

func FuzzParse(f *testing.F) {
	seeds := []string{
		"",
		"# only a comment",
		"a\n[cat]\nB # y",
		"[]\n[a b]\n[ok-1_+]\nx",
		strings.Repeat("word\n", 1000),
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, data string) {
		keywords, err := Parse(strings.NewReader(data), "fuzz", Options{})
		if err != nil {
			return
		}
		for _, k := range keywords {
			if k.Text == "" || k.Text != strings.TrimSpace(k.Text) {
				t.Errorf("keyword not trimmed: %q", k.Text)
			}
			if strings.Contains(k.Text, DefaultCommentTag) {
				t.Errorf("keyword contains comment tag: %q", k.Text)
			}
			if k.Category != strings.ToLower(k.Category) {
				t.Errorf("category not folded: %q", k.Category)
			}
		}
	})
}
