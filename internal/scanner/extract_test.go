package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordScanner_ScanLine(t *testing.T) {
	s, err := NewKeywordScanner([]string{"token", "pass", "password"}, false)
	require.NoError(t, err)

	got := s.ScanLine("password = token; pass2 = token")

	want := []Match{
		{Offset: 0, Keyword: "pass", Text: "pass"},
		{Offset: 0, Keyword: "password", Text: "password"},
		{Offset: 11, Keyword: "token", Text: "token"},
		{Offset: 18, Keyword: "pass", Text: "pass"},
		{Offset: 26, Keyword: "token", Text: "token"},
	}
	assert.Equal(t, want, got)
}

func TestKeywordScanner_NoMatch(t *testing.T) {
	s, err := NewKeywordScanner([]string{"secret"}, false)
	require.NoError(t, err)
	assert.Empty(t, s.ScanLine("nothing to see"))
}

func TestKeywordScanner_ScanName(t *testing.T) {
	s, err := NewKeywordScanner([]string{"secret", "*.pem"}, false)
	require.NoError(t, err)

	got := s.ScanName("secret_keys.pem")
	require.Len(t, got, 2)
	assert.Equal(t, "secret", got[0].Keyword)
	assert.Equal(t, "*.pem", got[1].Keyword)
}

func TestCommentScanner_DefaultShapes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Match
	}{
		{
			name: "DoubleSlash",
			line: "x := 1 // set x",
			want: []Match{{Offset: 9, Keyword: "set x", Text: " set x"}},
		},
		{
			name: "Hash",
			line: "x = 1  # python",
			want: []Match{{Offset: 8, Keyword: "python", Text: " python"}},
		},
		{
			name: "CBlock",
			line: "int a; /* note */ int b;",
			want: []Match{{Offset: 9, Keyword: "note", Text: " note "}},
		},
		{
			name: "TripleQuote",
			line: `"""docstring"""`,
			want: []Match{{Offset: 3, Keyword: "docstring", Text: "docstring"}},
		},
		{
			name: "EmptyComment",
			line: "code //",
			want: nil,
		},
		{
			name: "NoComment",
			line: "plain code",
			want: nil,
		},
	}

	s := NewCommentScanner("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ScanLine(tt.line))
		})
	}
}

func TestCommentScanner_MultipleShapesSorted(t *testing.T) {
	s := NewCommentScanner("")
	got := s.ScanLine("/* a */ b // c")

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Keyword)
	assert.Equal(t, "c", got[1].Keyword)
	assert.Less(t, got[0].Offset, got[1].Offset)
}

func TestCommentScanner_CustomTag(t *testing.T) {
	s := NewCommentScanner("--")
	got := s.ScanLine("SELECT 1; -- check grants // not c")

	require.Len(t, got, 1)
	assert.Equal(t, "check grants // not c", got[0].Keyword)
	assert.Equal(t, 12, got[0].Offset)

	assert.Empty(t, s.ScanLine("x = 1 # hash ignored"))
}

func TestStringScanner_ScanLine(t *testing.T) {
	var s StringScanner

	got := s.ScanLine(`call("one", "two") + ""`)
	want := []Match{
		{Offset: 6, Keyword: "one", Text: "one"},
		{Offset: 13, Keyword: "two", Text: "two"},
	}
	assert.Equal(t, want, got)

	// Escapes are not special-cased.
	got = s.ScanLine(`"a\"b"`)
	require.Len(t, got, 1)
	assert.Equal(t, `a\`, got[0].Keyword)

	assert.Empty(t, s.ScanLine(`no "closing`))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Comment ")
	require.NoError(t, err)
	assert.Equal(t, ModeComment, m)

	_, err = ParseMode("ast")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestNewLineScanner(t *testing.T) {
	cfg := DefaultConfig()

	ls, err := NewLineScanner(ModeKeyword, []string{"a"}, cfg)
	require.NoError(t, err)
	assert.IsType(t, &KeywordScanner{}, ls)

	ls, err = NewLineScanner(ModeStrings, nil, cfg)
	require.NoError(t, err)
	assert.IsType(t, StringScanner{}, ls)

	_, err = NewLineScanner(ModeNames, []string{"a"}, cfg)
	assert.ErrorIs(t, err, ErrInvalidMode)
}
