package dictionary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, format)
}

func (l *recordingLogger) Debugf(string, ...interface{}) {}

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dict")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse(t *testing.T) {
	content := "# x\na\n[cat]\nB # y\n"

	tests := []struct {
		name       string
		categories []string
		want       []string
	}{
		{name: "NoFilter", want: []string{"a", "B"}},
		{name: "CategoryFilter", categories: []string{"cat"}, want: []string{"B"}},
		{name: "CaseInsensitiveFilter", categories: []string{"CAT"}, want: []string{"B"}},
		{name: "UnknownCategory", categories: []string{"other"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(content), "test", Options{Categories: tt.categories})
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, Texts(got))
		})
	}
}

func TestParse_Categories(t *testing.T) {
	content := `
top
[Credentials]
password
[crypto_algos]
md5
[not a header]
`
	got, err := Parse(strings.NewReader(content), "test", Options{})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, "", got[0].Category)
	assert.Equal(t, "credentials", got[1].Category)
	assert.Equal(t, "crypto_algos", got[2].Category)
	// A bracketed line with spaces is not a header, it is a keyword.
	assert.Equal(t, "[not a header]", got[3].Text)
	assert.Equal(t, "crypto_algos", got[3].Category)
	assert.Equal(t, []string{"", "credentials", "crypto_algos"}, Categories(got))
}

func TestParse_CustomCommentTag(t *testing.T) {
	content := "#include ; ignored\nkey ; trailing\n"
	got, err := Parse(strings.NewReader(content), "test", Options{CommentTag: ";"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#include", "key"}, Texts(got))
}

func TestLoad_MissingFileFailsSoft(t *testing.T) {
	log := &recordingLogger{}
	got := Load(filepath.Join(t.TempDir(), "missing.dict"), Options{}, log)

	assert.Empty(t, got)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "cannot be opened")
}

func TestLoad_SetsSource(t *testing.T) {
	path := writeDict(t, "alpha\n")
	got := Load(path, Options{}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, path, got[0].Source)
}

func TestLoadAll(t *testing.T) {
	dictA := writeDict(t, "a\nshared\n")
	dictB := writeDict(t, "[x]\nshared\n")
	missing := filepath.Join(t.TempDir(), "missing.dict")

	tests := []struct {
		name    string
		src     Sources
		want    []string
		wantErr error
	}{
		{
			name: "WordsOnly",
			src:  Sources{Words: []string{"one", " two "}},
			want: []string{"one", "two"},
		},
		{
			name: "WordsThenDicts",
			src:  Sources{Words: []string{"w"}, Dicts: []string{dictA}},
			want: []string{"w", "a", "shared"},
		},
		{
			name: "DuplicatesKept",
			src:  Sources{Dicts: []string{dictA, dictB}},
			want: []string{"a", "shared", "shared"},
		},
		{
			name: "MissingDictWithOtherSource",
			src:  Sources{Dicts: []string{missing, dictA}},
			want: []string{"a", "shared"},
		},
		{
			name:    "MissingSoleDict",
			src:     Sources{Dicts: []string{missing}},
			wantErr: ErrNoDictionary,
		},
		{
			name: "FilterExcludesEverything",
			src:  Sources{Dicts: []string{dictA}, Options: Options{Categories: []string{"x"}}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadAll(tt.src, &recordingLogger{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, Texts(got))
		})
	}
}

func TestLoadAll_DefaultDictionary(t *testing.T) {
	got, err := LoadAll(Sources{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Contains(t, Texts(got), "password")

	creds, err := LoadAll(Sources{Options: Options{Categories: []string{"credentials"}}}, nil)
	require.NoError(t, err)
	for _, k := range creds {
		assert.Equal(t, "credentials", k.Category)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"*.js", "*.py", "x"}, SplitList("*.js, *.py", "", ",x,"))
	assert.Nil(t, SplitList(""))
}

func TestParse_LongLine(t *testing.T) {
	long := strings.Repeat("k", 128*1024)

	var buf bytes.Buffer
	buf.WriteString("first\n" + long + "\nlast")
	got, err := Parse(&buf, "test", Options{})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, long, got[1].Text)
	assert.Equal(t, "last", got[2].Text)
}

func TestLoadAll_WarnsOnUnmatchedList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.dict")
	require.NoError(t, os.WriteFile(path, []byte("[web]\nxss\n"), 0644))

	log := &recordingLogger{}
	got, err := LoadAll(Sources{
		Dicts:   []string{path},
		Options: Options{Categories: []string{"WEB", "mobile"}},
	}, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"xss"}, Texts(got))
	assert.Equal(t, []string{"List %s not found in any dictionary."}, log.warnings)

	log = &recordingLogger{}
	_, err = LoadAll(Sources{Options: Options{Categories: []string{"crypto"}}}, log)
	require.NoError(t, err)
	assert.Empty(t, log.warnings)
}
