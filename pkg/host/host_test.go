package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLMatcher(t *testing.T) {
	m, err := NewURLMatcher(
		[]string{"https://www.promedico-asp.nl/promedico/*"},
		[]string{"*/logout*"},
	)
	require.NoError(t, err)

	assert.True(t, m.Match("https://www.promedico-asp.nl/promedico/index.html"))
	assert.True(t, m.Match("https://www.promedico-asp.nl/promedico/admin/onderhoud/x.html?y=1"))
	assert.False(t, m.Match("https://www.promedico-asp.nl/promedico/logout.html"))
	assert.False(t, m.Match("https://example.com/promedico/index.html"))
}

func TestURLMatcher_EmptyAllowsAll(t *testing.T) {
	m, err := NewURLMatcher(nil, nil)
	require.NoError(t, err)
	assert.True(t, m.Match("about:blank"))
}

func TestURLMatcher_InvalidPattern(t *testing.T) {
	_, err := NewURLMatcher([]string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestSelectPage(t *testing.T) {
	m, err := NewURLMatcher([]string{"https://*.promedico-asp.nl/*"}, nil)
	require.NoError(t, err)

	urls := []string{"about:blank", "chrome://newtab/", "https://mail.example.com/", "https://www.promedico-asp.nl/promedico/index.html"}
	assert.Equal(t, 3, SelectPage(urls, m))
	assert.Equal(t, 2, SelectPage(urls, nil))
	assert.Equal(t, -1, SelectPage(urls[:3], m))
}

func TestKind_AttributeSelector(t *testing.T) {
	assert.Equal(t, `textarea[name*="omschrijving" i]`, KindTextArea.AttributeSelector("name", "omschrijving"))
	assert.Equal(t,
		`input[id*="x" i], textarea[id*="x" i], select[id*="x" i]`,
		KindField.AttributeSelector("id", "x"))
	assert.Equal(t, `input[type="file"][name*="a\"b" i]`, KindFile.AttributeSelector("name", `a"b`))
}

func TestKind_Matches(t *testing.T) {
	assert.True(t, KindFile.Matches("input", "FILE"))
	assert.False(t, KindFile.Matches("input", "text"))
	assert.True(t, KindField.Matches("select", ""))
	assert.False(t, KindTextArea.Matches("input", "text"))
}

func TestMatchesText(t *testing.T) {
	labels := []string{"verder", "volgende"}
	assert.True(t, MatchesText("  Verder >> ", labels))
	assert.True(t, MatchesText("VOLGENDE", labels))
	assert.False(t, MatchesText("Annuleren", labels))
	assert.False(t, MatchesText("", labels))
}

func TestMatchOption(t *testing.T) {
	options := []Option{
		{Text: "-- kies --", Value: ""},
		{Text: "Paspoort", Value: "P"},
		{Text: "Rijbewijs", Value: "R"},
		{Text: "Identiteitskaart", Value: "I"},
	}

	tests := []struct {
		value string
		want  string
		ok    bool
	}{
		{"r", "R", true},
		{"I", "I", true},
		{"rijbewijs", "R", true},
		{"kaart", "I", true},
		{"kies", "", false},
		{"Verblijfsdocument", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			opt, ok := MatchOption(options, tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, opt.Value)
		})
	}
}
