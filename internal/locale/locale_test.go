package locale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Language{
		"fr":    French,
		"FR":    French,
		"es":    Spanish,
		"es-ES": Spanish,
		"es_MX": Spanish,
		"de":    French,
		"":      French,
	}
	for in, want := range cases {
		require.Equal(t, want, Parse(in), "input %q", in)
	}
}

func TestFor(t *testing.T) {
	fr := For(French)
	require.Contains(t, fr.SystemPrompt, "Réponds TOUJOURS en français")
	require.NotEmpty(t, fr.Greeting)

	es := For(Spanish)
	require.Contains(t, es.SystemPrompt, "Responde SIEMPRE en español")

	require.Equal(t, fr, For(Language("xx")))
}
