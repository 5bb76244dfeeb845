package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strugal/inventory-platform/internal/chat"
	"github.com/strugal/inventory-platform/internal/locale"
	"github.com/strugal/inventory-platform/internal/model"
)

func streaming(content string) chat.Snapshot {
	return chat.Snapshot{
		Loading: true,
		Phase:   chat.PhaseStreaming,
		Messages: []chat.Message{
			{ID: "u1", Role: model.RoleUser, Content: "Bonjour"},
			{ID: "a1", Role: model.RoleAssistant, Content: content},
		},
	}
}

func TestRenderer_PrintsOnlyNewSuffix(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, locale.For(locale.French))

	r.Render(streaming(""))
	r.Render(streaming("Bon"))
	r.Render(streaming("Bonjour"))
	r.Render(streaming("Bonjour"))
	r.EndTurn(chat.OutcomeCompleted, streaming("Bonjour"))

	out := buf.String()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Bonjour")))
	assert.Contains(t, out, "STRUGAL:")
	assert.Contains(t, out, "Bonjour\n")
}

func TestRenderer_ShowsTypingOnce(t *testing.T) {
	var buf bytes.Buffer
	texts := locale.For(locale.French)
	r := newRenderer(&buf, texts)

	waiting := chat.Snapshot{Loading: true, Typing: true, Phase: chat.PhaseRequesting}
	r.Render(waiting)
	r.Render(waiting)

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(texts.Typing)))
}

func TestRenderer_ReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	texts := locale.For(locale.Spanish)
	r := newRenderer(&buf, texts)

	r.EndTurn(chat.OutcomeRejected, chat.Snapshot{Error: "MISTRAL_API_KEY is not set"})

	assert.Contains(t, buf.String(), texts.ErrorLabel)
	assert.Contains(t, buf.String(), "MISTRAL_API_KEY is not set")
}

func TestRenderer_Greet(t *testing.T) {
	var buf bytes.Buffer
	texts := locale.For(locale.French)
	r := newRenderer(&buf, texts)

	r.Greet(chat.New("http://unused", texts).Snapshot())

	assert.Contains(t, buf.String(), texts.Greeting)
	assert.Contains(t, buf.String(), texts.Prompt)
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	assert.NoError(t, cmd.ParseFlags([]string{"--lang", "es", "--timeout", "5s"}))

	lang, _ := cmd.Flags().GetString("lang")
	assert.Equal(t, "es", lang)
	timeout, _ := cmd.Flags().GetDuration("timeout")
	assert.Equal(t, "5s", timeout.String())
}
