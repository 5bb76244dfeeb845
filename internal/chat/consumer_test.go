package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strugal/inventory-platform/internal/locale"
	"github.com/strugal/inventory-platform/internal/model"
)

var fr = locale.For(locale.French)

func newRelay(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func frame(content string) string {
	b, _ := json.Marshal(model.RelayEvent{Content: content})
	return "data: " + string(b) + "\n\n"
}

// dropConnection closes the connection without finishing the chunked body.
func dropConnection(w http.ResponseWriter) {
	w.(http.Flusher).Flush()
	if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
		conn.Close()
	}
}

func TestNew_SeedsGreeting(t *testing.T) {
	snap := New("http://unused", fr).Snapshot()

	require.Len(t, snap.Messages, 1)
	assert.Equal(t, model.RoleAssistant, snap.Messages[0].Role)
	assert.Equal(t, fr.Greeting, snap.Messages[0].Content)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Loading)
}

func TestSend_SkipsMalformedLines(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, frame("x")+"data: not-json\n\n"+frame("x"))
	})
	c := New(srv.URL, fr)

	outcome, err := c.Send(context.Background(), "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 3)
	last, _ := snap.Last()
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Equal(t, "xx", last.Content)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Typing)
}

func TestSend_ChunkBoundariesDoNotMatter(t *testing.T) {
	stream := frame("héllo ") + frame("wörld €")

	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < len(stream); i++ {
			w.Write([]byte{stream[i]})
			w.(http.Flusher).Flush()
		}
	})
	c := New(srv.URL, fr)

	outcome, err := c.Send(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	last, _ := c.Snapshot().Last()
	assert.Equal(t, "héllo wörld €", last.Content)
}

func TestSend_PostsRoleAndContentOnly(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		io.WriteString(w, frame("Réponse"))
	})
	c := New(srv.URL, fr)

	_, err := c.Send(context.Background(), "  Première  ")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "Seconde")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"messages":[
		{"role":"assistant","content":"`+fr.Greeting+`"},
		{"role":"user","content":"Première"}
	]}`, bodies[0])
	assert.JSONEq(t, `{"messages":[
		{"role":"assistant","content":"`+fr.Greeting+`"},
		{"role":"user","content":"Première"},
		{"role":"assistant","content":"Réponse"},
		{"role":"user","content":"Seconde"}
	]}`, bodies[1])
}

func TestSend_NotifiesPerDelta(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		for _, d := range []string{"a", "b", "c"} {
			io.WriteString(w, frame(d))
			w.(http.Flusher).Flush()
		}
	})
	c := New(srv.URL, fr)

	var mu sync.Mutex
	var snaps []Snapshot
	unsubscribe := c.Subscribe(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})
	defer unsubscribe()

	_, err := c.Send(context.Background(), "abc ?")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, snaps)
	assert.True(t, snaps[0].Loading)
	assert.True(t, snaps[0].Typing)
	assert.Equal(t, PhaseRequesting, snaps[0].Phase)

	var contents []string
	for _, s := range snaps {
		if last, _ := s.Last(); last.Role == model.RoleAssistant && last.Content != "" {
			if len(contents) == 0 || contents[len(contents)-1] != last.Content {
				contents = append(contents, last.Content)
			}
		}
	}
	assert.Equal(t, []string{"a", "ab", "abc"}, contents)

	final := snaps[len(snaps)-1]
	assert.False(t, final.Loading)
	assert.False(t, final.Typing)
	assert.Equal(t, PhaseIdle, final.Phase)
}

func TestSend_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"details", `{"error":"API key not configured","details":"MISTRAL_API_KEY is not set"}`, "MISTRAL_API_KEY is not set"},
		{"no details", `{"error":"boom"}`, fr.ResponseError},
		{"not json", `<html>bad gateway</html>`, fr.ResponseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, tt.body)
			})
			c := New(srv.URL, fr)

			outcome, err := c.Send(context.Background(), "Bonjour")
			assert.Error(t, err)
			assert.Equal(t, OutcomeRejected, outcome)

			snap := c.Snapshot()
			assert.Equal(t, tt.want, snap.Error)
			require.Len(t, snap.Messages, 2)
			assert.Equal(t, model.RoleUser, snap.Messages[1].Role)
			assert.False(t, snap.Loading)
		})
	}
}

func TestSend_FailureBeforeContentRemovesAssistant(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		dropConnection(w)
	})
	c := New(srv.URL, fr)

	outcome, err := c.Send(context.Background(), "Bonjour")
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailedEmpty, outcome)

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.RoleUser, snap.Messages[1].Role)
	assert.NotEmpty(t, snap.Error)
	assert.False(t, snap.Loading)
}

func TestSend_FailureAfterContentKeepsPartial(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, frame("Bonj"))
		dropConnection(w)
	})
	c := New(srv.URL, fr)

	outcome, err := c.Send(context.Background(), "Bonjour")
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailedPartial, outcome)

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 3)
	last, _ := snap.Last()
	assert.Equal(t, "Bonj", last.Content)
	assert.NotEmpty(t, snap.Error)
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, fr)
	outcome, err := c.Send(context.Background(), "Bonjour")
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailedEmpty, outcome)
	assert.Len(t, c.Snapshot().Messages, 2)
	assert.NotEmpty(t, c.Snapshot().Error)
}

func TestSend_BusyWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	srv, calls := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		io.WriteString(w, frame("ok"))
	})
	c := New(srv.URL, fr)

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := c.Send(context.Background(), "first")
		done <- outcome
	}()

	require.Eventually(t, func() bool { return c.Snapshot().Loading }, 2*time.Second, 5*time.Millisecond)

	outcome, err := c.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, OutcomeBusy, outcome)

	close(release)
	assert.Equal(t, OutcomeCompleted, <-done)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, c.Snapshot().Messages, 3)
}

func TestSend_IgnoresBlankInput(t *testing.T) {
	srv, calls := newRelay(t, func(w http.ResponseWriter, r *http.Request) {})
	c := New(srv.URL, fr)

	outcome, err := c.Send(context.Background(), " \n\t")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Zero(t, calls.Load())
	assert.Len(t, c.Snapshot().Messages, 1)
}

func TestClose_SuppressesNotifications(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, frame("Bonj"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	c := New(srv.URL, fr)

	var notified atomic.Int32
	c.Subscribe(func(Snapshot) { notified.Add(1) })

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := c.Send(context.Background(), "Bonjour")
		done <- outcome
	}()

	require.Eventually(t, func() bool {
		last, _ := c.Snapshot().Last()
		return last.Content == "Bonj"
	}, 2*time.Second, 5*time.Millisecond)

	c.Close()
	before := notified.Load()

	select {
	case outcome := <-done:
		assert.Equal(t, OutcomeFailedPartial, outcome)
	case <-time.After(3 * time.Second):
		t.Fatal("send did not return after Close")
	}
	assert.Equal(t, before, notified.Load())

	outcome, err := c.Send(context.Background(), "encore")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestSend_ContextCancel(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	c := New(srv.URL, fr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	outcome, err := c.Send(ctx, "Bonjour")
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailedEmpty, outcome)
	assert.False(t, c.Snapshot().Loading)
}

func TestUnsubscribe(t *testing.T) {
	srv, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, frame("x"))
	})
	c := New(srv.URL, fr)

	var notified atomic.Int32
	unsubscribe := c.Subscribe(func(Snapshot) { notified.Add(1) })
	unsubscribe()

	_, err := c.Send(context.Background(), "Bonjour")
	require.NoError(t, err)
	assert.Zero(t, notified.Load())
}
