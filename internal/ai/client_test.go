package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"udo-backend/internal/config"
)

// recordingProvider captures what the client sends.
type recordingProvider struct {
	calls int
	last  []Message
	reply string
	err   error
}

func (p *recordingProvider) Complete(_ context.Context, msgs []Message) (string, error) {
	p.calls++
	p.last = msgs
	return p.reply, p.err
}

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("test-key", "test-model", srv.URL, 0), &hits
}

func TestOpenAIProviderSendsChatCompletion(t *testing.T) {
	p, hits := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, RoleSystem, body.Messages[0].Role)
		assert.Contains(t, body.Messages[1].Content, `"learn go"`)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Complete the Go tour by Friday."}}]}`))
	})

	c := NewWithProvider("openai", p, zap.NewNop())
	text, err := c.Complete(context.Background(), NewSanitize("learn go"))
	require.NoError(t, err)
	assert.Equal(t, "Complete the Go tour by Friday.", text)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestOpenAIProviderStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
		msg    string
	}{
		{http.StatusTooManyRequests, ErrRateLimit, "Rate limit exceeded. Please try again later."},
		{http.StatusPaymentRequired, ErrQuota, "AI usage limit reached. Please add credits."},
		{http.StatusUnauthorized, ErrAuth, ""},
		{http.StatusInternalServerError, ErrUpstream, ""},
		{http.StatusBadRequest, ErrUpstream, ""},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			p, hits := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			})

			c := NewWithProvider("openai", p, zap.NewNop())
			_, err := c.Complete(context.Background(), NewExecutionPlan("ship it"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var aerr *Error
			require.True(t, errors.As(err, &aerr))
			assert.Equal(t, tc.status, aerr.Status)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, aerr.Message)
			}
			assert.EqualValues(t, 1, atomic.LoadInt32(hits), "no retries")
		})
	}
}

func TestOpenAIProviderMalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   "<html>oops</html>",
		"no choices": `{"choices":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			p, _ := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := NewWithProvider("openai", p, nil).Complete(context.Background(), NewSanitize("x"))
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestOpenAIProviderTransportFailure(t *testing.T) {
	p := NewOpenAIProvider("k", "m", "http://127.0.0.1:1", 0)
	_, err := NewWithProvider("openai", p, nil).Complete(context.Background(), NewSanitize("x"))
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCompleteWithoutCredentialFailsBeforeNetwork(t *testing.T) {
	cfg := &config.Config{AIProvider: config.ProviderOpenAI, AIModel: "m"}
	c, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), NewSanitize("x"))
	assert.ErrorIs(t, err, ErrAuth)
}

func TestNewClientOllamaNeedsNoKey(t *testing.T) {
	cfg := &config.Config{AIProvider: config.ProviderOllama, AIModel: "llama3.2", AIBaseURL: "http://127.0.0.1:11434"}
	c, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c.provider)
}

func TestCompleteWrapsForeignErrors(t *testing.T) {
	p := &recordingProvider{err: errors.New("connection reset")}
	_, err := NewWithProvider("fake", p, nil).Complete(context.Background(), NewSanitize("x"))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, p.calls)
}

func TestCompletePassesTextVerbatim(t *testing.T) {
	p := &recordingProvider{reply: "  <h4>Plan</h4>\n<ul><li>step</li></ul>  "}
	text, err := NewWithProvider("fake", p, nil).Complete(context.Background(), NewExecutionPlan("x"))
	require.NoError(t, err)
	assert.Equal(t, p.reply, text)

	p.reply = ""
	text, err = NewWithProvider("fake", p, nil).Complete(context.Background(), NewSanitize("x"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTutorSendsOnlyRecentHistory(t *testing.T) {
	var history []Turn
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Turn{Role: role, Content: string(rune('a' + i))})
	}

	p := &recordingProvider{reply: "ok"}
	_, err := NewWithProvider("fake", p, nil).Complete(context.Background(), NewTutor("calculus", "why?", history))
	require.NoError(t, err)

	// system + 6 history turns + question
	require.Len(t, p.last, 8)
	assert.Equal(t, RoleSystem, p.last[0].Role)
	assert.Contains(t, p.last[0].Content, `"calculus"`)
	assert.Equal(t, "e", p.last[1].Content)
	assert.Equal(t, RoleUser, p.last[1].Role)
	assert.Equal(t, "j", p.last[6].Content)
	assert.Equal(t, RoleAssistant, p.last[6].Role)
	assert.Equal(t, Message{Role: RoleUser, Content: "why?"}, p.last[7])
}

func TestPrioritizePromptIsNumberedFromOne(t *testing.T) {
	p := &recordingProvider{reply: "[]"}
	_, err := NewWithProvider("fake", p, nil).Complete(context.Background(), NewPrioritize(twoRefs))
	require.NoError(t, err)

	require.Len(t, p.last, 2)
	assert.Contains(t, p.last[0].Content, `"index" (1-based)`)
	assert.Contains(t, p.last[1].Content, "1. fix bug\n2. write report\n")
}

func TestDailyPlanPromptListsTitles(t *testing.T) {
	p := &recordingProvider{reply: "<h4>Today</h4>"}
	_, err := NewWithProvider("fake", p, nil).Complete(context.Background(), NewDailyPlan([]string{"a", "b"}))
	require.NoError(t, err)
	assert.Contains(t, p.last[1].Content, "- a\n- b\n")
}
