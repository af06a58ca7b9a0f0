package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavily_Search(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"Acme careers","content":"Flexible hours","url":"https://acme.test/careers"},
			{"title":"Acme blog","content":"Mentorship","url":"https://acme.test/blog"},
			{"title":"Extra","content":"x","url":"https://acme.test/x"}
		]}`))
	}))
	defer server.Close()

	client := NewTavily("secret", WithEndpoint(server.URL), WithRateLimit(0, 0))
	results, err := client.Search(context.Background(), "acme culture", 2)
	require.NoError(t, err)

	assert.Equal(t, "acme culture", got.Query)
	assert.Equal(t, 2, got.MaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "Acme careers", Content: "Flexible hours", URL: "https://acme.test/careers"}, results[0])
}

func TestTavily_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := NewTavily("k", WithEndpoint(server.URL)).Search(context.Background(), "q", 3)
		assert.ErrorIs(t, err, ErrSearchFailed)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := NewTavily("k", WithEndpoint(server.URL)).Search(context.Background(), "q", 3)
		assert.ErrorIs(t, err, ErrSearchFailed)
	})

	t.Run("cancelled context waits on limiter", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewTavily("k", WithEndpoint("http://127.0.0.1:1")).Search(ctx, "q", 3)
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	s, err := New(Config{Provider: "tavily"})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, s)

	s, err = New(Config{Provider: "tavily", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Tavily{}, s)

	s, err = New(Config{Provider: "duckduckgo"})
	require.NoError(t, err)
	assert.IsType(t, &DuckDuckGo{}, s)

	s, err = New(Config{Provider: "none", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, s)

	_, err = New(Config{Provider: "bing"})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	results, err := Noop{}.Search(context.Background(), "q", 3)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestParseToolOutput(t *testing.T) {
	out := "Title: Acme\nDescription: Remote friendly\nURL: https://acme.test\n\n" +
		"Title: Acme jobs\nDescription: Hiring Go engineers\nURL: https://acme.test/jobs\n\n"

	results := parseToolOutput(out)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "Acme jobs", Content: "Hiring Go engineers", URL: "https://acme.test/jobs"}, results[1])

	assert.Equal(t, []Result{{Content: "free text"}}, parseToolOutput("free text"))
	assert.Empty(t, parseToolOutput("  "))
}

func TestDuckDuckGo_CancelledContext(t *testing.T) {
	d, err := NewDuckDuckGo(0, 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Search(ctx, "q", 3)
	assert.ErrorIs(t, err, context.Canceled)
}
