package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/resonancehq/resonance/internal/profile"
	"github.com/resonancehq/resonance/plugin/rag"
	"github.com/resonancehq/resonance/plugin/vectorstore"
	"github.com/resonancehq/resonance/store"
	"github.com/resonancehq/resonance/store/db/sqlite"
)

type fakeLLM struct {
	completion  string
	vector      []float32
	completeErr error
}

func (f *fakeLLM) Complete(context.Context, string, string, int) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completion, nil
}

func (f *fakeLLM) Embed(context.Context, string) ([]float32, error) {
	return f.vector, nil
}

type fakeIndex struct {
	records map[string]vectorstore.Record
	matches []vectorstore.Match
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: map[string]vectorstore.Record{}}
}

func (f *fakeIndex) Upsert(_ context.Context, rec vectorstore.Record) error {
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeIndex) Query(context.Context, []float32, int) ([]vectorstore.Match, error) {
	return f.matches, nil
}

func (f *fakeIndex) Count(context.Context) (int, error) {
	return len(f.records), nil
}

type testEnv struct {
	echo  *echo.Echo
	index *fakeIndex
	llm   *fakeLLM
	store *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	driver, err := sqlite.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.EnsureTables(context.Background()))
	st := store.New(driver)

	client := &fakeLLM{completion: "generated text", vector: []float32{0.1, 0.2}}
	index := newFakeIndex()

	e := echo.New()
	NewAPIV1Service(&profile.Profile{Port: 8000}, st, client, rag.NewRetriever(client, index)).Register(e)
	return &testEnv{echo: e, index: index, llm: client, store: st}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func messagesByRole(body map[string]any) map[string]map[string]any {
	out := map[string]map[string]any{}
	for _, raw := range body["messages"].([]any) {
		m := raw.(map[string]any)
		out[m["role"].(string)] = m
	}
	return out
}

func TestRootReportsFeatureFlags(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Resonance API is running", body["message"])
	require.Equal(t, "enabled", body["rag"])
	require.Equal(t, "enabled", body["history"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["status"])
}

func TestSummarizeCreatesConversationAndHistory(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/summarize", map[string]any{
		"title":   "T",
		"content": "C",
		"url":     "http://x",
		"type":    "summary",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "generated text", body["summary"])
	require.Equal(t, "T", body["article_title"])
	require.Equal(t, "summary", body["type"])
	require.Equal(t, float64(0), body["related_articles"])

	conversationID, ok := body["conversation_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, conversationID)

	// The flow persisted the synthetic user turn and the summary.
	code, body = env.do(t, http.MethodGet, "/api/conversations/"+conversationID, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(2), body["message_count"])
	byRole := messagesByRole(body)
	require.Equal(t, "Summarize this article", byRole["user"]["content"])
	require.Equal(t, "button", byRole["user"]["input_method"])
	require.Equal(t, "generated text", byRole["assistant"]["content"])

	// The article vector was stored under the deterministic URL hash.
	require.Contains(t, env.index.records, rag.ArticleID("http://x"))
}

func TestSummarizeKeyPointsSkipsArticleStorage(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/summarize", map[string]any{
		"title":   "T",
		"content": "C",
		"url":     "http://x",
		"type":    "key-points",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "key-points", body["type"])
	require.Empty(t, env.index.records)

	conversationID := body["conversation_id"].(string)
	_, body = env.do(t, http.MethodGet, "/api/conversations/"+conversationID, nil)
	require.Equal(t, "Give me key points", messagesByRole(body)["user"]["content"])
}

func TestSummarizeCountsRelatedArticles(t *testing.T) {
	env := newTestEnv(t)
	env.index.matches = []vectorstore.Match{
		{ID: "a", Score: 0.9, Metadata: map[string]string{"title": "A", "summary": "s", "url": "u"}},
		{ID: "b", Score: 0.5, Metadata: map[string]string{"title": "B"}},
	}

	code, body := env.do(t, http.MethodPost, "/api/summarize", map[string]any{
		"title": "T", "content": "C", "url": "http://x", "type": "summary",
	})
	require.Equal(t, http.StatusOK, code)
	// Only the match above the 0.7 threshold counts.
	require.Equal(t, float64(1), body["related_articles"])
}

func TestQuestionAccumulatesMessages(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/question", map[string]any{
		"question": "what is it?",
		"title":    "T",
		"content":  "C",
		"url":      "http://x",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "what is it?", body["question"])
	conversationID := body["conversation_id"].(string)
	require.NotEmpty(t, conversationID)

	code, _ = env.do(t, http.MethodPost, "/api/question", map[string]any{
		"question":        "why though?",
		"title":           "T",
		"content":         "C",
		"url":             "http://x",
		"conversation_id": conversationID,
	})
	require.Equal(t, http.StatusOK, code)

	_, body = env.do(t, http.MethodGet, "/api/conversations/"+conversationID, nil)
	require.Equal(t, float64(4), body["message_count"])

	roles := map[string]int{}
	contents := map[string]bool{}
	for _, raw := range body["messages"].([]any) {
		m := raw.(map[string]any)
		roles[m["role"].(string)]++
		contents[m["content"].(string)] = true
	}
	require.Equal(t, 2, roles["user"])
	require.Equal(t, 2, roles["assistant"])
	require.True(t, contents["what is it?"])
	require.True(t, contents["why though?"])
}

func TestSummarizeWithoutLLMUnavailable(t *testing.T) {
	e := echo.New()
	NewAPIV1Service(&profile.Profile{Port: 8000}, nil, nil, nil).Register(e)
	env := &testEnv{echo: e}

	code, _ := env.do(t, http.MethodPost, "/api/summarize", map[string]any{"title": "T"})
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLLMFailureSurfacesAsServerError(t *testing.T) {
	env := newTestEnv(t)
	env.llm.completeErr = errors.New("model overloaded")

	code, _ := env.do(t, http.MethodPost, "/api/question", map[string]any{
		"question": "q", "title": "T", "content": "C", "url": "http://x",
	})
	require.Equal(t, http.StatusInternalServerError, code)
}

func TestHistoryEndpointsDegradeWithoutStore(t *testing.T) {
	client := &fakeLLM{completion: "text", vector: []float32{1}}
	e := echo.New()
	NewAPIV1Service(&profile.Profile{Port: 8000}, nil, client, rag.NewRetriever(client, newFakeIndex())).Register(e)
	env := &testEnv{echo: e}

	code, body := env.do(t, http.MethodPost, "/api/summarize", map[string]any{
		"title": "T", "content": "C", "url": "http://x", "type": "summary",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Nil(t, body["conversation_id"])

	code, body = env.do(t, http.MethodGet, "/api/conversations", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(0), body["count"])

	code, body = env.do(t, http.MethodDelete, "/api/conversations/some-id", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, body["success"])
}

func TestListAndSearchConversations(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodPost, "/api/question", map[string]any{
		"question": "Tell me about goroutines", "title": "Concurrency in Go", "content": "C", "url": "http://x",
	})
	conversationID := body["conversation_id"].(string)

	code, body := env.do(t, http.MethodGet, "/api/conversations?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(1), body["count"])
	listed := body["conversations"].([]any)[0].(map[string]any)
	require.Equal(t, conversationID, listed["id"])
	require.Equal(t, "Concurrency in Go", listed["article_title"])
	require.Equal(t, "Tell me about goroutines", listed["first_question"])

	code, body = env.do(t, http.MethodGet, "/api/conversations/search/GOROUTINES", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(1), body["count"])

	code, body = env.do(t, http.MethodGet, "/api/conversations/search/submarine", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(0), body["count"])
}

func TestDeleteConversationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodPost, "/api/question", map[string]any{
		"question": "q", "title": "T", "content": "C", "url": "http://x",
	})
	conversationID := body["conversation_id"].(string)

	code, body := env.do(t, http.MethodDelete, "/api/conversations/"+conversationID, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Conversation deleted", body["message"])

	_, body = env.do(t, http.MethodGet, "/api/conversations/"+conversationID, nil)
	require.Equal(t, float64(0), body["message_count"])
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	_, _ = env.do(t, http.MethodPost, "/api/summarize", map[string]any{
		"title": "T", "content": "C", "url": "http://x", "type": "summary",
	})

	code, body := env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["rag_enabled"])
	require.Equal(t, true, body["history_enabled"])
	require.Equal(t, float64(1), body["total_articles"])
	require.Equal(t, float64(1), body["total_conversations"])
	require.Equal(t, float64(2), body["total_messages"])
	require.InDelta(t, 2.0, body["avg_messages_per_conversation"].(float64), 0.001)
}
