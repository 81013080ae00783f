package v1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resonancehq/resonance/plugin/rag"
)

func TestComposeSummaryPromptWithoutContext(t *testing.T) {
	system, user := composeSummaryPrompt(typeSummary, "My Title", "body text", nil)

	require.Equal(t, "You are a helpful reading assistant. Provide clear, concise summaries.", system)
	require.Contains(t, user, "Summarize this article in 2-3 paragraphs:")
	require.Contains(t, user, "Title: My Title")
	require.Contains(t, user, "body text")
	require.NotContains(t, user, "previously read")
}

func TestComposeSummaryPromptWithContext(t *testing.T) {
	similar := []rag.SimilarArticle{
		{Title: "Earlier Article", Summary: "earlier summary", URL: "https://e", Similarity: 0.9},
	}
	system, user := composeSummaryPrompt(typeSummary, "My Title", "body", similar)

	require.Contains(t, system, "point out what's NEW or DIFFERENT")
	require.Contains(t, user, "Context - You've previously read:")
	require.Contains(t, user, `1. "Earlier Article" - earlier summary...`)
}

func TestComposeKeyPointsPrompt(t *testing.T) {
	similar := []rag.SimilarArticle{{Title: "X", Summary: "y"}}
	system, user := composeSummaryPrompt(typeKeyPoints, "My Title", "body", similar)

	require.Contains(t, system, "Extract key points as a bulleted list")
	require.Contains(t, user, "Extract 5-7 key points:")
	// Key points never include reading-history context.
	require.NotContains(t, user, "previously read")
}

func TestComposeSummaryPromptTruncatesContent(t *testing.T) {
	long := strings.Repeat("x", 10000)
	_, user := composeSummaryPrompt(typeSummary, "T", long, nil)
	require.Less(t, len(user), 5000)
}

func TestComposeQuestionPrompt(t *testing.T) {
	similar := []rag.SimilarArticle{
		{Title: "Prior", Summary: "prior summary", Similarity: 0.8},
	}
	system, user := composeQuestionPrompt("My Title", "the content", "what does it mean?", similar)

	require.Equal(t, "You are a helpful reading assistant. Answer accurately and concisely.", system)
	require.Contains(t, user, "Title: My Title")
	require.Contains(t, user, "Content: the content")
	require.Contains(t, user, "Question: what does it mean?")
	require.Contains(t, user, "Additional context from reading history:")
	require.Contains(t, user, `- You previously read "Prior": prior summary...`)
	require.Contains(t, user, "mention the connection")
}

func TestComposeQuestionPromptWithoutContext(t *testing.T) {
	_, user := composeQuestionPrompt("T", "c", "q?", nil)
	require.NotContains(t, user, "Additional context")
}
