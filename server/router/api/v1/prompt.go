package v1

import (
	"fmt"
	"strings"

	"github.com/resonancehq/resonance/plugin/rag"
)

// Request kinds accepted by the summarize endpoint.
const (
	typeSummary   = "summary"
	typeKeyPoints = "key-points"
)

const (
	// maxArticleChars bounds how much article body goes into a prompt.
	maxArticleChars = 4000

	// Retrieved summaries are shortened further when quoted as context.
	summaryContextChars  = 200
	questionContextChars = 150
)

// composeSummaryPrompt builds the system/user pair for the summarize and
// key-points flows. Retrieved context is included for summaries only.
func composeSummaryPrompt(kind, title, content string, similar []rag.SimilarArticle) (string, string) {
	if kind == typeKeyPoints {
		system := "Extract key points as a bulleted list. Use format:\n• Point one\n• Point two"
		user := fmt.Sprintf("Extract 5-7 key points:\n\nTitle: %s\n\n%s", title, truncate(content, maxArticleChars))
		return system, user
	}

	var context strings.Builder
	if len(similar) > 0 {
		context.WriteString("\n\nContext - You've previously read:\n")
		for i, article := range similar {
			fmt.Fprintf(&context, "%d. %q - %s...\n", i+1, article.Title, truncate(article.Summary, summaryContextChars))
		}
	}

	system := "You are a helpful reading assistant. Provide clear, concise summaries."
	if len(similar) > 0 {
		system += " When the user has read related articles, point out what's NEW or DIFFERENT."
	}
	user := fmt.Sprintf("%s\n\nSummarize this article in 2-3 paragraphs:\n\nTitle: %s\n\n%s",
		context.String(), title, truncate(content, maxArticleChars))
	return system, user
}

// composeQuestionPrompt builds the system/user pair for the question flow.
func composeQuestionPrompt(title, content, question string, similar []rag.SimilarArticle) (string, string) {
	var context strings.Builder
	if len(similar) > 0 {
		context.WriteString("\n\nAdditional context from reading history:\n")
		for _, article := range similar {
			fmt.Fprintf(&context, "- You previously read %q: %s...\n", article.Title, truncate(article.Summary, questionContextChars))
		}
	}

	system := "You are a helpful reading assistant. Answer accurately and concisely."
	user := fmt.Sprintf(`
Based on this article:

Title: %s
Content: %s

%s

Question: %s

Provide a clear answer. If the question relates to previous reading (shown in context), mention the connection.
`, title, truncate(content, maxArticleChars), context.String(), question)
	return system, user
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
