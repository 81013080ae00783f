package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/resonancehq/resonance/plugin/rag"
	"github.com/resonancehq/resonance/store"
)

const (
	summaryMaxTokens  = 400
	questionMaxTokens = 300

	// retrieveTopK is how many neighbors to ask the index for before
	// threshold filtering.
	retrieveTopK = 3
)

type summarizeRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	URL            string `json:"url"`
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type summarizeResponse struct {
	Success         bool    `json:"success"`
	Summary         string  `json:"summary"`
	ArticleTitle    string  `json:"article_title"`
	Type            string  `json:"type"`
	RelatedArticles int     `json:"related_articles"`
	ConversationID  *string `json:"conversation_id"`
}

type questionRequest struct {
	Question       string `json:"question"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	URL            string `json:"url"`
	ConversationID string `json:"conversation_id"`
}

type questionResponse struct {
	Success         bool    `json:"success"`
	Answer          string  `json:"answer"`
	Question        string  `json:"question"`
	RelatedArticles int     `json:"related_articles"`
	ConversationID  *string `json:"conversation_id"`
}

// summarize runs the summary / key-points flow: resolve conversation,
// persist the synthetic user turn, retrieve similar articles, prompt the
// model, persist the answer, and (for summaries) index the article.
func (s *APIV1Service) summarize(c *echo.Context) error {
	if s.LLM == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "summarization is not configured (missing OPENAI_API_KEY)")
	}

	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Type == "" {
		req.Type = typeSummary
	}

	ctx := c.Request().Context()
	conversationID := s.resolveConversation(ctx, req.ConversationID, req.URL, req.Title)

	action := "Summarize this article"
	if req.Type == typeKeyPoints {
		action = "Give me key points"
	}
	s.saveMessage(ctx, conversationID, store.RoleUser, action, store.InputMethodButton)

	var similar []rag.SimilarArticle
	if s.Retriever != nil {
		similar = s.Retriever.RetrieveSimilar(ctx, req.Title, retrieveTopK)
	}

	system, user := composeSummaryPrompt(req.Type, req.Title, req.Content, similar)
	summary, err := s.LLM.Complete(ctx, system, user, summaryMaxTokens)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.saveMessage(ctx, conversationID, store.RoleAssistant, summary, store.InputMethodButton)

	if req.Type == typeSummary && s.Retriever != nil {
		s.Retriever.StoreArticle(ctx, rag.ArticleID(req.URL), req.Title, req.URL, req.Content, summary)
	}

	return c.JSON(http.StatusOK, summarizeResponse{
		Success:         true,
		Summary:         summary,
		ArticleTitle:    req.Title,
		Type:            req.Type,
		RelatedArticles: len(similar),
		ConversationID:  nullable(conversationID),
	})
}

// answerQuestion runs the question flow with the question itself as the
// retrieval query.
func (s *APIV1Service) answerQuestion(c *echo.Context) error {
	if s.LLM == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "question answering is not configured (missing OPENAI_API_KEY)")
	}

	var req questionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	conversationID := s.resolveConversation(ctx, req.ConversationID, req.URL, req.Title)

	s.saveMessage(ctx, conversationID, store.RoleUser, req.Question, store.InputMethodText)

	var similar []rag.SimilarArticle
	if s.Retriever != nil {
		similar = s.Retriever.RetrieveSimilar(ctx, req.Question, retrieveTopK)
	}

	system, user := composeQuestionPrompt(req.Title, req.Content, req.Question, similar)
	answer, err := s.LLM.Complete(ctx, system, user, questionMaxTokens)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.saveMessage(ctx, conversationID, store.RoleAssistant, answer, store.InputMethodText)

	return c.JSON(http.StatusOK, questionResponse{
		Success:         true,
		Answer:          answer,
		Question:        req.Question,
		RelatedArticles: len(similar),
		ConversationID:  nullable(conversationID),
	})
}

// resolveConversation returns the caller-supplied conversation id, or
// creates a fresh conversation when none was given. Returns "" when
// history is disabled or creation fails; the flow continues without
// persistence.
func (s *APIV1Service) resolveConversation(ctx context.Context, id, articleURL, articleTitle string) string {
	if id != "" {
		return id
	}
	if s.Store == nil {
		return ""
	}
	conversation, err := s.Store.CreateConversation(ctx, &store.Conversation{
		ID:           uuid.New().String(),
		UserID:       store.DefaultUserID,
		ArticleURL:   articleURL,
		ArticleTitle: articleTitle,
	})
	if err != nil {
		slog.Warn("failed to create conversation", "err", err)
		return ""
	}
	slog.Info("created conversation", "conversation", conversation.ID, "article", articleTitle)
	return conversation.ID
}

// saveMessage persists one turn, bumping the conversation's message
// count. Persistence failures are logged and swallowed.
func (s *APIV1Service) saveMessage(ctx context.Context, conversationID, role, content, inputMethod string) {
	if s.Store == nil || conversationID == "" {
		return
	}
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		InputMethod:    inputMethod,
	}); err != nil {
		slog.Warn("failed to persist message", "conversation", conversationID, "role", role, "err", err)
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
