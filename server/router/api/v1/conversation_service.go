package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/resonancehq/resonance/internal/profile"
	"github.com/resonancehq/resonance/store"
)

const (
	defaultListLimit   = 50
	defaultSearchLimit = 10
)

type conversationResponse struct {
	ID            string `json:"id"`
	ArticleURL    string `json:"article_url"`
	ArticleTitle  string `json:"article_title"`
	StartedTs     int64  `json:"started_ts"`
	MessageCount  int32  `json:"message_count"`
	FirstQuestion string `json:"first_question,omitempty"`
}

type messageResponse struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Content     string `json:"content"`
	InputMethod string `json:"input_method"`
	CreatedTs   int64  `json:"created_ts"`
}

func (s *APIV1Service) root(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Resonance API is running",
		"version": profile.Version,
		"status":  "healthy",
		"rag":     enabledFlag(s.Retriever != nil),
		"history": enabledFlag(s.Store != nil),
	})
}

func (s *APIV1Service) health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// listConversations returns recent conversations, newest first. A missing
// or failing store degrades to an empty list.
func (s *APIV1Service) listConversations(c *echo.Context) error {
	limit := queryLimit(c, defaultListLimit)
	conversations := []conversationResponse{}
	if s.Store != nil {
		userID := store.DefaultUserID
		list, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{
			UserID: &userID,
			Limit:  &limit,
		})
		if err != nil {
			slog.Error("failed to list conversations", "err", err)
		}
		for _, conversation := range list {
			conversations = append(conversations, toConversationResponse(conversation))
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// getConversation returns the full message list for one conversation.
func (s *APIV1Service) getConversation(c *echo.Context) error {
	id := c.Param("id")
	messages := []messageResponse{}
	if s.Store != nil {
		list, err := s.Store.ListMessages(c.Request().Context(), id)
		if err != nil {
			slog.Error("failed to list messages", "conversation", id, "err", err)
		}
		for _, m := range list {
			messages = append(messages, messageResponse{
				ID:          m.ID,
				Role:        m.Role,
				Content:     m.Content,
				InputMethod: m.InputMethod,
				CreatedTs:   m.CreatedTs,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"conversation_id": id,
		"messages":        messages,
		"message_count":   len(messages),
	})
}

// searchConversations is a case-insensitive substring search over message
// content and article titles.
func (s *APIV1Service) searchConversations(c *echo.Context) error {
	query := c.Param("query")
	limit := queryLimit(c, defaultSearchLimit)
	results := []conversationResponse{}
	if s.Store != nil {
		list, err := s.Store.SearchConversations(c.Request().Context(), &store.SearchConversation{
			UserID: store.DefaultUserID,
			Query:  query,
			Limit:  limit,
		})
		if err != nil {
			slog.Error("failed to search conversations", "query", query, "err", err)
		}
		for _, conversation := range list {
			results = append(results, toConversationResponse(conversation))
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

// deleteConversation removes a conversation and, by cascade, its messages.
func (s *APIV1Service) deleteConversation(c *echo.Context) error {
	id := c.Param("id")
	success := false
	if s.Store != nil {
		if err := s.Store.DeleteConversation(c.Request().Context(), id); err != nil {
			slog.Error("failed to delete conversation", "conversation", id, "err", err)
		} else {
			success = true
			slog.Info("deleted conversation", "conversation", id)
		}
	}
	message := "Failed to delete"
	if success {
		message = "Conversation deleted"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": success,
		"message": message,
	})
}

// stats merges conversation aggregates with the vector index size.
func (s *APIV1Service) stats(c *echo.Context) error {
	resp := map[string]any{
		"rag_enabled":     s.Retriever != nil,
		"history_enabled": s.Store != nil,
	}
	if s.Retriever != nil {
		resp["total_articles"] = s.Retriever.Count(c.Request().Context())
	}
	if s.Store != nil {
		stats, err := s.Store.ConversationStats(c.Request().Context(), store.DefaultUserID)
		if err != nil {
			slog.Error("failed to fetch conversation stats", "err", err)
		} else {
			resp["total_conversations"] = stats.TotalConversations
			resp["total_messages"] = stats.TotalMessages
			resp["avg_messages_per_conversation"] = stats.AvgMessages
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func toConversationResponse(c *store.Conversation) conversationResponse {
	return conversationResponse{
		ID:            c.ID,
		ArticleURL:    c.ArticleURL,
		ArticleTitle:  c.ArticleTitle,
		StartedTs:     c.StartedTs,
		MessageCount:  c.MessageCount,
		FirstQuestion: c.FirstQuestion,
	}
}

func queryLimit(c *echo.Context, fallback int) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func enabledFlag(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
