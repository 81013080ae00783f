// Package v1 is the JSON HTTP surface: article summarization, question
// answering and conversation history.
package v1

import (
	"github.com/labstack/echo/v5"

	"github.com/resonancehq/resonance/internal/profile"
	"github.com/resonancehq/resonance/plugin/llm"
	"github.com/resonancehq/resonance/plugin/rag"
	"github.com/resonancehq/resonance/store"
)

// APIV1Service carries the injected collaborators for all v1 handlers.
// Store, LLM and Retriever may each be nil when unconfigured; handlers
// degrade per collaborator instead of failing.
type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	LLM       llm.Client
	Retriever *rag.Retriever
}

// NewAPIV1Service creates the v1 service.
func NewAPIV1Service(prof *profile.Profile, st *store.Store, client llm.Client, retriever *rag.Retriever) *APIV1Service {
	return &APIV1Service{
		Profile:   prof,
		Store:     st,
		LLM:       client,
		Retriever: retriever,
	}
}

// Register mounts all v1 routes.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/", s.root)
	e.GET("/health", s.health)

	g := e.Group("/api")
	g.POST("/summarize", s.summarize)
	g.POST("/question", s.answerQuestion)
	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:id", s.getConversation)
	g.GET("/conversations/search/:query", s.searchConversations)
	g.DELETE("/conversations/:id", s.deleteConversation)
	g.GET("/stats", s.stats)
}
