package store

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Input methods record how a turn was produced: typed free text or a
// UI button press (summarize / key points).
const (
	InputMethodText   = "text"
	InputMethodButton = "button"
)

// DefaultUserID is the fixed owner of all conversations. The service is
// single-user; there is no authentication or multi-tenancy.
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// Conversation represents a single thread of messages about one article.
type Conversation struct {
	ID           string
	UserID       string
	ArticleURL   string
	ArticleTitle string
	StartedTs    int64
	// MessageCount is bumped on every message insert and must equal the
	// number of rows owned by the conversation.
	MessageCount int32
	// FirstQuestion is the earliest user message, used as a preview.
	// Populated on list results only.
	FirstQuestion string
}

// Message is a single turn within a conversation. Messages are immutable
// once written and are removed only when their conversation is deleted.
type Message struct {
	ID             string
	ConversationID string
	Role           string // "user" | "assistant"
	Content        string
	InputMethod    string // "text" | "button"
	CreatedTs      int64
}

// FindConversation filters for ListConversations.
type FindConversation struct {
	ID     *string
	UserID *string
	Limit  *int
}

// SearchConversation is a case-insensitive substring search over message
// content and article titles.
type SearchConversation struct {
	UserID string
	Query  string
	Limit  int
}

// Stats are aggregate usage counts across all conversations.
type Stats struct {
	TotalConversations int64
	TotalMessages      int64
	AvgMessages        float64
}
