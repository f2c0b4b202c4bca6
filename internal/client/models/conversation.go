package models

// Conversation is a single chat thread as returned in list responses.
type Conversation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// ConversationList is a page of conversations.
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}

// Message is one entry in a conversation's history.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}
