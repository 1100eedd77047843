package api

import (
	"encoding/json"
	"fmt"
)

// Source is a document excerpt cited by an assistant answer.
type Source struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Message represents a single chat message within a conversation.
type Message struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	Sources   []Source `json:"sources,omitempty"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UnmarshalJSON accepts numeric message ids. Older clients generated ids
// from millisecond clocks and stored them as numbers; the service schema
// wants strings, so everything is a string on this side of the wire.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	if len(aux.ID) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.ID, &s); err == nil {
		m.ID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(aux.ID, &n); err != nil {
		return fmt.Errorf("failed to decode message id: %w", err)
	}
	m.ID = n.String()
	return nil
}

// Conversation represents a titled message thread, optionally associated
// with one uploaded PDF.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   string    `json:"timestamp"`
	Messages    []Message `json:"messages"`
	PDFFile     string    `json:"pdf_file,omitempty"`
}

// ConversationUpdate carries the fields to merge into a stored conversation.
// Nil fields are left untouched by the service.
type ConversationUpdate struct {
	Title       *string   `json:"title,omitempty"`
	LastMessage *string   `json:"lastMessage,omitempty"`
	Timestamp   *string   `json:"timestamp,omitempty"`
	Messages    []Message `json:"messages,omitempty"`
}

// Token is the auth service's login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserProfile represents the authenticated user.
type UserProfile struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AskResponse is the query service's answer to a question.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// UploadResponse is returned after a standalone document upload.
type UploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}
