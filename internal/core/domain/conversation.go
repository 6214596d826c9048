package domain

import (
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn is one persisted message of a session.
// Each pipeline run appends a user turn followed by an assistant turn.
type ConversationTurn struct {
	ID             string    `json:"id" yaml:"id"`
	SessionID      string    `json:"sessionId" yaml:"sessionId"`
	Role           Role      `json:"role" yaml:"role"`
	Content        string    `json:"content" yaml:"content"`
	ReferencedDocs []string  `json:"referencedDocs" yaml:"referencedDocs"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
}

// JoinConversationContext joins stored session history with context supplied
// by the caller, history first. Blank parts are dropped.
func JoinConversationContext(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
