package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const UsageModeAuto = "auto"

var ErrAgentIdRequired = errors.New("agent id is required")

type AgentKnowledgeItem struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Url        string `json:"url,omitempty"`
	UsageMode  string `json:"usage_mode"`
	RagEnabled bool   `json:"rag_enabled"`
}

// AgentKnowledgeBase records which documents an agent has been configured with from the console.
type AgentKnowledgeBase struct {
	Id        uuid.UUID
	AgentId   string
	Items     []AgentKnowledgeItem
	CreatedAt time.Time
	UpdatedAt *time.Time
}
