package dto

import "time"

type AgentKnowledgeItemRequest struct {
	Id        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=url text file"`
	Url       string `json:"url"`
	UsageMode string `json:"usage_mode" validate:"omitempty,oneof=auto prompt"`
}

type SaveAgentKnowledgeRequest struct {
	AgentId            string
	KnowledgeBaseItems []AgentKnowledgeItemRequest `json:"knowledge_base_items" validate:"dive"`
}

type AgentKnowledgeItemResponse struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Url        string `json:"url,omitempty"`
	UsageMode  string `json:"usage_mode"`
	RagEnabled bool   `json:"rag_enabled"`
}

type AgentKnowledgeResponse struct {
	AgentId            string                       `json:"agent_id"`
	KnowledgeBaseItems []AgentKnowledgeItemResponse `json:"knowledge_base_items"`
	UpdatedAt          *time.Time                   `json:"updated_at"`
}
