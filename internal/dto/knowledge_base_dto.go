package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListKnowledgeQuery struct {
	Search string `query:"search"`
	// Comma separated list of url, text, file.
	Type  string `query:"type"`
	Page  int    `query:"page"`
	Limit int    `query:"limit"`
}

type KnowledgeDocumentResponse struct {
	Id           string         `json:"id"`
	Type         string         `json:"type"`
	Name         string         `json:"name"`
	Url          string         `json:"url,omitempty"`
	ClientId     *uuid.UUID     `json:"client_id"`
	CreatedBy    string         `json:"created_by"`
	FilePath     *string        `json:"file_path,omitempty"`
	Size         *string        `json:"size"`
	CreatedAt    *time.Time     `json:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at"`
	HasLocalMeta bool           `json:"has_local_meta"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type KnowledgeListResponse struct {
	Items      []*KnowledgeDocumentResponse `json:"items"`
	Total      int                          `json:"total"`
	Page       int                          `json:"page"`
	Limit      int                          `json:"limit"`
	TotalPages int                          `json:"total_pages"`
}

type CreateKnowledgeDocumentRequest struct {
	Type string `json:"type" validate:"required,oneof=url text file"`
	// Optional for url documents, where the url is used as the name.
	Name     string     `json:"name" validate:"required_if=Type text,max=255"`
	Url      string     `json:"url" validate:"omitempty,url"`
	Text     string     `json:"text" validate:"required_if=Type text"`
	FileName string     `json:"file_name" validate:"required_if=Type file,max=255"`
	FileSize int64      `json:"file_size" validate:"gte=0"`
	ClientId *uuid.UUID `json:"client_id"`
}

type UpdateKnowledgeDocumentRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type UpdateKnowledgeDocumentResponse struct {
	Id       string         `json:"id"`
	Document map[string]any `json:"document"`
}

type DependentAgentResponse struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type KnowledgeMutationResponse struct {
	DocumentId      string                       `json:"document_id"`
	DependentAgents []DependentAgentResponse     `json:"dependent_agents,omitempty"`
	Warning         string                       `json:"warning,omitempty"`
	Items           []*KnowledgeDocumentResponse `json:"items"`
}

type DeleteImpactResponse struct {
	DocumentId      string                   `json:"document_id"`
	DependentAgents []DependentAgentResponse `json:"dependent_agents"`
	Count           int                      `json:"count"`
}

type KnowledgeDocumentDetailResponse struct {
	Id              string                     `json:"id"`
	Document        *KnowledgeDocumentResponse `json:"document,omitempty"`
	Content         string                     `json:"content"`
	ContentResolved bool                       `json:"content_resolved"`
	ContentSource   string                     `json:"content_source,omitempty"`
	Size            *string                    `json:"size"`
	DependentAgents []DependentAgentResponse   `json:"dependent_agents"`
	Cached          bool                       `json:"cached"`
}
