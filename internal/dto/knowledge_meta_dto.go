package dto

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeMetaQuery filters the local metadata listing. Limit 0 returns every row.
type KnowledgeMetaQuery struct {
	Search string `query:"search"`
	Type   string `query:"type"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

type CreateKnowledgeMetaRequest struct {
	ClientId    *uuid.UUID `json:"client_id"`
	ExternalId  *string    `json:"external_id"`
	Type        string     `json:"type" validate:"required,oneof=url text file"`
	Name        string     `json:"name" validate:"required,max=255"`
	Url         *string    `json:"url" validate:"omitempty,url"`
	FilePath    *string    `json:"file_path"`
	TextContent *string    `json:"text_content"`
	Size        *string    `json:"size" validate:"omitempty,max=50"`
}

type UpdateKnowledgeMetaRequest struct {
	Id          uuid.UUID
	Type        string  `json:"type" validate:"required,oneof=url text file"`
	Name        string  `json:"name" validate:"required,max=255"`
	Url         *string `json:"url" validate:"omitempty,url"`
	FilePath    *string `json:"file_path"`
	TextContent *string `json:"text_content"`
	Size        *string `json:"size" validate:"omitempty,max=50"`
}

type KnowledgeMetaResponse struct {
	Id          uuid.UUID  `json:"id"`
	ExternalId  *string    `json:"external_id"`
	ClientId    *uuid.UUID `json:"client_id"`
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	Url         *string    `json:"url"`
	FilePath    *string    `json:"file_path"`
	TextContent *string    `json:"text_content,omitempty"`
	Size        *string    `json:"size"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

const (
	DriftRepairCreate = "create"
	DriftRepairDelete = "delete"
)

// DriftRepairMessage asks the repair worker to redo a local metadata step that
// failed after its external mutation had committed.
type DriftRepairMessage struct {
	Op         string                      `json:"op"`
	DocumentId string                      `json:"document_id"`
	Meta       *CreateKnowledgeMetaRequest `json:"meta,omitempty"`
	CreatedBy  string                      `json:"created_by,omitempty"`
	Attempt    int                         `json:"attempt"`
}
