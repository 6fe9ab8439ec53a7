package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type KnowledgeType string

const (
	KnowledgeTypeURL  KnowledgeType = "url"
	KnowledgeTypeText KnowledgeType = "text"
	KnowledgeTypeFile KnowledgeType = "file"

	// Placeholder shown for documents that have no local metadata row.
	UnknownCreator = "-"
)

var (
	ErrKnowledgeDocumentNotFound = errors.New("knowledge base document not found")
	ErrKnowledgeMetaNotFound     = errors.New("knowledge base metadata not found")
	ErrForbiddenTenant           = errors.New("document belongs to another client")
	ErrUnsupportedKnowledgeType  = errors.New("unsupported knowledge base type")
)

// KnowledgeMeta is the console-owned annotation for a document held by the external store.
type KnowledgeMeta struct {
	Id          uuid.UUID
	ExternalId  *string
	ClientId    *uuid.UUID
	Type        KnowledgeType
	Name        string
	Url         *string
	FilePath    *string
	TextContent *string
	Size        *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// JoinKey is the value used to pair this row with an external document: url when set, else name.
func (m *KnowledgeMeta) JoinKey() string {
	if m.Url != nil && *m.Url != "" {
		return *m.Url
	}
	return m.Name
}

// MergedDocument is an external document annotated with its local metadata.
type MergedDocument struct {
	Id        string
	Type      string
	Name      string
	Url       string
	Metadata  map[string]any
	LocalId   *uuid.UUID
	ClientId  *uuid.UUID
	CreatedBy string
	FilePath  *string
	Size      *string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (d *MergedDocument) HasLocalMeta() bool {
	return d.LocalId != nil
}
