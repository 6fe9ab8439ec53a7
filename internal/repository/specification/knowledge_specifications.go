package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByClientID struct {
	ClientID uuid.UUID
}

func (s ByClientID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("client_id = ?", s.ClientID)
}

type ByExternalID struct {
	ExternalID string
}

func (s ByExternalID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("external_id = ?", s.ExternalID)
}

// ByKnowledgeType matches any of the given types. Empty means no filter.
type ByKnowledgeType struct {
	Types []string
}

func (s ByKnowledgeType) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Types) == 0 {
		return db
	}
	return db.Where("type IN ?", s.Types)
}

// NameContains is a case-insensitive substring match on name.
type NameContains struct {
	Term string
}

func (s NameContains) Apply(db *gorm.DB) *gorm.DB {
	term := strings.TrimSpace(s.Term)
	if term == "" {
		return db
	}
	return db.Where("name ILIKE ?", "%"+term+"%")
}
