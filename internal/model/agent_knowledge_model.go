package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AgentKnowledgeBase struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AgentId            string         `gorm:"type:varchar(128);not null;uniqueIndex"`
	KnowledgeBaseItems datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
}

func (AgentKnowledgeBase) TableName() string {
	return "agent_knowledge_base"
}
