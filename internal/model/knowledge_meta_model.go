package model

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeMeta struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalId  *string    `gorm:"type:varchar(128);index"`
	ClientId    *uuid.UUID `gorm:"type:uuid;index"`
	Type        string     `gorm:"type:varchar(16);not null"`
	Name        string     `gorm:"type:varchar(255);not null"`
	Url         *string    `gorm:"type:text"`
	FilePath    *string    `gorm:"type:varchar(500)"`
	TextContent *string    `gorm:"type:text"`
	Size        *string    `gorm:"type:varchar(50)"`
	CreatedBy   string     `gorm:"type:varchar(255);not null;default:'-'"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (KnowledgeMeta) TableName() string {
	return "knowledge_base"
}
