package reconcile

import (
	"ai-caller-be/internal/entity"
	"ai-caller-be/pkg/elevenlabs"
)

// Merge annotates every external document with the local metadata sharing its
// join key (url when non-empty, else name). When several local rows share a key
// the later row wins. Documents without a match get placeholder metadata.
// The external order is preserved.
func Merge(external []elevenlabs.KnowledgeDocument, locals []*entity.KnowledgeMeta) []*entity.MergedDocument {
	byKey := make(map[string]*entity.KnowledgeMeta, len(locals))
	for _, meta := range locals {
		if meta == nil {
			continue
		}
		byKey[meta.JoinKey()] = meta
	}

	merged := make([]*entity.MergedDocument, 0, len(external))
	for _, doc := range external {
		m := &entity.MergedDocument{
			Id:        doc.ID,
			Type:      doc.Type,
			Name:      doc.Name,
			Url:       doc.URL,
			Metadata:  doc.Metadata,
			CreatedBy: entity.UnknownCreator,
		}

		if meta, ok := byKey[joinKey(doc)]; ok {
			localId := meta.Id
			createdAt := meta.CreatedAt
			m.LocalId = &localId
			m.ClientId = meta.ClientId
			m.CreatedBy = meta.CreatedBy
			m.FilePath = meta.FilePath
			m.Size = meta.Size
			m.CreatedAt = &createdAt
			m.UpdatedAt = meta.UpdatedAt
			if m.CreatedBy == "" {
				m.CreatedBy = entity.UnknownCreator
			}
		}
		merged = append(merged, m)
	}
	return merged
}

func joinKey(doc elevenlabs.KnowledgeDocument) string {
	if doc.URL != "" {
		return doc.URL
	}
	return doc.Name
}
