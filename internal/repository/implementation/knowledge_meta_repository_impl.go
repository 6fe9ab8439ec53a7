package implementation

import (
	"context"
	"errors"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/mapper"
	"ai-caller-be/internal/model"
	"ai-caller-be/internal/repository/contract"
	"ai-caller-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KnowledgeMetaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMetaMapper
}

func NewKnowledgeMetaRepository(db *gorm.DB) contract.KnowledgeMetaRepository {
	return &KnowledgeMetaRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMetaMapper(),
	}
}

func (r *KnowledgeMetaRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeMetaRepositoryImpl) Create(ctx context.Context, meta *entity.KnowledgeMeta) error {
	m := r.mapper.ToModel(meta)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*meta = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeMetaRepositoryImpl) Update(ctx context.Context, meta *entity.KnowledgeMeta) error {
	m := r.mapper.ToModel(meta)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*meta = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeMetaRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.KnowledgeMeta{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *KnowledgeMetaRepositoryImpl) DeleteByExternalId(ctx context.Context, externalId string) (int64, error) {
	res := r.db.WithContext(ctx).Where("external_id = ?", externalId).Delete(&model.KnowledgeMeta{})
	return res.RowsAffected, res.Error
}

func (r *KnowledgeMetaRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeMeta, error) {
	var m model.KnowledgeMeta
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *KnowledgeMetaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeMeta, error) {
	var rows []*model.KnowledgeMeta
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}

func (r *KnowledgeMetaRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeMeta{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
