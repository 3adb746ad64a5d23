package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// EmailTemplateRepository 邮件模板仓储
type EmailTemplateRepository struct {
	db *gorm.DB
}

// NewEmailTemplateRepository 创建邮件模板仓储
func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// GetByKey 根据模板键获取模板
func (r *EmailTemplateRepository) GetByKey(ctx context.Context, key string) (*models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	if err := r.db.WithContext(ctx).Where("template_key = ?", key).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List 获取全部模板
func (r *EmailTemplateRepository) List(ctx context.Context) ([]*models.EmailTemplate, error) {
	var templates []*models.EmailTemplate
	err := r.db.WithContext(ctx).Order("template_key ASC").Find(&templates).Error
	return templates, err
}

// Update 更新模板
func (r *EmailTemplateRepository) Update(ctx context.Context, tpl *models.EmailTemplate) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

// CreateIfMissing 模板键不存在时写入
func (r *EmailTemplateRepository) CreateIfMissing(ctx context.Context, tpl *models.EmailTemplate) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "template_key"}}, DoNothing: true}).
		Create(tpl)
	return res.RowsAffected > 0, res.Error
}
