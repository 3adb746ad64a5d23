package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// SettingRepository 系统设定仓储
type SettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建系统设定仓储
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get 根据键获取设定，不存在时返回 gorm.ErrRecordNotFound
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// List 获取全部设定
func (r *SettingRepository) List(ctx context.Context) ([]*models.Setting, error) {
	var settings []*models.Setting
	err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&settings).Error
	return settings, err
}

// Upsert 写入设定，已存在时覆盖值
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
		}).
		Create(setting).Error
}

// CreateIfMissing 仅在键不存在时写入
func (r *SettingRepository) CreateIfMissing(ctx context.Context, setting *models.Setting) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "setting_key"}}, DoNothing: true}).
		Create(setting)
	return res.RowsAffected > 0, res.Error
}
