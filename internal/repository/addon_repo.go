package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// AddonRepository 加购项目仓储
type AddonRepository struct {
	db *gorm.DB
}

// NewAddonRepository 创建加购项目仓储
func NewAddonRepository(db *gorm.DB) *AddonRepository {
	return &AddonRepository{db: db}
}

// Create 创建加购项目
func (r *AddonRepository) Create(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Create(addon).Error
}

// GetByID 根据 ID 获取加购项目
func (r *AddonRepository) GetByID(ctx context.Context, id int64) (*models.Addon, error) {
	var addon models.Addon
	if err := r.db.WithContext(ctx).First(&addon, id).Error; err != nil {
		return nil, err
	}
	return &addon, nil
}

// GetByCodes 根据代码批量获取上架的加购项目
func (r *AddonRepository) GetByCodes(ctx context.Context, codes []string) ([]*models.Addon, error) {
	var addons []*models.Addon
	if len(codes) == 0 {
		return addons, nil
	}
	err := r.db.WithContext(ctx).
		Where("code IN ? AND is_active = ?", codes, true).
		Find(&addons).Error
	return addons, err
}

// Update 更新加购项目
func (r *AddonRepository) Update(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Save(addon).Error
}

// Delete 删除加购项目
func (r *AddonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Addon{}, id)
	return res.RowsAffected > 0, res.Error
}

// List 获取加购项目列表
func (r *AddonRepository) List(ctx context.Context, activeOnly bool) ([]*models.Addon, error) {
	var addons []*models.Addon
	query := r.db.WithContext(ctx).Model(&models.Addon{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC, id ASC").Find(&addons).Error
	return addons, err
}
