package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// RoomTypeRepository 房型仓储
type RoomTypeRepository struct {
	db *gorm.DB
}

// NewRoomTypeRepository 创建房型仓储
func NewRoomTypeRepository(db *gorm.DB) *RoomTypeRepository {
	return &RoomTypeRepository{db: db}
}

// Create 创建房型
func (r *RoomTypeRepository) Create(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Create(roomType).Error
}

// GetByID 根据 ID 获取房型
func (r *RoomTypeRepository) GetByID(ctx context.Context, id int64) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).First(&roomType, id).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

// GetByName 根据名称获取房型
func (r *RoomTypeRepository) GetByName(ctx context.Context, name string) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&roomType).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

// Update 更新房型
func (r *RoomTypeRepository) Update(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Save(roomType).Error
}

// Delete 删除房型
func (r *RoomTypeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.RoomType{}, id).Error
}

// List 获取房型列表，activeOnly 为 true 时只返回上架房型
func (r *RoomTypeRepository) List(ctx context.Context, activeOnly bool) ([]*models.RoomType, error) {
	var roomTypes []*models.RoomType
	query := r.db.WithContext(ctx).Model(&models.RoomType{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC, id ASC").Find(&roomTypes).Error
	return roomTypes, err
}

// ListActive 获取上架房型
func (r *RoomTypeRepository) ListActive(ctx context.Context) ([]*models.RoomType, error) {
	return r.List(ctx, true)
}
