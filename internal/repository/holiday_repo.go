package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// HolidayRepository 假日仓储
type HolidayRepository struct {
	db *gorm.DB
}

// NewHolidayRepository 创建假日仓储
func NewHolidayRepository(db *gorm.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Create 创建假日
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	return r.db.WithContext(ctx).Create(holiday).Error
}

// CreateBatch 批量写入，日期已存在的记录跳过，返回实际写入数量
func (r *HolidayRepository) CreateBatch(ctx context.Context, holidays []*models.Holiday) (int64, error) {
	if len(holidays) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "date"}}, DoNothing: true}).
		Create(&holidays)
	return res.RowsAffected, res.Error
}

// ConvertWeekend 将该日期的周末记录改为手动假日，无周末记录时返回 nil
func (r *HolidayRepository) ConvertWeekend(ctx context.Context, date, name string) (*models.Holiday, error) {
	res := r.db.WithContext(ctx).Model(&models.Holiday{}).
		Where("date = ? AND is_weekend = ?", date, true).
		Updates(map[string]any{"is_weekend": false, "name": name})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var holiday models.Holiday
	if err := r.db.WithContext(ctx).Where("date = ?", date).First(&holiday).Error; err != nil {
		return nil, err
	}
	return &holiday, nil
}

// GetByID 根据 ID 获取假日
func (r *HolidayRepository) GetByID(ctx context.Context, id int64) (*models.Holiday, error) {
	var holiday models.Holiday
	if err := r.db.WithContext(ctx).First(&holiday, id).Error; err != nil {
		return nil, err
	}
	return &holiday, nil
}

// Delete 删除假日
func (r *HolidayRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Holiday{}, id)
	return res.RowsAffected > 0, res.Error
}

// DeleteWeekendsBetween 删除区间内批量生成的周末记录
func (r *HolidayRepository) DeleteWeekendsBetween(ctx context.Context, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_weekend = ? AND date >= ? AND date <= ?", true, from, to).
		Delete(&models.Holiday{})
	return res.RowsAffected, res.Error
}

// List 获取全部假日
func (r *HolidayRepository) List(ctx context.Context) ([]*models.Holiday, error) {
	var holidays []*models.Holiday
	err := r.db.WithContext(ctx).Order("date ASC").Find(&holidays).Error
	return holidays, err
}

// ListBetween 获取闭区间 [from, to] 内的假日
func (r *HolidayRepository) ListBetween(ctx context.Context, from, to string) ([]*models.Holiday, error) {
	var holidays []*models.Holiday
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}
