// Package admin 提供管理后台服务
package admin

import (
	"context"
	"strings"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/validator"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// RoomTypeUsage 房型引用统计
type RoomTypeUsage interface {
	CountByRoomType(ctx context.Context, roomTypeID int64, roomTypeName string) (int64, error)
}

// RoomTypeService 房型管理服务
type RoomTypeService struct {
	repo  *repository.RoomTypeRepository
	usage RoomTypeUsage
}

// NewRoomTypeService 创建房型管理服务
func NewRoomTypeService(repo *repository.RoomTypeRepository, usage RoomTypeUsage) *RoomTypeService {
	return &RoomTypeService{repo: repo, usage: usage}
}

// CreateRoomTypeRequest 创建房型请求
type CreateRoomTypeRequest struct {
	Code             string   `json:"code" validate:"required,max=50"`
	Name             string   `json:"name" validate:"required,max=100"`
	Description      string   `json:"description"`
	BasePrice        int64    `json:"base_price" validate:"min=0"`
	HolidaySurcharge int64    `json:"holiday_surcharge"`
	MaxOccupancy     int      `json:"max_occupancy" validate:"min=1,max=20"`
	ExtraBeds        int      `json:"extra_beds" validate:"min=0,max=10"`
	Icon             string   `json:"icon" validate:"max=50"`
	Images           []string `json:"images"`
	Amenities        []string `json:"amenities"`
	SortOrder        int      `json:"sort_order"`
	IsActive         *bool    `json:"is_active"`
}

// UpdateRoomTypeRequest 更新房型请求
type UpdateRoomTypeRequest struct {
	Name             *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description      *string  `json:"description"`
	BasePrice        *int64   `json:"base_price" validate:"omitempty,min=0"`
	HolidaySurcharge *int64   `json:"holiday_surcharge"`
	MaxOccupancy     *int     `json:"max_occupancy" validate:"omitempty,min=1,max=20"`
	ExtraBeds        *int     `json:"extra_beds" validate:"omitempty,min=0,max=10"`
	Icon             *string  `json:"icon" validate:"omitempty,max=50"`
	Images           []string `json:"images"`
	Amenities        []string `json:"amenities"`
	SortOrder        *int     `json:"sort_order"`
	IsActive         *bool    `json:"is_active"`
}

// List 获取房型列表
func (s *RoomTypeService) List(ctx context.Context, activeOnly bool) ([]*models.RoomType, error) {
	list, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// Get 获取房型
func (s *RoomTypeService) Get(ctx context.Context, id int64) (*models.RoomType, error) {
	rt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrRoomTypeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rt, nil
}

// Create 创建房型
func (s *RoomTypeService) Create(ctx context.Context, req *CreateRoomTypeRequest) (*models.RoomType, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := checkHolidayRate(req.BasePrice, req.HolidaySurcharge); err != nil {
		return nil, err
	}

	rt := &models.RoomType{
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		BasePrice:        req.BasePrice,
		HolidaySurcharge: req.HolidaySurcharge,
		MaxOccupancy:     req.MaxOccupancy,
		ExtraBeds:        req.ExtraBeds,
		Icon:             req.Icon,
		Images:           req.Images,
		Amenities:        req.Amenities,
		SortOrder:        req.SortOrder,
		IsActive:         true,
	}
	if req.IsActive != nil {
		rt.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, rt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errors.ErrAlreadyExists.WithMessage("房型代码或名称已存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("房型已创建", logger.RoomTypeID(rt.ID), logger.String("code", rt.Code))
	return rt, nil
}

// Update 更新房型，已成立的订单保留原房价与名称快照
func (s *RoomTypeService) Update(ctx context.Context, id int64, req *UpdateRoomTypeRequest) (*models.RoomType, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	rt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rt.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		rt.Description = *req.Description
	}
	if req.BasePrice != nil {
		rt.BasePrice = *req.BasePrice
	}
	if req.HolidaySurcharge != nil {
		rt.HolidaySurcharge = *req.HolidaySurcharge
	}
	if req.MaxOccupancy != nil {
		rt.MaxOccupancy = *req.MaxOccupancy
	}
	if req.ExtraBeds != nil {
		rt.ExtraBeds = *req.ExtraBeds
	}
	if req.Icon != nil {
		rt.Icon = *req.Icon
	}
	if req.Images != nil {
		rt.Images = req.Images
	}
	if req.Amenities != nil {
		rt.Amenities = req.Amenities
	}
	if req.SortOrder != nil {
		rt.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		rt.IsActive = *req.IsActive
	}
	if err := checkHolidayRate(rt.BasePrice, rt.HolidaySurcharge); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errors.ErrAlreadyExists.WithMessage("房型名称已存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rt, nil
}

// checkHolidayRate 假日加价可为负数，但假日房价不能低于 0
func checkHolidayRate(basePrice, surcharge int64) error {
	if basePrice+surcharge < 0 {
		return errors.ErrInvalidParams.WithMessage("假日房价不能为负数")
	}
	return nil
}

// Delete 删除房型，仍有订单引用时改为停售
// 返回 true 表示已物理删除
func (s *RoomTypeService) Delete(ctx context.Context, id int64) (bool, error) {
	rt, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	count, err := s.usage.CountByRoomType(ctx, rt.ID, rt.Name)
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		if rt.IsActive {
			rt.IsActive = false
			if err := s.repo.Update(ctx, rt); err != nil {
				return false, errors.ErrDatabaseError.WithError(err)
			}
		}
		logger.Info("房型仍有订单引用，已停售", logger.RoomTypeID(rt.ID), logger.Int64("bookings", count))
		return false, nil
	}

	if err := s.repo.Delete(ctx, rt.ID); err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("房型已删除", logger.RoomTypeID(rt.ID))
	return true, nil
}
