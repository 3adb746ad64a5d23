package admin

import (
	"context"
	"strings"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/validator"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// AddonService 加购项目管理
// 订单保存加购快照，停售或改价不影响历史订单
type AddonService struct {
	repo *repository.AddonRepository
}

// NewAddonService 创建加购项目管理服务
func NewAddonService(repo *repository.AddonRepository) *AddonService {
	return &AddonService{repo: repo}
}

// CreateAddonRequest 创建加购项目请求
type CreateAddonRequest struct {
	Code      string `json:"code" validate:"required,max=50"`
	Name      string `json:"name" validate:"required,max=100"`
	Price     int64  `json:"price" validate:"min=0"`
	Icon      string `json:"icon" validate:"max=50"`
	SortOrder int    `json:"sort_order"`
}

// UpdateAddonRequest 更新加购项目请求
type UpdateAddonRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	Price     *int64  `json:"price" validate:"omitempty,min=0"`
	Icon      *string `json:"icon" validate:"omitempty,max=50"`
	SortOrder *int    `json:"sort_order"`
	IsActive  *bool   `json:"is_active"`
}

// List 获取加购项目
func (s *AddonService) List(ctx context.Context, activeOnly bool) ([]*models.Addon, error) {
	list, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// Create 创建加购项目
func (s *AddonService) Create(ctx context.Context, req *CreateAddonRequest) (*models.Addon, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	addon := &models.Addon{
		Code:      strings.ToLower(strings.TrimSpace(req.Code)),
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Icon:      req.Icon,
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, addon); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errors.ErrAlreadyExists.WithMessage("加购代码已存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addon, nil
}

// Update 更新加购项目
func (s *AddonService) Update(ctx context.Context, id int64, req *UpdateAddonRequest) (*models.Addon, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	addon, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		addon.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		addon.Price = *req.Price
	}
	if req.Icon != nil {
		addon.Icon = *req.Icon
	}
	if req.SortOrder != nil {
		addon.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		addon.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, addon); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addon, nil
}

// Delete 停售加购项目
func (s *AddonService) Delete(ctx context.Context, id int64) error {
	addon, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !addon.IsActive {
		return nil
	}
	addon.IsActive = false
	if err := s.repo.Update(ctx, addon); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Purge 物理删除加购项目
func (s *AddonService) Purge(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !deleted {
		return errors.ErrAddonNotFound
	}
	return nil
}

func (s *AddonService) get(ctx context.Context, id int64) (*models.Addon, error) {
	addon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrAddonNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return addon, nil
}
