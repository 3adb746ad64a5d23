package admin

import (
	"context"
	"strings"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// CustomerService 客户资料查询，客户以邮箱聚合
type CustomerService struct {
	bookings *repository.BookingRepository
}

// NewCustomerService 创建客户服务
func NewCustomerService(bookings *repository.BookingRepository) *CustomerService {
	return &CustomerService{bookings: bookings}
}

// ListCustomers 分页获取客户列表
func (s *CustomerService) ListCustomers(ctx context.Context, keyword string, page *utils.Pagination) ([]*repository.CustomerSummary, int64, error) {
	page.Normalize()
	list, total, err := s.bookings.ListCustomers(ctx, page.GetOffset(), page.GetLimit(), strings.TrimSpace(keyword))
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// CustomerBookings 获取某邮箱的全部订单
func (s *CustomerService) CustomerBookings(ctx context.Context, email string) ([]*models.Booking, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, errors.ErrInvalidParams.WithMessage("邮箱不能为空")
	}
	list, err := s.bookings.ListByGuestEmail(ctx, email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}
