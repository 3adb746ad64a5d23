package privacy

import (
	"context"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// Anonymizer 匿名化客户资料
type Anonymizer interface {
	AnonymizeCustomerData(ctx context.Context, email string) (int64, error)
}

// BookingFinder 按邮箱查询订单
type BookingFinder interface {
	ListByGuestEmail(ctx context.Context, email string) ([]*models.Booking, error)
}

// ErasureService 客户自助删除个人资料
type ErasureService struct {
	codes      *CodeService
	bookings   BookingFinder
	anonymizer Anonymizer
}

// NewErasureService 创建资料删除服务
func NewErasureService(codes *CodeService, bookings BookingFinder, anonymizer Anonymizer) *ErasureService {
	return &ErasureService{codes: codes, bookings: bookings, anonymizer: anonymizer}
}

// RequestErasure 寄送删除验证码
// 邮箱没有订单时同样返回成功，不透露邮箱是否存在
func (s *ErasureService) RequestErasure(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return errors.ErrInvalidParams.WithMessage("邮箱不能为空")
	}

	list, err := s.bookings.ListByGuestEmail(ctx, email)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if len(list) == 0 {
		logger.Info("删除请求的邮箱没有订单", logger.Module("privacy"), logger.String("email", utils.MaskEmail(email)))
		return nil
	}
	return s.codes.Issue(ctx, email, PurposeErasure)
}

// ConfirmErasure 校验验证码并匿名化该邮箱的全部订单
func (s *ErasureService) ConfirmErasure(ctx context.Context, email, code string) (int64, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || code == "" {
		return 0, errors.ErrInvalidParams.WithMessage("邮箱与验证码不能为空")
	}
	if err := s.codes.Verify(ctx, email, PurposeErasure, code); err != nil {
		return 0, err
	}
	return s.anonymizer.AnonymizeCustomerData(ctx, email)
}
