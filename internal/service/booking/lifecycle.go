package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/metrics"
	"github.com/dumeirei/homestay-booking-backend/internal/common/tracing"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// 单次逾期扫描的最大处理量
const sweepBatchSize = 500

// casAttempts 状态比较写入的最大尝试次数
const casAttempts = 3

// LifecycleService 订单生命周期
type LifecycleService struct {
	bookings BookingStore
	hooks    []EventHook
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewLifecycleService 创建订单生命周期服务
func NewLifecycleService(bookings BookingStore, m *metrics.Metrics, hooks ...EventHook) *LifecycleService {
	return &LifecycleService{
		bookings: bookings,
		hooks:    hooks,
		metrics:  m,
		now:      time.Now,
	}
}

// AddHook 注册事件钩子
func (s *LifecycleService) AddHook(h EventHook) {
	s.hooks = append(s.hooks, h)
}

// ConfirmPayment 确认付款，保留订单转为有效
func (s *LifecycleService) ConfirmPayment(ctx context.Context, bookingNo, source string) (*models.Booking, error) {
	b, err := s.getByNo(ctx, bookingNo)
	if err != nil {
		return nil, err
	}
	updated, changed, err := s.transition(ctx, b, ActionConfirmPayment, func() map[string]interface{} {
		return map[string]interface{}{"paid_at": utils.NormalizeTime(s.now())}
	})
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Info("订单已确认付款", logger.BookingNo(bookingNo), logger.String("source", source))
		for _, h := range s.hooks {
			h.OnPaymentConfirmed(ctx, updated)
		}
	}
	return updated, nil
}

// MarkPaymentFailed 标记刷卡付款失败
func (s *LifecycleService) MarkPaymentFailed(ctx context.Context, bookingNo string) (*models.Booking, error) {
	b, err := s.getByNo(ctx, bookingNo)
	if err != nil {
		return nil, err
	}
	updated, _, err := s.transition(ctx, b, ActionPaymentFailed, nil)
	return updated, err
}

// Refund 标记已退款
func (s *LifecycleService) Refund(ctx context.Context, bookingNo string) (*models.Booking, error) {
	b, err := s.getByNo(ctx, bookingNo)
	if err != nil {
		return nil, err
	}
	updated, _, err := s.transition(ctx, b, ActionRefund, nil)
	return updated, err
}

// Cancel 取消订单并释放房晚，重复取消不会再次触发钩子
func (s *LifecycleService) Cancel(ctx context.Context, bookingNo, reason string) (*models.Booking, error) {
	b, err := s.getByNo(ctx, bookingNo)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = models.CancelReasonAdmin
	}
	updated, _, err := s.cancel(ctx, b, ActionCancel, reason)
	return updated, err
}

func (s *LifecycleService) cancel(ctx context.Context, b *models.Booking, action Action, reason string) (*models.Booking, bool, error) {
	updated, changed, err := s.transition(ctx, b, action, func() map[string]interface{} {
		return map[string]interface{}{
			"cancelled_at":  utils.NormalizeTime(s.now()),
			"cancel_reason": reason,
		}
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		for _, h := range s.hooks {
			h.OnBookingCancelled(ctx, updated, reason)
		}
	}
	return updated, changed, nil
}

// RunExpirySweep 取消付款期限已到的保留订单，返回本次实际取消的订单 ID
func (s *LifecycleService) RunExpirySweep(ctx context.Context, now time.Time) ([]int64, error) {
	ctx, span := tracing.Start(ctx, "booking.RunExpirySweep", tracing.WithOperation("expiry_sweep"))
	defer span.End()

	expired, err := s.bookings.ListReservedExpired(ctx, utils.NormalizeTime(now), sweepBatchSize)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	cancelled := make([]int64, 0, len(expired))
	for _, b := range expired {
		_, changed, err := s.cancel(ctx, b, ActionExpire, models.CancelReasonExpired)
		if err != nil {
			logger.Error("逾期订单取消失败", logger.BookingNo(b.BookingNo), logger.Err(err))
			continue
		}
		if changed {
			cancelled = append(cancelled, b.ID)
		}
	}

	if len(cancelled) > 0 {
		logger.Info("逾期订单已取消", logger.Module("lifecycle"), logger.Int("count", len(cancelled)))
	}
	s.metrics.RecordBookingsExpired(len(cancelled))
	return cancelled, nil
}

// HardDelete 物理删除已取消的订单
func (s *LifecycleService) HardDelete(ctx context.Context, bookingNo string) error {
	b, err := s.getByNo(ctx, bookingNo)
	if err != nil {
		return err
	}
	if _, _, err := NextState(ActionHardDelete, repository.StateOf(b)); err != nil {
		s.rejected(b, ActionHardDelete, err)
		return err
	}

	deleted, err := s.bookings.HardDelete(ctx, b.ID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !deleted {
		err := errors.ErrIllegalTransition.WithMessage("订单状态已变更，无法删除")
		s.rejected(b, ActionHardDelete, err)
		return err
	}
	s.metrics.RecordTransition(string(ActionHardDelete), "ok")
	logger.Info("订单已删除", logger.BookingNo(bookingNo))
	return nil
}

// AnonymizeCustomerData 匿名化某邮箱的全部订单，金额等财务记录保留
func (s *LifecycleService) AnonymizeCustomerData(ctx context.Context, email string) (int64, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return 0, errors.ErrInvalidParams.WithMessage("邮箱不能为空")
	}

	n, err := s.bookings.Anonymize(ctx, email, ScrubBooking)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("客户资料已匿名化",
		logger.Module("privacy"), logger.String("email", utils.MaskEmail(email)), logger.Int64("bookings", n))
	return n, nil
}

// ScrubBooking 订单匿名化后的个人资料字段
func ScrubBooking(b *models.Booking) map[string]interface{} {
	return map[string]interface{}{
		"guest_name":  "已删除",
		"guest_phone": "",
		"guest_email": fmt.Sprintf("deleted+%s@anonymized.invalid", b.BookingNo),
		"notes":       "",
	}
}

// transition 以比较写入执行状态变更，返回最新订单与是否实际变更
// 写入零行时重新读取，由最新状态决定是无需处理、重试还是拒绝
func (s *LifecycleService) transition(ctx context.Context, b *models.Booking, action Action, fields func() map[string]interface{}) (*models.Booking, bool, error) {
	current := b
	for attempt := 0; attempt < casAttempts; attempt++ {
		from := repository.StateOf(current)
		to, noop, err := NextState(action, from)
		if err != nil {
			s.rejected(current, action, err)
			return nil, false, err
		}
		if noop {
			s.metrics.RecordTransition(string(action), "noop")
			return current, false, nil
		}

		var extra map[string]interface{}
		if fields != nil {
			extra = fields()
		}
		ok, err := s.bookings.CompareAndSetStatus(ctx, current.ID, from, to, extra)
		if err != nil {
			return nil, false, errors.ErrDatabaseError.WithError(err)
		}

		latest, err := s.bookings.GetByID(ctx, current.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, false, errors.ErrBookingNotFound
			}
			return nil, false, errors.ErrDatabaseError.WithError(err)
		}
		if ok {
			s.metrics.RecordTransition(string(action), "ok")
			logger.Debug("订单状态已变更",
				logger.BookingNo(current.BookingNo),
				logger.Action(string(action)),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			return latest, true, nil
		}
		current = latest
	}
	err := errors.ErrIllegalTransition.WithMessage("订单状态变更频繁，请稍后重试")
	s.rejected(current, action, err)
	return nil, false, err
}

func (s *LifecycleService) rejected(b *models.Booking, action Action, err error) {
	s.metrics.RecordTransition(string(action), "rejected")
	logger.Warn("拒绝非法的订单状态变更",
		logger.BookingNo(b.BookingNo),
		logger.Action(string(action)),
		logger.String("from", repository.StateOf(b).String()),
		logger.Err(err),
	)
}

func (s *LifecycleService) getByNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	b, err := s.bookings.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return b, nil
}
