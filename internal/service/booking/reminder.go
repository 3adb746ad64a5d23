package booking

import (
	"context"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// ReminderService 提醒邮件候选查询
// 查询结果已排除寄送过同一模板的订单
type ReminderService struct {
	bookings      BookingStore
	loc           *time.Location
	paymentWindow time.Duration
}

// NewReminderService 创建提醒查询服务，paymentWindow 为付款期限前多久开始提醒
func NewReminderService(bookings BookingStore, loc *time.Location, paymentWindow time.Duration) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	if paymentWindow <= 0 {
		paymentWindow = 24 * time.Hour
	}
	return &ReminderService{bookings: bookings, loc: loc, paymentWindow: paymentWindow}
}

// FindPaymentReminderCandidates 付款期限落在 (now, now+window] 的保留订单
func (s *ReminderService) FindPaymentReminderCandidates(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	now = utils.NormalizeTime(now)
	list, err := s.bookings.ListDeadlineBetween(ctx, now, now.Add(s.paymentWindow), models.TemplatePaymentReminder)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// FindCheckinReminderCandidates 入住日为今天起第 daysBefore 天的有效订单
func (s *ReminderService) FindCheckinReminderCandidates(ctx context.Context, now time.Time, daysBefore int) ([]*models.Booking, error) {
	date := utils.FormatDate(utils.DateOf(now, s.loc).AddDate(0, 0, daysBefore))
	list, err := s.bookings.ListActiveByCheckIn(ctx, date, models.TemplateCheckinReminder)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// FindFeedbackCandidates 退房日为 daysAfter 天前的有效订单
func (s *ReminderService) FindFeedbackCandidates(ctx context.Context, now time.Time, daysAfter int) ([]*models.Booking, error) {
	date := utils.FormatDate(utils.DateOf(now, s.loc).AddDate(0, 0, -daysAfter))
	list, err := s.bookings.ListActiveByCheckOut(ctx, date, models.TemplateFeedbackRequest)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// MarkSent 记录模板已寄送，返回是否为首次记录
func (s *ReminderService) MarkSent(ctx context.Context, bookingID int64, templateKey string, now time.Time) (bool, error) {
	created, err := s.bookings.CreateEmailLog(ctx, bookingID, templateKey, utils.NormalizeTime(now))
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return created, nil
}
