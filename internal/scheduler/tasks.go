package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/homestay-booking-backend/internal/common/cache"
	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/service/booking"
)

// 任务名称
const (
	TaskExpireReservations   = "expire_reservations"
	TaskPaymentReminders     = "payment_reminders"
	TaskCheckinReminders     = "checkin_reminders"
	TaskFeedbackRequests     = "feedback_requests"
	expireLockKey            = "expire_reservations"
	defaultCheckinDaysBefore = 1
	defaultFeedbackDaysAfter = 1
)

// Notifier 寄送订单邮件，同一订单同一模板只寄一次
type Notifier interface {
	NotifyOnce(ctx context.Context, b *models.Booking, templateKey string) (bool, error)
}

// TaskHandler 订房相关定时任务
type TaskHandler struct {
	lifecycle *booking.LifecycleService
	reminders *booking.ReminderService
	notifier  Notifier
	redis     *redis.Client
	cfg       config.BookingConfig
	now       func() time.Time
}

// NewTaskHandler 创建任务处理器，redis 为空时不加锁
func NewTaskHandler(
	lifecycle *booking.LifecycleService,
	reminders *booking.ReminderService,
	notifier Notifier,
	redisClient *redis.Client,
	cfg config.BookingConfig,
) *TaskHandler {
	return &TaskHandler{
		lifecycle: lifecycle,
		reminders: reminders,
		notifier:  notifier,
		redis:     redisClient,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Register 注册全部任务
func (h *TaskHandler) Register(s *Scheduler) {
	s.AddTask(TaskExpireReservations, h.cfg.SweepDuration(), h.ExpireReservations)
	s.AddTask(TaskPaymentReminders, h.cfg.ReminderDuration(), h.SendPaymentReminders)
	s.AddTask(TaskCheckinReminders, h.cfg.ReminderDuration(), h.SendCheckinReminders)
	s.AddTask(TaskFeedbackRequests, h.cfg.ReminderDuration(), h.SendFeedbackRequests)
}

// ExpireReservations 取消逾期未付款的保留订单
// 多实例部署时以 Redis 锁保证同一时间只有一个实例扫描
func (h *TaskHandler) ExpireReservations(ctx context.Context) error {
	if h.redis != nil {
		unlock, ok, err := cache.TryLock(ctx, h.redis, cache.BuildKey(cache.KeyPrefixLock, expireLockKey), 2*time.Minute)
		if err != nil {
			return err
		}
		if !ok {
			logger.Debug("其他实例正在执行逾期扫描", logger.Module("scheduler"))
			return nil
		}
		defer unlock()
	}

	ids, err := h.lifecycle.RunExpirySweep(ctx, h.now())
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		logger.Info("逾期扫描完成", logger.Module("scheduler"), logger.Int("cancelled", len(ids)))
	}
	return nil
}

// SendPaymentReminders 付款期限前寄送提醒
func (h *TaskHandler) SendPaymentReminders(ctx context.Context) error {
	list, err := h.reminders.FindPaymentReminderCandidates(ctx, h.now())
	if err != nil {
		return err
	}
	h.sendAll(ctx, list, models.TemplatePaymentReminder)
	return nil
}

// SendCheckinReminders 入住前寄送提醒
func (h *TaskHandler) SendCheckinReminders(ctx context.Context) error {
	days := h.cfg.CheckinReminderDaysBefore
	if days <= 0 {
		days = defaultCheckinDaysBefore
	}
	list, err := h.reminders.FindCheckinReminderCandidates(ctx, h.now(), days)
	if err != nil {
		return err
	}
	h.sendAll(ctx, list, models.TemplateCheckinReminder)
	return nil
}

// SendFeedbackRequests 退房后寄送回馈邀请
func (h *TaskHandler) SendFeedbackRequests(ctx context.Context) error {
	days := h.cfg.FeedbackDaysAfter
	if days <= 0 {
		days = defaultFeedbackDaysAfter
	}
	list, err := h.reminders.FindFeedbackCandidates(ctx, h.now(), days)
	if err != nil {
		return err
	}
	h.sendAll(ctx, list, models.TemplateFeedbackRequest)
	return nil
}

func (h *TaskHandler) sendAll(ctx context.Context, list []*models.Booking, key string) {
	sent := 0
	for _, b := range list {
		if ctx.Err() != nil {
			return
		}
		ok, err := h.notifier.NotifyOnce(ctx, b, key)
		if err != nil {
			logger.Warn("提醒寄送失败", logger.Module("scheduler"), logger.BookingNo(b.BookingNo), logger.Template(key), logger.Err(err))
			continue
		}
		if ok {
			sent++
		}
	}
	if sent > 0 {
		logger.Info("提醒已寄送", logger.Module("scheduler"), logger.Template(key), logger.Int("count", sent))
	}
}
