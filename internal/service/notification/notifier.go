// Package notification 订单邮件通知
package notification

import (
	"context"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/metrics"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	"github.com/dumeirei/homestay-booking-backend/pkg/mailer"
)

// TemplateStore 模板读取
type TemplateStore interface {
	GetByKey(ctx context.Context, key string) (*models.EmailTemplate, error)
}

// LogStore 寄送记录
type LogStore interface {
	CreateEmailLog(ctx context.Context, bookingID int64, templateKey string, sentAt time.Time) (bool, error)
	DeleteEmailLog(ctx context.Context, bookingID int64, templateKey string) error
}

// SettingValuer 设定读取
type SettingValuer interface {
	Value(ctx context.Context, key, fallback string) (string, error)
}

// Notifier 订单邮件通知，同一订单同一模板只寄送一次
type Notifier struct {
	templates TemplateStore
	logs      LogStore
	settings  SettingValuer
	sender    mailer.Sender
	metrics   *metrics.Metrics
	loc       *time.Location
	now       func() time.Time
}

// NewNotifier 创建通知服务
func NewNotifier(templates TemplateStore, logs LogStore, settings SettingValuer, sender mailer.Sender, m *metrics.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		templates: templates,
		logs:      logs,
		settings:  settings,
		sender:    sender,
		metrics:   m,
		loc:       loc,
		now:       time.Now,
	}
}

// NotifyOnce 寄送订单邮件，返回是否实际寄出
// 先写入寄送记录再寄送，寄送失败时删除记录以便下次重试
func (n *Notifier) NotifyOnce(ctx context.Context, b *models.Booking, key string) (bool, error) {
	tpl, err := n.template(ctx, key)
	if err != nil || tpl == nil {
		return false, err
	}

	created, err := n.logs.CreateEmailLog(ctx, b.ID, key, utils.NormalizeTime(n.now()))
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	if !created {
		n.metrics.RecordNotification(key, "skipped")
		return false, nil
	}

	data := NewTemplateData(b, n.loc)
	n.fillHotel(ctx, data)
	if err := n.send(ctx, tpl, b.GuestEmail, data); err != nil {
		if derr := n.logs.DeleteEmailLog(ctx, b.ID, key); derr != nil {
			logger.Error("寄送记录回滚失败", logger.BookingID(b.ID), logger.Template(key), logger.Err(derr))
		}
		logger.Warn("邮件寄送失败", logger.BookingNo(b.BookingNo), logger.Template(key), logger.Err(err))
		return false, err
	}

	logger.Info("邮件已寄送", logger.BookingNo(b.BookingNo), logger.Template(key))
	return true, nil
}

// SendCode 寄送验证码邮件，不关联订单
func (n *Notifier) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	tpl, err := n.template(ctx, models.TemplateErasureCode)
	if err != nil {
		return err
	}
	if tpl == nil {
		return errors.ErrTemplateNotFound.WithMessage("验证码模板未启用")
	}
	data := &TemplateData{Code: code, ExpiresMinutes: int(ttl / time.Minute)}
	n.fillHotel(ctx, data)
	return n.send(ctx, tpl, to, data)
}

// OnBookingCreated 寄送订房确认
func (n *Notifier) OnBookingCreated(ctx context.Context, b *models.Booking) {
	n.notify(ctx, b, models.TemplateBookingConfirmation)
}

// OnPaymentConfirmed 寄送付款确认
func (n *Notifier) OnPaymentConfirmed(ctx context.Context, b *models.Booking) {
	n.notify(ctx, b, models.TemplatePaymentConfirmed)
}

// OnBookingCancelled 寄送取消通知
func (n *Notifier) OnBookingCancelled(ctx context.Context, b *models.Booking, _ string) {
	n.notify(ctx, b, models.TemplateCancelNotice)
}

// notify 钩子内寄送失败只记录日志，不影响订单操作
func (n *Notifier) notify(ctx context.Context, b *models.Booking, key string) {
	if _, err := n.NotifyOnce(ctx, b, key); err != nil {
		logger.Warn("订单通知失败", logger.BookingNo(b.BookingNo), logger.Template(key), logger.Err(err))
	}
}

func (n *Notifier) template(ctx context.Context, key string) (*models.EmailTemplate, error) {
	tpl, err := n.templates.GetByKey(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			logger.Debug("邮件模板不存在", logger.Template(key))
			return nil, nil
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !tpl.IsEnabled {
		n.metrics.RecordNotification(key, "skipped")
		return nil, nil
	}
	return tpl, nil
}

func (n *Notifier) send(ctx context.Context, tpl *models.EmailTemplate, to string, data *TemplateData) error {
	subject, body, err := Render(tpl, data)
	if err != nil {
		n.metrics.RecordNotification(tpl.TemplateKey, "failed")
		return errors.ErrInternalError.WithError(err)
	}
	if err := n.sender.Send(ctx, &mailer.Message{To: to, Subject: subject, Body: body}); err != nil {
		n.metrics.RecordNotification(tpl.TemplateKey, "failed")
		return errors.ErrExternalService.WithError(err)
	}
	n.metrics.RecordNotification(tpl.TemplateKey, "sent")
	return nil
}

func (n *Notifier) fillHotel(ctx context.Context, data *TemplateData) {
	if n.settings == nil {
		return
	}
	for key, dst := range map[string]*string{
		models.SettingHotelName:       &data.HotelName,
		models.SettingHotelPhone:      &data.HotelPhone,
		models.SettingBankName:        &data.BankName,
		models.SettingBankAccount:     &data.BankAccount,
		models.SettingBankAccountName: &data.BankAccountName,
	} {
		v, err := n.settings.Value(ctx, key, "")
		if err != nil {
			logger.Warn("读取设定失败", logger.Module("notification"), logger.String("key", key), logger.Err(err))
			continue
		}
		*dst = v
	}
}
