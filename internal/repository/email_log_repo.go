package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// CreateEmailLog 记录订单已寄送某模板，已有记录时返回 false
func (r *BookingRepository) CreateEmailLog(ctx context.Context, bookingID int64, templateKey string, sentAt time.Time) (bool, error) {
	log := &models.BookingEmailLog{
		BookingID:   bookingID,
		TemplateKey: templateKey,
		SentAt:      sentAt,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "template_key"}},
			DoNothing: true,
		}).
		Create(log)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteEmailLog 删除寄送记录，寄送失败时用于回滚
func (r *BookingRepository) DeleteEmailLog(ctx context.Context, bookingID int64, templateKey string) error {
	return r.db.WithContext(ctx).
		Where("booking_id = ? AND template_key = ?", bookingID, templateKey).
		Delete(&models.BookingEmailLog{}).Error
}

// ListEmailLogs 按寄送时间获取订单的邮件记录
func (r *BookingRepository) ListEmailLogs(ctx context.Context, bookingID int64) ([]*models.BookingEmailLog, error) {
	var logs []*models.BookingEmailLog
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("sent_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
