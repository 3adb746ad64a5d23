package models

import (
	"time"

	"gorm.io/datatypes"
)

// 邮件模板键
const (
	TemplateBookingConfirmation = "booking_confirmation"
	TemplatePaymentReminder     = "payment_reminder"
	TemplatePaymentConfirmed    = "payment_confirmed"
	TemplateCheckinReminder     = "checkin_reminder"
	TemplateFeedbackRequest     = "feedback_request"
	TemplateCancelNotice        = "cancel_notice"
	TemplateErasureCode         = "erasure_code"
)

// EmailTemplate 邮件模板，Subject 与 Body 使用 text/template 语法
type EmailTemplate struct {
	ID          int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateKey string                      `gorm:"type:varchar(50);not null;uniqueIndex" json:"template_key"`
	Name        string                      `gorm:"type:varchar(100);not null" json:"name"`
	Subject     string                      `gorm:"type:varchar(255);not null" json:"subject"`
	Body        string                      `gorm:"type:text;not null" json:"body"`
	IsEnabled   bool                        `gorm:"not null" json:"is_enabled"`
	DaysOffset  int                         `gorm:"not null;default:0" json:"days_offset"`
	Variables   datatypes.JSONSlice[string] `json:"variables"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (EmailTemplate) TableName() string {
	return "email_templates"
}

// BookingEmailLog 订单邮件寄送记录，(booking_id, template_key) 唯一
type BookingEmailLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID   int64     `gorm:"not null;uniqueIndex:uk_booking_template" json:"booking_id"`
	TemplateKey string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_booking_template" json:"template_key"`
	SentAt      time.Time `gorm:"not null" json:"sent_at"`
}

// TableName 表名
func (BookingEmailLog) TableName() string {
	return "booking_email_logs"
}
