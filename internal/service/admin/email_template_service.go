package admin

import (
	"context"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/validator"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	"github.com/dumeirei/homestay-booking-backend/internal/service/notification"
)

// EmailTemplateService 邮件模板管理
type EmailTemplateService struct {
	repo     *repository.EmailTemplateRepository
	bookings *repository.BookingRepository
	loc      *time.Location
}

// NewEmailTemplateService 创建邮件模板服务
func NewEmailTemplateService(repo *repository.EmailTemplateRepository, bookings *repository.BookingRepository, loc *time.Location) *EmailTemplateService {
	return &EmailTemplateService{repo: repo, bookings: bookings, loc: loc}
}

// UpdateTemplateRequest 更新模板请求
type UpdateTemplateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Subject    *string `json:"subject" validate:"omitempty,min=1,max=255"`
	Body       *string `json:"body" validate:"omitempty,min=1"`
	IsEnabled  *bool   `json:"is_enabled"`
	DaysOffset *int    `json:"days_offset" validate:"omitempty,min=-30,max=30"`
}

// Preview 模板预览结果
type Preview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// List 获取全部模板
func (s *EmailTemplateService) List(ctx context.Context) ([]*models.EmailTemplate, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// Get 获取模板
func (s *EmailTemplateService) Get(ctx context.Context, key string) (*models.EmailTemplate, error) {
	tpl, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrTemplateNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return tpl, nil
}

// Update 更新模板，语法错误的模板不会写入
func (s *EmailTemplateService) Update(ctx context.Context, key string, req *UpdateTemplateRequest) (*models.EmailTemplate, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	tpl, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tpl.Name = *req.Name
	}
	if req.Subject != nil {
		tpl.Subject = *req.Subject
	}
	if req.Body != nil {
		tpl.Body = *req.Body
	}
	if req.IsEnabled != nil {
		tpl.IsEnabled = *req.IsEnabled
	}
	if req.DaysOffset != nil {
		tpl.DaysOffset = *req.DaysOffset
	}
	if err := notification.Validate(tpl); err != nil {
		return nil, errors.ErrInvalidParams.WithMessage(err.Error())
	}

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return tpl, nil
}

// Render 以指定订单渲染模板，bookingNo 为空时使用示例资料
func (s *EmailTemplateService) Render(ctx context.Context, key, bookingNo string) (*Preview, error) {
	tpl, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	b := sampleBooking()
	if bookingNo != "" {
		b, err = s.bookings.GetByBookingNo(ctx, bookingNo)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, errors.ErrBookingNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	data := notification.NewTemplateData(b, s.loc)
	data.Code = "123456"
	data.ExpiresMinutes = 10
	subject, body, err := notification.Render(tpl, data)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage(err.Error())
	}
	return &Preview{Subject: subject, Body: body}, nil
}

// SeedDefaults 写入缺失的默认模板，返回新增数量
func (s *EmailTemplateService) SeedDefaults(ctx context.Context) (int, error) {
	n := 0
	for _, tpl := range notification.DefaultTemplates() {
		created, err := s.repo.CreateIfMissing(ctx, tpl)
		if err != nil {
			return n, errors.ErrDatabaseError.WithError(err)
		}
		if created {
			n++
		}
	}
	return n, nil
}

func sampleBooking() *models.Booking {
	deadline := time.Date(2025, 3, 4, 4, 0, 0, 0, time.UTC)
	return &models.Booking{
		BookingNo:         "BK20250301120000ABCD",
		RoomTypeName:      "豪华双人房",
		CheckInDate:       "2025-03-10",
		CheckOutDate:      "2025-03-12",
		Nights:            2,
		Adults:            2,
		GuestName:         "王小明",
		GuestEmail:        "guest@example.com",
		PaymentMethod:     models.PaymentMethodTransfer,
		PaymentAmountType: models.PaymentAmountFull,
		TotalAmount:       4500,
		AddonsTotal:       600,
		FinalAmount:       4500,
		AmountDue:         5100,
		PaymentDeadline:   &deadline,
	}
}
