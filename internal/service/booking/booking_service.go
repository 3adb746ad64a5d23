package booking

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/metrics"
	"github.com/dumeirei/homestay-booking-backend/internal/common/qrcode"
	"github.com/dumeirei/homestay-booking-backend/internal/common/tracing"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/common/validator"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// 订单编号重复时的最大重试次数
const bookingNoAttempts = 3

// BookingService 报价与下单
type BookingService struct {
	roomTypes    RoomTypeStore
	addons       AddonStore
	bookings     BookingStore
	calendar     *CalendarLoader
	settings     *SettingsReader
	availability *AvailabilityService
	qr           *qrcode.Generator
	metrics      *metrics.Metrics
	cfg          config.BookingConfig
	hooks        []EventHook
	now          func() time.Time
}

// NewBookingService 创建订房服务
func NewBookingService(
	roomTypes RoomTypeStore,
	addons AddonStore,
	bookings BookingStore,
	calendar *CalendarLoader,
	settings *SettingsReader,
	availability *AvailabilityService,
	m *metrics.Metrics,
	cfg config.BookingConfig,
	hooks ...EventHook,
) *BookingService {
	if cfg.MaxNights <= 0 {
		cfg.MaxNights = 30
	}
	return &BookingService{
		roomTypes:    roomTypes,
		addons:       addons,
		bookings:     bookings,
		calendar:     calendar,
		settings:     settings,
		availability: availability,
		qr:           qrcode.NewGenerator(qrcode.WithHighRecovery()),
		metrics:      m,
		cfg:          cfg,
		hooks:        hooks,
		now:          time.Now,
	}
}

// AddHook 注册事件钩子
func (s *BookingService) AddHook(h EventHook) {
	s.hooks = append(s.hooks, h)
}

// QuoteRequest 报价请求
type QuoteRequest struct {
	RoomTypeID        int64    `json:"room_type_id" validate:"gt=0"`
	CheckIn           string   `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut          string   `json:"check_out" validate:"required,datetime=2006-01-02"`
	Addons            []string `json:"addons" validate:"omitempty,max=20,dive,required"`
	PaymentAmountType string   `json:"payment_amount_type" validate:"omitempty,oneof=full deposit"`
}

// IsDeposit 是否只付订金
func (r *QuoteRequest) IsDeposit() bool {
	return r.PaymentAmountType == models.PaymentAmountDeposit
}

// CreateBookingRequest 下单请求
type CreateBookingRequest struct {
	QuoteRequest
	GuestName     string `json:"guest_name" validate:"required,max=100"`
	GuestPhone    string `json:"guest_phone" validate:"required,max=30"`
	GuestEmail    string `json:"guest_email" validate:"required,email,max=255"`
	Adults        int    `json:"adults" validate:"min=1"`
	Children      int    `json:"children" validate:"min=0"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card transfer"`
	Notes         string `json:"notes" validate:"max=1000"`
}

// stayRange 解析并校验入住区间
func (s *BookingService) stayRange(req *QuoteRequest) (time.Time, time.Time, error) {
	checkIn, err := utils.ParseDate(req.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("入住日期格式不正确")
	}
	checkOut, err := utils.ParseDate(req.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("退房日期格式不正确")
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("退房日期必须晚于入住日期")
	}
	if utils.DaysBetween(checkIn, checkOut) > s.cfg.MaxNights {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("入住晚数超过上限")
	}
	today := utils.DateOf(s.now(), s.cfg.Location())
	if checkIn.Before(today) {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("入住日期不能早于今天")
	}
	return checkIn, checkOut, nil
}

// QuotePrice 报价，不写入任何资料
func (s *BookingService) QuotePrice(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	quote, _, err := s.quote(ctx, req)
	return quote, err
}

func (s *BookingService) quote(ctx context.Context, req *QuoteRequest) (*Quote, *models.RoomType, error) {
	checkIn, checkOut, err := s.stayRange(req)
	if err != nil {
		return nil, nil, err
	}

	roomType, err := s.roomTypes.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, errors.ErrRoomTypeNotFound
		}
		return nil, nil, errors.ErrDatabaseError.WithError(err)
	}
	if !roomType.IsActive {
		return nil, nil, errors.ErrRoomTypeNotFound
	}

	cal, err := s.calendar.Load(ctx)
	if err != nil {
		return nil, nil, errors.ErrDatabaseError.WithError(err)
	}
	stay, err := PriceForStay(cal, roomType, checkIn, checkOut)
	if err != nil {
		return nil, nil, err
	}

	var lines []models.AddonLine
	var addonsTotal int64
	if len(req.Addons) > 0 {
		catalogue, err := s.addons.GetByCodes(ctx, utils.Unique(req.Addons))
		if err != nil {
			return nil, nil, errors.ErrDatabaseError.WithError(err)
		}
		lines, addonsTotal, err = ResolveAddons(req.Addons, catalogue)
		if err != nil {
			return nil, nil, err
		}
	}

	pct := 0
	if req.IsDeposit() {
		if pct, err = s.settings.DepositPercentage(ctx); err != nil {
			return nil, nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	quote := BuildQuote(roomType, stay, lines, addonsTotal, req.IsDeposit(), pct)
	quote.CheckInDate = req.CheckIn
	quote.CheckOutDate = req.CheckOut
	return quote, roomType, nil
}

// CreateBooking 下单
// 刷卡订单直接生效，转账订单保留至付款期限；房晚已被占用时返回 ErrBookingConflict
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	ctx, span := tracing.Start(ctx, "booking.CreateBooking",
		append(tracing.WithStay(req.CheckIn, req.CheckOut), tracing.WithRoomTypeID(req.RoomTypeID))...)
	defer span.End()

	booking, err := s.createBooking(ctx, req)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}
	span.SetAttributes(tracing.WithBookingNo(booking.BookingNo))
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	quote, roomType, err := s.quote(ctx, &req.QuoteRequest)
	if err != nil {
		return nil, err
	}

	guests := req.Adults + req.Children
	if guests < 1 || guests > roomType.MaxGuests() {
		return nil, errors.ErrGuestCountInvalid
	}

	checkIn, _ := utils.ParseDate(req.CheckIn)
	checkOut, _ := utils.ParseDate(req.CheckOut)
	available, err := s.availability.IsRoomTypeAvailable(ctx, roomType.ID, roomType.Name, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !available {
		s.metrics.RecordBookingConflict()
		return nil, errors.ErrBookingConflict
	}

	now := utils.NormalizeTime(s.now())
	booking := &models.Booking{
		RoomTypeID:        roomType.ID,
		RoomTypeName:      roomType.Name,
		CheckInDate:       quote.CheckInDate,
		CheckOutDate:      quote.CheckOutDate,
		Nights:            quote.Nights,
		PricePerNight:     quote.PricePerNight,
		Adults:            req.Adults,
		Children:          req.Children,
		GuestName:         strings.TrimSpace(req.GuestName),
		GuestPhone:        strings.TrimSpace(req.GuestPhone),
		GuestEmail:        utils.NormalizeEmail(req.GuestEmail),
		Notes:             req.Notes,
		PaymentMethod:     req.PaymentMethod,
		PaymentAmountType: quote.PaymentAmountType,
		DepositPercentage: quote.DepositPercentage,
		NightlyRates:      quote.NightlyRates,
		Addons:            quote.Addons,
		TotalAmount:       quote.TotalAmount,
		AddonsTotal:       quote.AddonsTotal,
		FinalAmount:       quote.FinalAmount,
		AmountDue:         quote.AmountDue,
		PaymentStatus:     models.PaymentStatusPending,
		Status:            models.BookingStatusActive,
		CreatedAt:         now,
	}

	if req.PaymentMethod == models.PaymentMethodTransfer {
		days, err := s.settings.DaysReserved(ctx)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		deadline := now.AddDate(0, 0, days)
		booking.Status = models.BookingStatusReserved
		booking.DaysReserved = days
		booking.PaymentDeadline = &deadline
	}

	if err := s.insert(ctx, booking, now); err != nil {
		return nil, err
	}

	s.metrics.RecordBookingCreated(booking.PaymentMethod, booking.Status)
	logger.Info("订单已创建",
		logger.BookingNo(booking.BookingNo),
		logger.RoomTypeID(booking.RoomTypeID),
		logger.Status(booking.Status, booking.PaymentStatus),
	)
	for _, h := range s.hooks {
		h.OnBookingCreated(ctx, booking)
	}
	return booking, nil
}

// insert 写入订单，编号重复时重新生成
func (s *BookingService) insert(ctx context.Context, booking *models.Booking, now time.Time) error {
	nights := make([]string, 0, len(booking.NightlyRates))
	for _, r := range booking.NightlyRates {
		nights = append(nights, r.Date)
	}

	for attempt := 0; attempt < bookingNoAttempts; attempt++ {
		booking.ID = 0
		booking.BookingNo = utils.GenerateBookingNo(now.In(s.cfg.Location()))
		err := s.bookings.CreateWithNights(ctx, booking, nights)
		switch {
		case err == nil:
			return nil
		case stderrors.Is(err, repository.ErrDuplicateBookingNo):
			continue
		case stderrors.Is(err, repository.ErrNightTaken):
			s.metrics.RecordBookingConflict()
			return errors.ErrBookingConflict
		default:
			return errors.ErrDatabaseError.WithError(err)
		}
	}
	return errors.ErrOperationFailed.WithMessage("订单编号生成失败，请稍后重试")
}

// GetBooking 根据订单编号获取订单
func (s *BookingService) GetBooking(ctx context.Context, bookingNo string) (*models.Booking, error) {
	b, err := s.bookings.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return b, nil
}

// LookupForGuest 旅客以订单编号与邮箱查询订单，邮箱不符视为不存在
func (s *BookingService) LookupForGuest(ctx context.Context, bookingNo, email string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, bookingNo)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingStatusDeleted || b.GuestEmail != utils.NormalizeEmail(email) {
		return nil, errors.ErrBookingNotFound
	}
	return b, nil
}

// ListBookings 后台订单列表
func (s *BookingService) ListBookings(ctx context.Context, filters *repository.BookingListFilters, page *utils.Pagination) ([]*models.Booking, int64, error) {
	page.Normalize()
	list, total, err := s.bookings.List(ctx, page.GetOffset(), page.GetLimit(), filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// EmailLogs 订单的邮件寄送记录
func (s *BookingService) EmailLogs(ctx context.Context, bookingID int64) ([]*models.BookingEmailLog, error) {
	logs, err := s.bookings.ListEmailLogs(ctx, bookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return logs, nil
}

// BookingQRCode 生成入住凭证二维码
func (s *BookingService) BookingQRCode(ctx context.Context, bookingNo, email string) ([]byte, error) {
	b, err := s.LookupForGuest(ctx, bookingNo, email)
	if err != nil {
		return nil, err
	}
	png, err := s.qr.GeneratePNG(qrcode.BookingURL(s.cfg.PublicBaseURL, b.BookingNo))
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return png, nil
}
