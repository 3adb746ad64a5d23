package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/metrics"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// 2025-03-01 为周六
var testNow = time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)

type recordingHook struct {
	mu        sync.Mutex
	created   []string
	paid      []string
	cancelled map[string]string
}

func newRecordingHook() *recordingHook {
	return &recordingHook{cancelled: make(map[string]string)}
}

func (h *recordingHook) OnBookingCreated(_ context.Context, b *models.Booking) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.created = append(h.created, b.BookingNo)
}

func (h *recordingHook) OnPaymentConfirmed(_ context.Context, b *models.Booking) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paid = append(h.paid, b.BookingNo)
}

func (h *recordingHook) OnBookingCancelled(_ context.Context, b *models.Booking, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.cancelled[b.BookingNo]; ok {
		h.cancelled[b.BookingNo] += ",dup"
		return
	}
	h.cancelled[b.BookingNo] = reason
}

type fixture struct {
	db           *gorm.DB
	bookings     *repository.BookingRepository
	roomTypes    *repository.RoomTypeRepository
	holidays     *repository.HolidayRepository
	settings     *repository.SettingRepository
	addons       *repository.AddonRepository
	service      *BookingService
	lifecycle    *LifecycleService
	availability *AvailabilityService
	reminders    *ReminderService
	metrics      *metrics.Metrics
	hook         *recordingHook
	deluxe       *models.RoomType
	family       *models.RoomType
	now          time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Second)
		},
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	f := &fixture{
		db:        db,
		bookings:  repository.NewBookingRepository(db),
		roomTypes: repository.NewRoomTypeRepository(db),
		holidays:  repository.NewHolidayRepository(db),
		settings:  repository.NewSettingRepository(db),
		addons:    repository.NewAddonRepository(db),
		metrics:   metrics.New("test"),
		hook:      newRecordingHook(),
		now:       testNow,
	}

	ctx := context.Background()
	f.deluxe = &models.RoomType{Code: "deluxe", Name: "Deluxe", BasePrice: 2000, HolidaySurcharge: 500, MaxOccupancy: 2, IsActive: true}
	f.family = &models.RoomType{Code: "family", Name: "Family", BasePrice: 3000, HolidaySurcharge: 800, MaxOccupancy: 4, ExtraBeds: 1, IsActive: true}
	require.NoError(t, f.roomTypes.Create(ctx, f.deluxe))
	require.NoError(t, f.roomTypes.Create(ctx, f.family))
	require.NoError(t, f.addons.Create(ctx, &models.Addon{Code: "breakfast", Name: "早餐", Price: 300, IsActive: true}))
	require.NoError(t, f.addons.Create(ctx, &models.Addon{Code: "bbq", Name: "烤肉组", Price: 800, IsActive: true}))

	cfg := config.BookingConfig{Timezone: "Asia/Taipei", DepositPercentage: 30, DaysReserved: 3, MaxNights: 30, PublicBaseURL: "https://stay.example.com"}
	clock := func() time.Time { return f.now }

	f.availability = NewAvailabilityService(f.bookings, f.roomTypes)
	f.service = NewBookingService(
		f.roomTypes, f.addons, f.bookings,
		NewCalendarLoader(f.holidays, f.settings),
		NewSettingsReader(f.settings, cfg),
		f.availability, f.metrics, cfg, f.hook,
	)
	f.service.now = clock
	f.lifecycle = NewLifecycleService(f.bookings, f.metrics, f.hook)
	f.lifecycle.now = clock
	f.reminders = NewReminderService(f.bookings, cfg.Location(), 24*time.Hour)
	return f
}

func (f *fixture) request(roomTypeID int64, checkIn, checkOut, method string) *CreateBookingRequest {
	return &CreateBookingRequest{
		QuoteRequest: QuoteRequest{
			RoomTypeID:        roomTypeID,
			CheckIn:           checkIn,
			CheckOut:          checkOut,
			PaymentAmountType: models.PaymentAmountFull,
		},
		GuestName:     "王小明",
		GuestPhone:    "0912345678",
		GuestEmail:    "Guest@Example.com",
		Adults:        2,
		PaymentMethod: method,
	}
}

func (f *fixture) mustCreate(t *testing.T, req *CreateBookingRequest) *models.Booking {
	b, err := f.service.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	return b
}

// counterValue 从 Registry 读取计数器的值
func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}
