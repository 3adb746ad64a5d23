package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	"github.com/dumeirei/homestay-booking-backend/internal/service/booking"
)

var taipei = time.FixedZone("CST", 8*3600)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func insertBooking(t *testing.T, db *gorm.DB, no string, rt *models.RoomType, in, out, email, status, payment string, amount int64) *models.Booking {
	t.Helper()
	b := &models.Booking{
		BookingNo:         no,
		RoomTypeName:      "旧房型",
		CheckInDate:       in,
		CheckOutDate:      out,
		Nights:            1,
		Adults:            2,
		GuestName:         "王小明",
		GuestPhone:        "0912345678",
		GuestEmail:        email,
		PaymentMethod:     models.PaymentMethodCard,
		PaymentAmountType: models.PaymentAmountFull,
		TotalAmount:       amount,
		FinalAmount:       amount,
		AmountDue:         amount,
		Status:            status,
		PaymentStatus:     payment,
	}
	if rt != nil {
		b.RoomTypeID = rt.ID
		b.RoomTypeName = rt.Name
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestRoomTypeService(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	svc := NewRoomTypeService(repository.NewRoomTypeRepository(db), repository.NewBookingRepository(db))

	deluxe, err := svc.Create(ctx, &CreateRoomTypeRequest{Code: "deluxe", Name: "豪华双人房", BasePrice: 2000, HolidaySurcharge: 500, MaxOccupancy: 2})
	require.NoError(t, err)
	assert.True(t, deluxe.IsActive)

	t.Run("代码重复", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateRoomTypeRequest{Code: "deluxe", Name: "另一间", MaxOccupancy: 2})
		assert.ErrorIs(t, err, errors.ErrAlreadyExists)
	})

	t.Run("参数校验", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateRoomTypeRequest{Code: "x", Name: "x", BasePrice: -1, MaxOccupancy: 2})
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})

	t.Run("假日折价", func(t *testing.T) {
		offPeak, err := svc.Create(ctx, &CreateRoomTypeRequest{Code: "offpeak", Name: "淡季房", BasePrice: 1800, HolidaySurcharge: -300, MaxOccupancy: 2})
		require.NoError(t, err)
		assert.EqualValues(t, -300, offPeak.HolidaySurcharge)

		// 2025-03-07 周五为平日，03-08 周六为假日
		cal := booking.NewCalendar(nil, []int{1, 2, 3, 4, 5})
		stay, err := booking.PriceForStay(cal, offPeak,
			time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, stay.NightlyRates, 2)
		assert.EqualValues(t, 1800, stay.NightlyRates[0].Rate)
		assert.EqualValues(t, 1500, stay.NightlyRates[1].Rate)
		assert.EqualValues(t, 3300, stay.TotalAmount)

		_, err = svc.Create(ctx, &CreateRoomTypeRequest{Code: "broken", Name: "错误房", BasePrice: 200, HolidaySurcharge: -300, MaxOccupancy: 2})
		assert.ErrorIs(t, err, errors.ErrInvalidParams)

		deeper := int64(-2000)
		_, err = svc.Update(ctx, offPeak.ID, &UpdateRoomTypeRequest{HolidaySurcharge: &deeper})
		assert.ErrorIs(t, err, errors.ErrInvalidParams)

		_, err = svc.Delete(ctx, offPeak.ID)
		require.NoError(t, err)
	})

	t.Run("更新", func(t *testing.T) {
		price := int64(2200)
		beds := 1
		updated, err := svc.Update(ctx, deluxe.ID, &UpdateRoomTypeRequest{BasePrice: &price, ExtraBeds: &beds})
		require.NoError(t, err)
		assert.EqualValues(t, 2200, updated.BasePrice)
		assert.Equal(t, 3, updated.MaxGuests())
		assert.Equal(t, "豪华双人房", updated.Name)

		_, err = svc.Update(ctx, 999, &UpdateRoomTypeRequest{BasePrice: &price})
		assert.ErrorIs(t, err, errors.ErrRoomTypeNotFound)
	})

	t.Run("无订单时物理删除", func(t *testing.T) {
		spare, err := svc.Create(ctx, &CreateRoomTypeRequest{Code: "spare", Name: "备用房", MaxOccupancy: 2})
		require.NoError(t, err)
		hard, err := svc.Delete(ctx, spare.ID)
		require.NoError(t, err)
		assert.True(t, hard)
		_, err = svc.Get(ctx, spare.ID)
		assert.ErrorIs(t, err, errors.ErrRoomTypeNotFound)
	})

	t.Run("有订单时停售", func(t *testing.T) {
		insertBooking(t, db, "BK1", deluxe, "2025-03-10", "2025-03-11", "a@example.com", models.BookingStatusActive, models.PaymentStatusPaid, 2000)
		hard, err := svc.Delete(ctx, deluxe.ID)
		require.NoError(t, err)
		assert.False(t, hard)

		got, err := svc.Get(ctx, deluxe.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		active, err := svc.List(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("历史订单以名称引用", func(t *testing.T) {
		legacy, err := svc.Create(ctx, &CreateRoomTypeRequest{Code: "legacy", Name: "旧房型", MaxOccupancy: 2})
		require.NoError(t, err)
		insertBooking(t, db, "BK2", nil, "2024-01-10", "2024-01-11", "b@example.com", models.BookingStatusCancelled, models.PaymentStatusPending, 1000)
		hard, err := svc.Delete(ctx, legacy.ID)
		require.NoError(t, err)
		assert.False(t, hard)
	})
}

func TestAddonService(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	svc := NewAddonService(repository.NewAddonRepository(db))

	addon, err := svc.Create(ctx, &CreateAddonRequest{Code: " Breakfast ", Name: "早餐", Price: 300})
	require.NoError(t, err)
	assert.Equal(t, "breakfast", addon.Code)

	_, err = svc.Create(ctx, &CreateAddonRequest{Code: "breakfast", Name: "早餐", Price: 300})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	price := int64(350)
	updated, err := svc.Update(ctx, addon.ID, &UpdateAddonRequest{Price: &price})
	require.NoError(t, err)
	assert.EqualValues(t, 350, updated.Price)

	require.NoError(t, svc.Delete(ctx, addon.ID))
	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Purge(ctx, addon.ID))
	assert.ErrorIs(t, svc.Purge(ctx, addon.ID), errors.ErrAddonNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, addon.ID), errors.ErrAddonNotFound)
}

func TestHolidayService(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	holidays := repository.NewHolidayRepository(db)
	settings := repository.NewSettingRepository(db)
	svc := NewHolidayService(holidays, settings)

	h, err := svc.AddHoliday(ctx, &AddHolidayRequest{Date: "2025-04-04", Name: "儿童节"})
	require.NoError(t, err)

	_, err = svc.AddHoliday(ctx, &AddHolidayRequest{Date: "2025-04-04", Name: "重复"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	_, err = svc.AddHoliday(ctx, &AddHolidayRequest{Date: "2025/04/05", Name: "格式"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	res, err := svc.AddRange(ctx, &AddRangeRequest{From: "2025-04-03", To: "2025-04-06", Name: "连假"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Created)
	assert.EqualValues(t, 1, res.Skipped)

	_, err = svc.AddRange(ctx, &AddRangeRequest{From: "2025-04-06", To: "2025-04-03", Name: "反向"})
	assert.ErrorIs(t, err, errors.ErrInvalidDateRange)

	t.Run("周末记录", func(t *testing.T) {
		// 2025-03-01 至 03-09：周六日为 1、2、8、9 日
		res, err := svc.GenerateWeekends(ctx, "2025-03-01", "2025-03-09")
		require.NoError(t, err)
		assert.EqualValues(t, 4, res.Created)

		_, err = svc.UpdateWeekdaySettings(ctx, []int{0, 1, 2, 3, 4})
		require.NoError(t, err)
		res, err = svc.GenerateWeekends(ctx, "2025-03-01", "2025-03-09")
		require.NoError(t, err)
		assert.EqualValues(t, 4, res.Removed)
		assert.EqualValues(t, 3, res.Created, "周五、周六为非平日")

		list, err := svc.List(ctx, "2025-03-01", "2025-03-09")
		require.NoError(t, err)
		dates := make([]string, 0, len(list))
		for _, h := range list {
			dates = append(dates, h.Date)
		}
		assert.Equal(t, []string{"2025-03-01", "2025-03-07", "2025-03-08"}, dates)

		err = svc.DeleteHoliday(ctx, list[0].ID)
		assert.ErrorIs(t, err, errors.ErrInvalidParams)

		// 周末记录不影响计价判定
		cal, err := booking.NewCalendarLoader(holidays, settings).Load(ctx)
		require.NoError(t, err)
		assert.False(t, cal.IsManualHoliday(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("周末改为假日", func(t *testing.T) {
		converted, err := svc.AddHoliday(ctx, &AddHolidayRequest{Date: "2025-03-08", Name: "补假"})
		require.NoError(t, err)
		assert.False(t, converted.IsWeekend)
		assert.Equal(t, "补假", converted.Name)

		_, err = svc.AddHoliday(ctx, &AddHolidayRequest{Date: "2025-03-08", Name: "重复"})
		assert.ErrorIs(t, err, errors.ErrAlreadyExists)

		// 重建周末记录不影响已改为假日的日期
		res, err := svc.GenerateWeekends(ctx, "2025-03-01", "2025-03-09")
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.Removed)
		assert.EqualValues(t, 2, res.Created)
		assert.EqualValues(t, 1, res.Skipped)

		list, err := svc.List(ctx, "2025-03-08", "2025-03-08")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.False(t, list[0].IsWeekend)

		cal, err := booking.NewCalendarLoader(holidays, settings).Load(ctx)
		require.NoError(t, err)
		assert.True(t, cal.IsManualHoliday(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)))

		require.NoError(t, svc.DeleteHoliday(ctx, converted.ID))
	})

	require.NoError(t, svc.DeleteHoliday(ctx, h.ID))
	assert.ErrorIs(t, svc.DeleteHoliday(ctx, h.ID), errors.ErrHolidayNotFound)
}

func TestHolidayService_WeekdaySettings(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	settings := repository.NewSettingRepository(db)
	svc := NewHolidayService(repository.NewHolidayRepository(db), settings)

	days, err := svc.GetWeekdaySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, days)

	days, err = svc.UpdateWeekdaySettings(ctx, []int{5, 1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 5}, days)

	stored, err := settings.Get(ctx, models.SettingWeekdays)
	require.NoError(t, err)
	assert.JSONEq(t, `{"weekdays":[0,1,5]}`, stored.Value)

	_, err = svc.UpdateWeekdaySettings(ctx, []int{7})
	assert.ErrorIs(t, err, errors.ErrSettingInvalid)
	_, err = svc.UpdateWeekdaySettings(ctx, []int{})
	assert.ErrorIs(t, err, errors.ErrSettingInvalid)

	require.NoError(t, settings.Upsert(ctx, &models.Setting{Key: models.SettingWeekdays, Value: "not json"}))
	days, err = svc.GetWeekdaySettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, days)
}

func TestSettingService(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	repo := repository.NewSettingRepository(db)
	svc := NewSettingService(repo, booking.NewSettingsReader(repo, config.BookingConfig{DepositPercentage: 30, DaysReserved: 3}))

	n, err := svc.SeedDefaults(ctx, 30, 3)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSettings(30, 3)), n)
	n, err = svc.SeedDefaults(ctx, 50, 5)
	require.NoError(t, err)
	assert.Zero(t, n, "不覆盖既有设定")

	pct, err := svc.GetDepositPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, pct)

	tests := []struct {
		name  string
		key   string
		value string
		ok    bool
	}{
		{"订金比例", models.SettingDepositPercentage, "50", true},
		{"订金比例超出", models.SettingDepositPercentage, "101", false},
		{"保留天数非数字", models.SettingDaysReserved, "three", false},
		{"平日设定数组", models.SettingWeekdays, "[1,2,3]", true},
		{"平日设定越界", models.SettingWeekdays, "[8]", false},
		{"自由键", models.SettingBankName, "台湾银行", true},
		{"空键", " ", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Set(ctx, tt.key, &SetSettingRequest{Value: tt.value})
			assert.Equal(t, tt.ok, err == nil, err)
		})
	}

	pct, err = svc.GetDepositPercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, pct)

	weekdays, err := svc.Get(ctx, models.SettingWeekdays)
	require.NoError(t, err)
	assert.JSONEq(t, `{"weekdays":[1,2,3]}`, weekdays.Value)

	info, err := svc.BankTransferInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "台湾银行", info.BankName)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestEmailTemplateService(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	bookings := repository.NewBookingRepository(db)
	svc := NewEmailTemplateService(repository.NewEmailTemplateRepository(db), bookings, taipei)

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 7)

	preview, err := svc.Render(ctx, models.TemplateBookingConfirmation, "")
	require.NoError(t, err)
	assert.Contains(t, preview.Subject, "BK20250301120000ABCD")
	assert.Contains(t, preview.Body, "2025-03-04 12:00")

	insertBooking(t, db, "BKREAL", nil, "2025-05-01", "2025-05-02", "c@example.com", models.BookingStatusActive, models.PaymentStatusPaid, 1800)
	preview, err = svc.Render(ctx, models.TemplateCheckinReminder, "BKREAL")
	require.NoError(t, err)
	assert.Contains(t, preview.Body, "2025-05-01")

	_, err = svc.Render(ctx, models.TemplateCheckinReminder, "BKNONE")
	assert.ErrorIs(t, err, errors.ErrBookingNotFound)

	subject := "入住提醒 {{.CheckInDate}}"
	disabled := false
	tpl, err := svc.Update(ctx, models.TemplateCheckinReminder, &UpdateTemplateRequest{Subject: &subject, IsEnabled: &disabled})
	require.NoError(t, err)
	assert.False(t, tpl.IsEnabled)

	broken := "{{.Unknown}}"
	_, err = svc.Update(ctx, models.TemplateCheckinReminder, &UpdateTemplateRequest{Body: &broken})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	stored, err := svc.Get(ctx, models.TemplateCheckinReminder)
	require.NoError(t, err)
	assert.Equal(t, subject, stored.Subject)
	assert.NotEqual(t, broken, stored.Body)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, errors.ErrTemplateNotFound)
}

func TestCustomerAndDashboard(t *testing.T) {
	db := setupAdminTestDB(t)
	ctx := context.Background()
	bookings := repository.NewBookingRepository(db)

	insertBooking(t, db, "BKA1", nil, "2025-03-10", "2025-03-11", "a@example.com", models.BookingStatusActive, models.PaymentStatusPaid, 2000)
	insertBooking(t, db, "BKA2", nil, "2025-03-12", "2025-03-13", "a@example.com", models.BookingStatusActive, models.PaymentStatusPaid, 3000)
	insertBooking(t, db, "BKB1", nil, "2025-03-11", "2025-03-12", "b@example.com", models.BookingStatusReserved, models.PaymentStatusPending, 2500)
	insertBooking(t, db, "BKC1", nil, "2025-03-10", "2025-03-11", "c@example.com", models.BookingStatusCancelled, models.PaymentStatusPending, 1500)

	customers := NewCustomerService(bookings)
	list, total, err := customers.ListCustomers(ctx, "", &utils.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.NotEmpty(t, list)
	assert.Equal(t, "a@example.com", list[0].GuestEmail)
	assert.EqualValues(t, 2, list[0].BookingCount)
	assert.EqualValues(t, 5000, list[0].TotalSpent)

	own, err := customers.CustomerBookings(ctx, " A@Example.com ")
	require.NoError(t, err)
	assert.Len(t, own, 2)

	dash := NewDashboardService(bookings, taipei)
	// 台北时间 2025-03-10 08:00
	ov, err := dash.GetOverview(ctx, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", ov.Date)
	assert.EqualValues(t, 1, ov.TodayCheckIns)
	assert.EqualValues(t, 0, ov.TodayCheckOuts)
	assert.EqualValues(t, 2, ov.StatusCounts[models.BookingStatusActive])
	assert.EqualValues(t, 5000, ov.MonthRevenue)
}
