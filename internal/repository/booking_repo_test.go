package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

func TestBookingRepository_CreateWithNights(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	first := newTestBooking("BK001", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	require.NoError(t, repo.CreateWithNights(ctx, first, []string{"2025-03-10", "2025-03-11"}))
	assert.NotZero(t, first.ID)

	var nights int64
	db.Model(&models.BookingNight{}).Where("booking_id = ?", first.ID).Count(&nights)
	assert.EqualValues(t, 2, nights)

	t.Run("重叠区间被拒绝", func(t *testing.T) {
		overlap := newTestBooking("BK002", 1, "2025-03-11", "2025-03-13", models.BookingStatusReserved)
		err := repo.CreateWithNights(ctx, overlap, []string{"2025-03-11", "2025-03-12"})
		assert.ErrorIs(t, err, ErrNightTaken)

		var count int64
		db.Model(&models.Booking{}).Where("booking_no = ?", "BK002").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("退房日入住不冲突", func(t *testing.T) {
		next := newTestBooking("BK003", 1, "2025-03-12", "2025-03-14", models.BookingStatusReserved)
		require.NoError(t, repo.CreateWithNights(ctx, next, []string{"2025-03-12", "2025-03-13"}))
	})

	t.Run("其他房型不受影响", func(t *testing.T) {
		other := newTestBooking("BK004", 2, "2025-03-10", "2025-03-12", models.BookingStatusActive)
		other.RoomTypeName = "家庭四人房"
		require.NoError(t, repo.CreateWithNights(ctx, other, []string{"2025-03-10", "2025-03-11"}))
	})

	t.Run("订单编号重复", func(t *testing.T) {
		dup := newTestBooking("BK001", 3, "2025-04-01", "2025-04-02", models.BookingStatusActive)
		dup.RoomTypeName = "经济单人房"
		err := repo.CreateWithNights(ctx, dup, []string{"2025-04-01"})
		assert.ErrorIs(t, err, ErrDuplicateBookingNo)
	})
}

func TestBookingRepository_CreateWithNights_UniqueNightGuard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	// 模拟另一事务已写入房晚但订单行不可见的情况
	require.NoError(t, db.Create(&models.BookingNight{BookingID: 99, RoomTypeID: 1, NightDate: "2025-03-11"}).Error)

	b := newTestBooking("BK010", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	err := repo.CreateWithNights(ctx, b, []string{"2025-03-10", "2025-03-11"})
	assert.ErrorIs(t, err, ErrNightTaken)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Zero(t, count, "事务应整体回滚")
}

func TestBookingRepository_CreateWithNights_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newTestBooking("BKC"+string(rune('A'+i)), 1, "2025-05-01", "2025-05-03", models.BookingStatusReserved)
			errs[i] = repo.CreateWithNights(ctx, b, []string{"2025-05-01", "2025-05-02"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrNightTaken)
	}
	assert.Equal(t, 1, succeeded)
}

func TestBookingRepository_LegacyRowsMatchByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	legacy := newTestBooking("BKLEGACY", 0, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	require.NoError(t, db.Create(legacy).Error)

	found, err := repo.ListOverlapping(ctx, 1, "豪华双人房", "2025-03-11", "2025-03-13")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "BKLEGACY", found[0].BookingNo)

	found, err = repo.ListOverlapping(ctx, 2, "家庭四人房", "2025-03-11", "2025-03-13")
	require.NoError(t, err)
	assert.Empty(t, found)

	b := newTestBooking("BKNEW", 1, "2025-03-11", "2025-03-12", models.BookingStatusActive)
	assert.ErrorIs(t, repo.CreateWithNights(ctx, b, []string{"2025-03-11"}), ErrNightTaken)

	count, err := repo.CountByRoomType(ctx, 1, "豪华双人房")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestBookingRepository_ListOverlapping_IgnoresReleasedStatuses(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	for i, status := range []string{models.BookingStatusCancelled, models.BookingStatusDeleted, models.BookingStatusReserved} {
		b := newTestBooking("BKS"+string(rune('0'+i)), 1, "2025-03-10", "2025-03-12", status)
		require.NoError(t, db.Create(b).Error)
	}

	found, err := repo.ListOverlapping(ctx, 1, "豪华双人房", "2025-03-10", "2025-03-11")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.BookingStatusReserved, found[0].Status)

	all, err := repo.ListOccupyingBetween(ctx, "2025-03-11", "2025-03-12")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBookingRepository_ListReservedExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	now := time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC)

	due := newTestBooking("BKDUE", 1, "2025-03-20", "2025-03-22", models.BookingStatusReserved)
	due.PaymentDeadline = &now
	require.NoError(t, db.Create(due).Error)

	later := now.Add(time.Second)
	notYet := newTestBooking("BKLATER", 2, "2025-03-20", "2025-03-22", models.BookingStatusReserved)
	notYet.PaymentDeadline = &later
	require.NoError(t, db.Create(notYet).Error)

	paid := newTestBooking("BKPAID", 3, "2025-03-20", "2025-03-22", models.BookingStatusReserved)
	paid.PaymentStatus = models.PaymentStatusPaid
	paid.PaymentDeadline = &now
	require.NoError(t, db.Create(paid).Error)

	found, err := repo.ListReservedExpired(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "BKDUE", found[0].BookingNo)

	found, err = repo.ListReservedExpired(ctx, later, 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.ListReservedExpired(ctx, later, 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestBookingRepository_CompareAndSetStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	b := newTestBooking("BKCAS", 1, "2025-03-10", "2025-03-12", models.BookingStatusReserved)
	require.NoError(t, repo.CreateWithNights(ctx, b, []string{"2025-03-10", "2025-03-11"}))

	from := StateOf(b)
	paidAt := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	ok, err := repo.CompareAndSetStatus(ctx, b.ID, from,
		StatePair{Status: models.BookingStatusActive, PaymentStatus: models.PaymentStatusPaid},
		map[string]interface{}{"paid_at": paidAt})
	require.NoError(t, err)
	assert.True(t, ok)

	// 旧状态已失效，第二次不会更新
	ok, err = repo.CompareAndSetStatus(ctx, b.ID, from,
		StatePair{Status: models.BookingStatusCancelled, PaymentStatus: models.PaymentStatusPending}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))

	var nights int64
	db.Model(&models.BookingNight{}).Where("booking_id = ?", b.ID).Count(&nights)
	assert.EqualValues(t, 2, nights)

	ok, err = repo.CompareAndSetStatus(ctx, b.ID, StateOf(got),
		StatePair{Status: models.BookingStatusCancelled, PaymentStatus: models.PaymentStatusPaid},
		map[string]interface{}{"cancel_reason": models.CancelReasonAdmin})
	require.NoError(t, err)
	assert.True(t, ok)

	db.Model(&models.BookingNight{}).Where("booking_id = ?", b.ID).Count(&nights)
	assert.Zero(t, nights, "取消后释放房晚")

	again := newTestBooking("BKAGAIN", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	require.NoError(t, repo.CreateWithNights(ctx, again, []string{"2025-03-10", "2025-03-11"}))
}

func TestBookingRepository_GetAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	a := newTestBooking("BKLIST1", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	b := newTestBooking("BKLIST2", 2, "2025-04-10", "2025-04-12", models.BookingStatusReserved)
	b.GuestName = "陈美玲"
	b.GuestEmail = "mei@example.com"
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	got, err := repo.GetByBookingNo(ctx, "BKLIST2")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = repo.GetByBookingNo(ctx, "NOPE")
	assert.True(t, IsNotFound(err))

	tests := []struct {
		name    string
		filters *BookingListFilters
		want    int64
	}{
		{"无筛选", nil, 2},
		{"按状态", &BookingListFilters{Status: models.BookingStatusReserved}, 1},
		{"按房型", &BookingListFilters{RoomTypeID: 1}, 1},
		{"关键字", &BookingListFilters{Keyword: "陈美"}, 1},
		{"入住日期区间", &BookingListFilters{CheckInFrom: "2025-04-01", CheckInTo: "2025-04-30"}, 1},
		{"付款状态", &BookingListFilters{PaymentStatus: models.PaymentStatusPaid}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := repo.List(ctx, 0, 10, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, list, int(tt.want))
		})
	}

	byEmail, err := repo.ListByGuestEmail(ctx, "MEI@example.com")
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
}

func TestBookingRepository_Anonymize(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	a := newTestBooking("BKANON1", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	require.NoError(t, repo.CreateWithNights(ctx, a, []string{"2025-03-10", "2025-03-11"}))
	c := newTestBooking("BKANON2", 2, "2025-01-10", "2025-01-12", models.BookingStatusCancelled)
	require.NoError(t, db.Create(c).Error)
	other := newTestBooking("BKKEEP", 3, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	other.GuestEmail = "keep@example.com"
	require.NoError(t, db.Create(other).Error)

	n, err := repo.Anonymize(ctx, "guest@example.com", func(b *models.Booking) map[string]interface{} {
		return map[string]interface{}{
			"guest_name":  "已删除",
			"guest_phone": "",
			"guest_email": "deleted+" + b.BookingNo + "@anonymized.invalid",
		}
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := repo.ListByGuestEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.Empty(t, left)

	got, err := repo.GetByBookingNo(ctx, "BKANON1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusDeleted, got.Status)
	assert.Equal(t, "已删除", got.GuestName)
	assert.Equal(t, int64(4000), got.TotalAmount)

	var nights int64
	db.Model(&models.BookingNight{}).Count(&nights)
	assert.Zero(t, nights)

	kept, err := repo.GetByBookingNo(ctx, "BKKEEP")
	require.NoError(t, err)
	assert.Equal(t, "keep@example.com", kept.GuestEmail)
}

func TestBookingRepository_HardDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	active := newTestBooking("BKACT", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	cancelled := newTestBooking("BKCAN", 2, "2025-03-10", "2025-03-12", models.BookingStatusCancelled)
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(cancelled).Error)
	_, err := repo.CreateEmailLog(ctx, cancelled.ID, models.TemplateCancelNotice, time.Now().UTC())
	require.NoError(t, err)

	ok, err := repo.HardDelete(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HardDelete(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, cancelled.ID)
	assert.True(t, IsNotFound(err))

	logs, err := repo.ListEmailLogs(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestBookingRepository_EmailLogs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	sentAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	created, err := repo.CreateEmailLog(ctx, 1, models.TemplatePaymentReminder, sentAt)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateEmailLog(ctx, 1, models.TemplatePaymentReminder, sentAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created, "同一模板只记录一次")

	created, err = repo.CreateEmailLog(ctx, 1, models.TemplateCheckinReminder, sentAt.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, created)

	logs, err := repo.ListEmailLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.TemplatePaymentReminder, logs[0].TemplateKey)

	require.NoError(t, repo.DeleteEmailLog(ctx, 1, models.TemplatePaymentReminder))
	created, err = repo.CreateEmailLog(ctx, 1, models.TemplatePaymentReminder, sentAt)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestBookingRepository_ReminderQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	soon := now.Add(6 * time.Hour)
	far := now.Add(48 * time.Hour)

	r1 := newTestBooking("BKR1", 1, "2025-03-20", "2025-03-22", models.BookingStatusReserved)
	r1.PaymentDeadline = &soon
	r2 := newTestBooking("BKR2", 2, "2025-03-20", "2025-03-22", models.BookingStatusReserved)
	r2.PaymentDeadline = &far
	a1 := newTestBooking("BKA1", 3, "2025-03-11", "2025-03-13", models.BookingStatusActive)
	a2 := newTestBooking("BKA2", 4, "2025-03-07", "2025-03-09", models.BookingStatusActive)
	for _, b := range []*models.Booking{r1, r2, a1, a2} {
		require.NoError(t, db.Create(b).Error)
	}

	due, err := repo.ListDeadlineBetween(ctx, now, now.Add(24*time.Hour), models.TemplatePaymentReminder)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "BKR1", due[0].BookingNo)

	checkins, err := repo.ListActiveByCheckIn(ctx, "2025-03-11", models.TemplateCheckinReminder)
	require.NoError(t, err)
	require.Len(t, checkins, 1)
	assert.Equal(t, "BKA1", checkins[0].BookingNo)

	checkouts, err := repo.ListActiveByCheckOut(ctx, "2025-03-09", models.TemplateFeedbackRequest)
	require.NoError(t, err)
	require.Len(t, checkouts, 1)

	_, err = repo.CreateEmailLog(ctx, r1.ID, models.TemplatePaymentReminder, now)
	require.NoError(t, err)
	due, err = repo.ListDeadlineBetween(ctx, now, now.Add(24*time.Hour), models.TemplatePaymentReminder)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestBookingRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	a := newTestBooking("BKST1", 1, "2025-03-10", "2025-03-12", models.BookingStatusActive)
	a.PaymentStatus = models.PaymentStatusPaid
	b := newTestBooking("BKST2", 2, "2025-03-10", "2025-03-11", models.BookingStatusActive)
	b.PaymentStatus = models.PaymentStatusPaid
	b.AmountDue = 1500
	c := newTestBooking("BKST3", 3, "2025-03-12", "2025-03-14", models.BookingStatusReserved)
	c.GuestEmail = "other@example.com"
	c.GuestName = "林大华"
	d := newTestBooking("BKST4", 3, "2025-02-01", "2025-02-02", models.BookingStatusDeleted)
	d.GuestEmail = "gone@anonymized.invalid"
	for _, bk := range []*models.Booking{a, b, c, d} {
		require.NoError(t, db.Create(bk).Error)
	}

	customers, total, err := repo.ListCustomers(ctx, 0, 10, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, customers, 2)
	assert.Equal(t, "guest@example.com", customers[0].GuestEmail)
	assert.EqualValues(t, 2, customers[0].BookingCount)
	assert.EqualValues(t, 5500, customers[0].TotalSpent)
	assert.EqualValues(t, 0, customers[1].TotalSpent)

	customers, total, err = repo.ListCustomers(ctx, 0, 10, "林大")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, customers, 1)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	byStatus := map[string]int64{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	assert.EqualValues(t, 2, byStatus[models.BookingStatusActive])
	assert.EqualValues(t, 1, byStatus[models.BookingStatusReserved])

	n, err := repo.CountActiveCheckIns(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.CountActiveCheckOuts(ctx, "2025-03-12")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revenue, err := repo.SumPaidRevenue(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.EqualValues(t, 5500, revenue)
}
