package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

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

func newTestBooking(no string, roomTypeID int64, checkIn, checkOut, status string) *models.Booking {
	return &models.Booking{
		BookingNo:         no,
		RoomTypeID:        roomTypeID,
		RoomTypeName:      "豪华双人房",
		CheckInDate:       checkIn,
		CheckOutDate:      checkOut,
		Nights:            2,
		Adults:            2,
		GuestName:         "王小明",
		GuestPhone:        "0912345678",
		GuestEmail:        "guest@example.com",
		PaymentMethod:     models.PaymentMethodTransfer,
		PaymentAmountType: models.PaymentAmountFull,
		TotalAmount:       4000,
		FinalAmount:       4000,
		AmountDue:         4000,
		Status:            status,
		PaymentStatus:     models.PaymentStatusPending,
	}
}
