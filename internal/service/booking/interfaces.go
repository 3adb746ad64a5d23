// Package booking 提供订房核心：假日判定、房价计算、空房检查与订单生命周期
package booking

import (
	"context"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// RoomTypeStore 房型读取
type RoomTypeStore interface {
	GetByID(ctx context.Context, id int64) (*models.RoomType, error)
	ListActive(ctx context.Context) ([]*models.RoomType, error)
}

// HolidayStore 假日读取
type HolidayStore interface {
	List(ctx context.Context) ([]*models.Holiday, error)
}

// SettingStore 系统设定读取
type SettingStore interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
}

// AddonStore 加购项目读取
type AddonStore interface {
	GetByCodes(ctx context.Context, codes []string) ([]*models.Addon, error)
}

// BookingStore 订单持久化
type BookingStore interface {
	CreateWithNights(ctx context.Context, booking *models.Booking, nights []string) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetByBookingNo(ctx context.Context, bookingNo string) (*models.Booking, error)
	List(ctx context.Context, offset, limit int, filters *repository.BookingListFilters) ([]*models.Booking, int64, error)
	ListOverlapping(ctx context.Context, roomTypeID int64, roomTypeName, checkIn, checkOut string) ([]*models.Booking, error)
	ListOccupyingBetween(ctx context.Context, checkIn, checkOut string) ([]*models.Booking, error)
	ListReservedExpired(ctx context.Context, now time.Time, limit int) ([]*models.Booking, error)
	CompareAndSetStatus(ctx context.Context, id int64, from, to repository.StatePair, fields map[string]interface{}) (bool, error)
	ListByGuestEmail(ctx context.Context, email string) ([]*models.Booking, error)
	Anonymize(ctx context.Context, email string, scrub repository.AnonymizeFunc) (int64, error)
	HardDelete(ctx context.Context, id int64) (bool, error)
	CreateEmailLog(ctx context.Context, bookingID int64, templateKey string, sentAt time.Time) (bool, error)
	ListEmailLogs(ctx context.Context, bookingID int64) ([]*models.BookingEmailLog, error)
	ListDeadlineBetween(ctx context.Context, from, to time.Time, templateKey string) ([]*models.Booking, error)
	ListActiveByCheckIn(ctx context.Context, date, templateKey string) ([]*models.Booking, error)
	ListActiveByCheckOut(ctx context.Context, date, templateKey string) ([]*models.Booking, error)
}

// EventHook 订单事件钩子，只在状态实际变更时触发
type EventHook interface {
	OnBookingCreated(ctx context.Context, booking *models.Booking)
	OnPaymentConfirmed(ctx context.Context, booking *models.Booking)
	OnBookingCancelled(ctx context.Context, booking *models.Booking, reason string)
}

var (
	_ RoomTypeStore = (*repository.RoomTypeRepository)(nil)
	_ HolidayStore  = (*repository.HolidayRepository)(nil)
	_ SettingStore  = (*repository.SettingRepository)(nil)
	_ AddonStore    = (*repository.AddonRepository)(nil)
	_ BookingStore  = (*repository.BookingRepository)(nil)
)
