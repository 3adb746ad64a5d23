package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// BookingRepository 订单仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建订单仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookingListFilters 订单列表筛选条件
type BookingListFilters struct {
	Status        string
	PaymentStatus string
	RoomTypeID    int64
	Keyword       string
	CheckInFrom   string
	CheckInTo     string
}

// StatePair 订单的 (status, payment_status) 组合
type StatePair struct {
	Status        string
	PaymentStatus string
}

// String 输出 status/payment_status
func (p StatePair) String() string {
	return fmt.Sprintf("%s/%s", p.Status, p.PaymentStatus)
}

// StateOf 取订单当前状态组合
func StateOf(b *models.Booking) StatePair {
	return StatePair{Status: b.Status, PaymentStatus: b.PaymentStatus}
}

// overlapping 与 [checkIn, checkOut) 重叠且占用房晚的订单
// 历史订单 room_type_id 为 0，只能用房型名称匹配
func overlapping(roomTypeID int64, roomTypeName, checkIn, checkOut string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
			Where("status IN ?", models.OccupyingStatuses)
		if roomTypeID > 0 {
			return db.Where("(room_type_id = ? OR (room_type_id = 0 AND room_type_name = ?))", roomTypeID, roomTypeName)
		}
		return db.Where("room_type_name = ?", roomTypeName)
	}
}

// CreateWithNights 在同一事务内复查重叠订单、写入订单及其房晚
// 重叠或房晚唯一约束冲突时返回 ErrNightTaken，订单编号重复时返回 ErrDuplicateBookingNo
func (r *BookingRepository) CreateWithNights(ctx context.Context, booking *models.Booking, nights []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Booking{}).
			Scopes(overlapping(booking.RoomTypeID, booking.RoomTypeName, booking.CheckInDate, booking.CheckOutDate)).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrNightTaken
		}

		if err := tx.Create(booking).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicateBookingNo
			}
			return err
		}

		if booking.RoomTypeID == 0 || len(nights) == 0 {
			return nil
		}
		rows := make([]*models.BookingNight, 0, len(nights))
		for _, night := range nights {
			rows = append(rows, &models.BookingNight{
				BookingID:  booking.ID,
				RoomTypeID: booking.RoomTypeID,
				NightDate:  night,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrNightTaken
			}
			return err
		}
		return nil
	})
}

// GetByID 根据 ID 获取订单
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByBookingNo 根据订单编号获取订单
func (r *BookingRepository) GetByBookingNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("booking_no = ?", bookingNo).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// List 分页获取订单列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters *BookingListFilters) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filters != nil {
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.PaymentStatus != "" {
			query = query.Where("payment_status = ?", filters.PaymentStatus)
		}
		if filters.RoomTypeID > 0 {
			query = query.Where("room_type_id = ?", filters.RoomTypeID)
		}
		if filters.Keyword != "" {
			kw := "%" + filters.Keyword + "%"
			query = query.Where("booking_no LIKE ? OR guest_name LIKE ? OR guest_email LIKE ? OR guest_phone LIKE ?", kw, kw, kw, kw)
		}
		if filters.CheckInFrom != "" {
			query = query.Where("check_in_date >= ?", filters.CheckInFrom)
		}
		if filters.CheckInTo != "" {
			query = query.Where("check_in_date <= ?", filters.CheckInTo)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListOverlapping 获取与区间重叠的占房订单
func (r *BookingRepository) ListOverlapping(ctx context.Context, roomTypeID int64, roomTypeName, checkIn, checkOut string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Scopes(overlapping(roomTypeID, roomTypeName, checkIn, checkOut)).
		Order("check_in_date ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListOccupyingBetween 获取所有房型中与区间重叠的占房订单
func (r *BookingRepository) ListOccupyingBetween(ctx context.Context, checkIn, checkOut string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Where("status IN ?", models.OccupyingStatuses).
		Find(&bookings).Error
	return bookings, err
}

// ListReservedExpired 获取付款期限已到的保留订单
func (r *BookingRepository) ListReservedExpired(ctx context.Context, now time.Time, limit int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ?", models.BookingStatusReserved, models.PaymentStatusPending).
		Where("payment_deadline IS NOT NULL AND payment_deadline <= ?", now).
		Order("payment_deadline ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&bookings).Error
	return bookings, err
}

// CompareAndSetStatus 仅当订单仍处于 from 状态时更新为 to，返回是否实际更新
// 变更为已取消或已删除时同一事务内释放房晚
func (r *BookingRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to StatePair, fields map[string]interface{}) (bool, error) {
	updated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := make(map[string]interface{}, len(fields)+2)
		for k, v := range fields {
			updates[k] = v
		}
		updates["status"] = to.Status
		updates["payment_status"] = to.PaymentStatus

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ? AND payment_status = ?", id, from.Status, from.PaymentStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		updated = true

		if to.Status == models.BookingStatusCancelled || to.Status == models.BookingStatusDeleted {
			return tx.Where("booking_id = ?", id).Delete(&models.BookingNight{}).Error
		}
		return nil
	})
	return updated, err
}

// ListByGuestEmail 获取某邮箱下的全部订单
func (r *BookingRepository) ListByGuestEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("LOWER(guest_email) = LOWER(?)", email).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	return bookings, err
}

// AnonymizeFunc 生成订单匿名化后的字段
type AnonymizeFunc func(b *models.Booking) map[string]interface{}

// Anonymize 匿名化某邮箱下的全部订单并释放房晚，返回处理的订单数
func (r *BookingRepository) Anonymize(ctx context.Context, email string, scrub AnonymizeFunc) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bookings []*models.Booking
		if err := tx.Where("LOWER(guest_email) = LOWER(?)", email).Find(&bookings).Error; err != nil {
			return err
		}
		for _, b := range bookings {
			updates := scrub(b)
			updates["status"] = models.BookingStatusDeleted
			if err := tx.Model(&models.Booking{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.Where("booking_id = ?", b.ID).Delete(&models.BookingNight{}).Error; err != nil {
				return err
			}
			affected++
		}
		return nil
	})
	return affected, err
}

// HardDelete 物理删除已取消的订单及其附属记录，返回是否删除
func (r *BookingRepository) HardDelete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, models.BookingStatusCancelled).Delete(&models.Booking{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Where("booking_id = ?", id).Delete(&models.BookingNight{}).Error; err != nil {
			return err
		}
		return tx.Where("booking_id = ?", id).Delete(&models.BookingEmailLog{}).Error
	})
	return deleted, err
}

// CountByRoomType 统计引用某房型的订单数，包含仅以名称关联的历史订单
func (r *BookingRepository) CountByRoomType(ctx context.Context, roomTypeID int64, roomTypeName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("room_type_id = ? OR (room_type_id = 0 AND room_type_name = ?)", roomTypeID, roomTypeName).
		Count(&count).Error
	return count, err
}

// notSent 排除已寄送过某模板的订单
func notSent(templateKey string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT EXISTS (SELECT 1 FROM booking_email_logs l WHERE l.booking_id = bookings.id AND l.template_key = ?)", templateKey)
	}
}

// ListDeadlineBetween 获取付款期限落在 (from, to] 且尚未寄送模板的保留订单
func (r *BookingRepository) ListDeadlineBetween(ctx context.Context, from, to time.Time, templateKey string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ?", models.BookingStatusReserved, models.PaymentStatusPending).
		Where("payment_deadline > ? AND payment_deadline <= ?", from, to).
		Scopes(notSent(templateKey)).
		Order("payment_deadline ASC, id ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListActiveByCheckIn 获取指定入住日且尚未寄送模板的有效订单
func (r *BookingRepository) ListActiveByCheckIn(ctx context.Context, date, templateKey string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND check_in_date = ?", models.BookingStatusActive, date).
		Scopes(notSent(templateKey)).
		Order("id ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListActiveByCheckOut 获取指定退房日且尚未寄送模板的有效订单
func (r *BookingRepository) ListActiveByCheckOut(ctx context.Context, date, templateKey string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND check_out_date = ?", models.BookingStatusActive, date).
		Scopes(notSent(templateKey)).
		Order("id ASC").
		Find(&bookings).Error
	return bookings, err
}
