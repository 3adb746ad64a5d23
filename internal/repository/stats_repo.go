package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// CustomerSummary 以邮箱聚合的客户资料
type CustomerSummary struct {
	GuestEmail   string `json:"guest_email"`
	GuestName    string `json:"guest_name"`
	GuestPhone   string `json:"guest_phone"`
	BookingCount int64  `json:"booking_count"`
	TotalSpent   int64  `json:"total_spent"`
}

// StatusCount 状态计数
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ListCustomers 分页获取客户列表，已匿名化的订单不计入
func (r *BookingRepository) ListCustomers(ctx context.Context, offset, limit int, keyword string) ([]*CustomerSummary, int64, error) {
	var customers []*CustomerSummary
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Booking{}).Where("status <> ?", models.BookingStatusDeleted)
		if keyword != "" {
			kw := "%" + keyword + "%"
			db = db.Where("guest_email LIKE ? OR guest_name LIKE ? OR guest_phone LIKE ?", kw, kw, kw)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Scopes(filter).Distinct("guest_email").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).Scopes(filter).
		Select(`guest_email,
			MAX(guest_name) AS guest_name,
			MAX(guest_phone) AS guest_phone,
			COUNT(*) AS booking_count,
			CAST(COALESCE(SUM(CASE WHEN payment_status = ? THEN amount_due ELSE 0 END), 0) AS BIGINT) AS total_spent`,
			models.PaymentStatusPaid).
		Group("guest_email").
		Order("booking_count DESC, guest_email ASC").
		Offset(offset).Limit(limit).
		Scan(&customers).Error
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// CountByStatus 按订单状态计数
func (r *BookingRepository) CountByStatus(ctx context.Context) ([]*StatusCount, error) {
	var counts []*StatusCount
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&counts).Error
	return counts, err
}

// CountActiveCheckIns 统计指定日期入住的有效订单
func (r *BookingRepository) CountActiveCheckIns(ctx context.Context, date string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND check_in_date = ?", models.BookingStatusActive, date).
		Count(&count).Error
	return count, err
}

// CountActiveCheckOuts 统计指定日期退房的有效订单
func (r *BookingRepository) CountActiveCheckOuts(ctx context.Context, date string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND check_out_date = ?", models.BookingStatusActive, date).
		Count(&count).Error
	return count, err
}

// SumPaidRevenue 统计入住日在 [from, to] 内已付款订单的应收金额
func (r *BookingRepository) SumPaidRevenue(ctx context.Context, from, to string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("CAST(COALESCE(SUM(amount_due), 0) AS BIGINT)").
		Where("payment_status = ? AND check_in_date >= ? AND check_in_date <= ?", models.PaymentStatusPaid, from, to).
		Scan(&total).Error
	return total, err
}
