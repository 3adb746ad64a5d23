package models

import (
	"time"

	"gorm.io/datatypes"
)

// 订单状态
const (
	BookingStatusReserved  = "reserved"  // 保留中，等待转账
	BookingStatusActive    = "active"    // 有效
	BookingStatusCancelled = "cancelled" // 已取消
	BookingStatusDeleted   = "deleted"   // 已匿名化
)

// 付款状态
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 付款方式
const (
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// 付款金额类型
const (
	PaymentAmountFull    = "full"
	PaymentAmountDeposit = "deposit"
)

// CancelReason 取消原因
const (
	CancelReasonAdmin   = "admin"
	CancelReasonExpired = "payment_expired"
)

// OccupyingStatuses 占用房晚的订单状态
var OccupyingStatuses = []string{BookingStatusReserved, BookingStatusActive}

// NightRate 单晚房价
type NightRate struct {
	Date      string `json:"date"`
	Rate      int64  `json:"rate"`
	IsHoliday bool   `json:"is_holiday"`
}

// AddonLine 订单中的加购明细
type AddonLine struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal int64  `json:"subtotal"`
}

// Booking 订单
// RoomTypeID 为 0 的历史订单只能通过 RoomTypeName 关联房型
type Booking struct {
	ID                int64                          `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo         string                         `gorm:"type:varchar(32);not null;uniqueIndex" json:"booking_no"`
	RoomTypeID        int64                          `gorm:"not null;default:0;index" json:"room_type_id"`
	RoomTypeName      string                         `gorm:"type:varchar(100);not null;index" json:"room_type_name"`
	CheckInDate       string                         `gorm:"type:varchar(10);not null;index" json:"check_in_date"`
	CheckOutDate      string                         `gorm:"type:varchar(10);not null;index" json:"check_out_date"`
	Nights            int                            `gorm:"not null" json:"nights"`
	PricePerNight     int64                          `gorm:"not null;default:0" json:"price_per_night"`
	Adults            int                            `gorm:"not null;default:1" json:"adults"`
	Children          int                            `gorm:"not null;default:0" json:"children"`
	GuestName         string                         `gorm:"type:varchar(100);not null" json:"guest_name"`
	GuestPhone        string                         `gorm:"type:varchar(30);not null" json:"guest_phone"`
	GuestEmail        string                         `gorm:"type:varchar(255);not null;index" json:"guest_email"`
	Notes             string                         `gorm:"type:text" json:"notes"`
	PaymentMethod     string                         `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentAmountType string                         `gorm:"type:varchar(20);not null" json:"payment_amount_type"`
	DepositPercentage int                            `gorm:"not null;default:0" json:"deposit_percentage"`
	NightlyRates      datatypes.JSONSlice[NightRate] `json:"nightly_rates"`
	Addons            datatypes.JSONSlice[AddonLine] `json:"addons"`
	TotalAmount       int64                          `gorm:"not null" json:"total_amount"`
	AddonsTotal       int64                          `gorm:"not null;default:0" json:"addons_total"`
	FinalAmount       int64                          `gorm:"not null" json:"final_amount"`
	AmountDue         int64                          `gorm:"not null" json:"amount_due"`
	Status            string                         `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus     string                         `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	DaysReserved      int                            `gorm:"not null;default:0" json:"days_reserved"`
	PaymentDeadline   *time.Time                     `gorm:"index" json:"payment_deadline,omitempty"`
	PaidAt            *time.Time                     `json:"paid_at,omitempty"`
	CancelledAt       *time.Time                     `json:"cancelled_at,omitempty"`
	CancelReason      string                         `gorm:"type:varchar(50)" json:"cancel_reason,omitempty"`
	CreatedAt         time.Time                      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// IsDeposit 是否为订金付款
func (b *Booking) IsDeposit() bool {
	return b.PaymentAmountType == PaymentAmountDeposit
}

// GrandTotal 房费与加购合计
func (b *Booking) GrandTotal() int64 {
	return b.TotalAmount + b.AddonsTotal
}

// IsLegacy 历史订单没有房型 ID
func (b *Booking) IsLegacy() bool {
	return b.RoomTypeID == 0
}

// BookingNight 订单占用的房晚
// (room_type_id, night_date) 唯一，保证同一房型同一晚只能被一张有效订单占用
type BookingNight struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID  int64     `gorm:"not null;index" json:"booking_id"`
	RoomTypeID int64     `gorm:"not null;uniqueIndex:uk_room_type_night" json:"room_type_id"`
	NightDate  string    `gorm:"type:varchar(10);not null;uniqueIndex:uk_room_type_night" json:"night_date"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (BookingNight) TableName() string {
	return "booking_nights"
}
