package booking

import (
	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// Action 订单状态操作
type Action string

const (
	ActionConfirmPayment Action = "confirm_payment"
	ActionPaymentFailed  Action = "payment_failed"
	ActionRefund         Action = "refund"
	ActionCancel         Action = "cancel"
	ActionExpire         Action = "expire"
	ActionHardDelete     Action = "hard_delete"
)

// NextState 计算操作后的状态
// noop 为 true 表示订单已处于目标状态；非法操作返回 ErrIllegalTransition
func NextState(action Action, cur repository.StatePair) (next repository.StatePair, noop bool, err error) {
	next = cur
	switch action {
	case ActionConfirmPayment:
		switch {
		case cur.Status == models.BookingStatusActive && cur.PaymentStatus == models.PaymentStatusPaid:
			return cur, true, nil
		case (cur.Status == models.BookingStatusReserved || cur.Status == models.BookingStatusActive) &&
			(cur.PaymentStatus == models.PaymentStatusPending || cur.PaymentStatus == models.PaymentStatusFailed):
			next.Status = models.BookingStatusActive
			next.PaymentStatus = models.PaymentStatusPaid
			return next, false, nil
		}

	case ActionPaymentFailed:
		switch {
		case cur.Status == models.BookingStatusActive && cur.PaymentStatus == models.PaymentStatusFailed:
			return cur, true, nil
		case cur.Status == models.BookingStatusActive && cur.PaymentStatus == models.PaymentStatusPending:
			next.PaymentStatus = models.PaymentStatusFailed
			return next, false, nil
		}

	case ActionRefund:
		switch {
		case cur.PaymentStatus == models.PaymentStatusRefunded &&
			(cur.Status == models.BookingStatusActive || cur.Status == models.BookingStatusCancelled):
			return cur, true, nil
		case cur.PaymentStatus == models.PaymentStatusPaid &&
			(cur.Status == models.BookingStatusActive || cur.Status == models.BookingStatusCancelled):
			next.PaymentStatus = models.PaymentStatusRefunded
			return next, false, nil
		}

	case ActionCancel:
		switch cur.Status {
		case models.BookingStatusCancelled:
			return cur, true, nil
		case models.BookingStatusReserved, models.BookingStatusActive:
			next.Status = models.BookingStatusCancelled
			return next, false, nil
		}

	case ActionExpire:
		// 已付款、已取消等状态不属于逾期对象，视为无需处理
		if cur.Status == models.BookingStatusReserved && cur.PaymentStatus == models.PaymentStatusPending {
			next.Status = models.BookingStatusCancelled
			return next, false, nil
		}
		return cur, true, nil

	case ActionHardDelete:
		if cur.Status == models.BookingStatusCancelled {
			return next, false, nil
		}
	}

	return cur, false, errors.ErrIllegalTransition.WithMessage(
		"订单状态 " + cur.String() + " 不允许执行 " + string(action))
}
