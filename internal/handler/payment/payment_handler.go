// Package payment 提供金流回调的 HTTP Handler
package payment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/pkg/ecpay"
)

// PaymentSource 绿界回调确认付款时记录的来源
const PaymentSource = "ecpay"

// Lifecycle 订单付款状态变更
type Lifecycle interface {
	ConfirmPayment(ctx context.Context, bookingNo, source string) (*models.Booking, error)
	MarkPaymentFailed(ctx context.Context, bookingNo string) (*models.Booking, error)
}

// BookingFinder 按订单编号查询订单
type BookingFinder interface {
	GetBooking(ctx context.Context, bookingNo string) (*models.Booking, error)
}

// Handler 金流回调处理器
type Handler struct {
	client    *ecpay.Client
	bookings  BookingFinder
	lifecycle Lifecycle
}

// NewHandler 创建金流回调处理器
func NewHandler(client *ecpay.Client, bookings BookingFinder, lifecycle Lifecycle) *Handler {
	return &Handler{
		client:    client,
		bookings:  bookings,
		lifecycle: lifecycle,
	}
}

// ECPayNotify 绿界付款结果通知
// 验签失败或处理失败时回覆 0|ERROR，绿界会重送通知
// @Summary 绿界付款结果通知
// @Tags 支付
// @Accept x-www-form-urlencoded
// @Produce plain
// @Router /api/v1/payments/ecpay/notify [post]
func (h *Handler) ECPayNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, ecpay.ReplyError)
		return
	}

	n, err := h.client.ParseNotification(c.Request.PostForm)
	if err != nil {
		logger.Warn("绿界通知验签失败", logger.Module("payment"), logger.IP(c.ClientIP()), logger.Err(err))
		c.String(http.StatusBadRequest, ecpay.ReplyError)
		return
	}

	ctx := c.Request.Context()
	if n.Paid() {
		// 金额不符时不变更状态，交由后台人工确认
		current, err := h.bookings.GetBooking(ctx, n.MerchantTradeNo)
		if err != nil {
			h.reply(c, n, err)
			return
		}
		if n.TradeAmt != current.AmountDue {
			logger.Error("绿界付款金额与应付金额不符",
				logger.Module("payment"),
				logger.BookingNo(current.BookingNo),
				logger.Int64("trade_amt", n.TradeAmt),
				logger.Int64("amount_due", current.AmountDue),
			)
			c.String(http.StatusOK, ecpay.ReplyError)
			return
		}

		b, err := h.lifecycle.ConfirmPayment(ctx, n.MerchantTradeNo, PaymentSource)
		if err != nil {
			h.reply(c, n, err)
			return
		}
		logger.Info("绿界付款成功", logger.Module("payment"), logger.BookingNo(b.BookingNo), logger.String("trade_no", n.TradeNo))
		c.String(http.StatusOK, ecpay.ReplyOK)
		return
	}

	_, err = h.lifecycle.MarkPaymentFailed(ctx, n.MerchantTradeNo)
	if err != nil {
		h.reply(c, n, err)
		return
	}
	logger.Info("绿界付款失败",
		logger.Module("payment"),
		logger.BookingNo(n.MerchantTradeNo),
		logger.Int("rtn_code", n.RtnCode),
		logger.String("rtn_msg", n.RtnMsg),
	)
	c.String(http.StatusOK, ecpay.ReplyOK)
}

// reply 处理状态变更失败
// 非法状态变更重送也不会成功，回覆 1|OK 结束重送
func (h *Handler) reply(c *gin.Context, n *ecpay.Notification, err error) {
	if errors.IsIllegalTransition(err) {
		logger.Warn("绿界通知的订单状态不允许变更",
			logger.Module("payment"),
			logger.BookingNo(n.MerchantTradeNo),
			logger.Int("rtn_code", n.RtnCode),
			logger.Err(err),
		)
		c.String(http.StatusOK, ecpay.ReplyOK)
		return
	}
	logger.Error("绿界通知处理失败", logger.Module("payment"), logger.BookingNo(n.MerchantTradeNo), logger.Err(err))
	c.String(http.StatusOK, ecpay.ReplyError)
}

// RegisterCallbackRoutes 注册回调路由（无需认证）
func (h *Handler) RegisterCallbackRoutes(r *gin.RouterGroup) {
	callback := r.Group("/payments")
	{
		callback.POST("/ecpay/notify", h.ECPayNotify)
	}
}
