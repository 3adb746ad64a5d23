// Package admin 提供管理后台 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	bookingService "github.com/dumeirei/homestay-booking-backend/internal/service/booking"
)

// BookingHandler 订单管理处理器
type BookingHandler struct {
	bookingService *bookingService.BookingService
	lifecycle      *bookingService.LifecycleService
}

// NewBookingHandler 创建订单管理处理器
func NewBookingHandler(bookingSvc *bookingService.BookingService, lifecycle *bookingService.LifecycleService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingSvc,
		lifecycle:      lifecycle,
	}
}

// BookingListQuery 订单列表查询参数
type BookingListQuery struct {
	Status        string `form:"status" validate:"omitempty,oneof=reserved active cancelled deleted"`
	PaymentStatus string `form:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
	RoomTypeID    int64  `form:"room_type_id" validate:"min=0"`
	Keyword       string `form:"keyword" validate:"max=100"`
	CheckInFrom   string `form:"check_in_from" validate:"omitempty,datetime=2006-01-02"`
	CheckInTo     string `form:"check_in_to" validate:"omitempty,datetime=2006-01-02"`
}

// CancelBookingRequest 取消订单请求
type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=50"`
}

// List 订单列表
// @Summary 订单列表
// @Tags 管理-订单
// @Produce json
// @Security AdminToken
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "订单状态"
// @Param payment_status query string false "付款状态"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/admin/bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var q BookingListQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	p := handler.BindPagination(c)

	filters := &repository.BookingListFilters{
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		RoomTypeID:    q.RoomTypeID,
		Keyword:       q.Keyword,
		CheckInFrom:   q.CheckInFrom,
		CheckInTo:     q.CheckInTo,
	}
	list, total, err := h.bookingService.ListBookings(c.Request.Context(), filters, &p)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Get 订单详情
// @Summary 订单详情
// @Tags 管理-订单
// @Produce json
// @Security AdminToken
// @Param booking_no path string true "订单编号"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/admin/bookings/{booking_no} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("booking_no"))
	handler.MustSucceed(c, err, b)
}

// EmailLogs 订单邮件寄送记录
func (h *BookingHandler) EmailLogs(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := h.bookingService.GetBooking(ctx, c.Param("booking_no"))
	if handler.HandleError(c, err) {
		return
	}
	logs, err := h.bookingService.EmailLogs(ctx, b.ID)
	handler.MustSucceed(c, err, logs)
}

// ConfirmPayment 确认收款
// @Summary 确认收款
// @Tags 管理-订单
// @Produce json
// @Security AdminToken
// @Param booking_no path string true "订单编号"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/admin/bookings/{booking_no}/confirm-payment [post]
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	b, err := h.lifecycle.ConfirmPayment(c.Request.Context(), c.Param("booking_no"), "admin")
	handler.MustSucceed(c, err, b)
}

// Cancel 取消订单
// @Summary 取消订单
// @Tags 管理-订单
// @Accept json
// @Produce json
// @Security AdminToken
// @Param booking_no path string true "订单编号"
// @Param request body CancelBookingRequest false "取消原因"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/admin/bookings/{booking_no}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req CancelBookingRequest
	if c.Request.ContentLength > 0 && !handler.BindJSON(c, &req) {
		return
	}

	b, err := h.lifecycle.Cancel(c.Request.Context(), c.Param("booking_no"), req.Reason)
	handler.MustSucceed(c, err, b)
}

// Refund 标记退款
// @Summary 标记退款
// @Tags 管理-订单
// @Produce json
// @Security AdminToken
// @Param booking_no path string true "订单编号"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/admin/bookings/{booking_no}/refund [post]
func (h *BookingHandler) Refund(c *gin.Context) {
	b, err := h.lifecycle.Refund(c.Request.Context(), c.Param("booking_no"))
	handler.MustSucceed(c, err, b)
}

// Delete 永久删除已取消的订单
// @Summary 删除订单
// @Tags 管理-订单
// @Security AdminToken
// @Param booking_no path string true "订单编号"
// @Router /api/admin/bookings/{booking_no} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	if handler.HandleError(c, h.lifecycle.HardDelete(c.Request.Context(), c.Param("booking_no"))) {
		return
	}
	response.SuccessWithMessage(c, "订单已删除", nil)
}

// RegisterRoutes 注册路由
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.List)
		bookings.GET("/:booking_no", h.Get)
		bookings.GET("/:booking_no/email-logs", h.EmailLogs)
		bookings.POST("/:booking_no/confirm-payment", h.ConfirmPayment)
		bookings.POST("/:booking_no/cancel", h.Cancel)
		bookings.POST("/:booking_no/refund", h.Refund)
		bookings.DELETE("/:booking_no", h.Delete)
	}
}
