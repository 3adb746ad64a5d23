// Package booking 提供旅客订房相关的 HTTP Handler
package booking

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	adminService "github.com/dumeirei/homestay-booking-backend/internal/service/admin"
	bookingService "github.com/dumeirei/homestay-booking-backend/internal/service/booking"
)

// Handler 旅客订房处理器
type Handler struct {
	bookingService *bookingService.BookingService
	availability   *bookingService.AvailabilityService
	roomTypes      *adminService.RoomTypeService
	addons         *adminService.AddonService
	settings       *adminService.SettingService
}

// NewHandler 创建旅客订房处理器
func NewHandler(
	bookingSvc *bookingService.BookingService,
	availability *bookingService.AvailabilityService,
	roomTypes *adminService.RoomTypeService,
	addons *adminService.AddonService,
	settings *adminService.SettingService,
) *Handler {
	return &Handler{
		bookingService: bookingSvc,
		availability:   availability,
		roomTypes:      roomTypes,
		addons:         addons,
		settings:       settings,
	}
}

// StayQuery 入住区间查询参数
type StayQuery struct {
	CheckIn  string `form:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `form:"check_out" validate:"required,datetime=2006-01-02"`
}

// ListRoomTypes 获取上架房型
// @Summary 获取上架房型
// @Tags 订房
// @Produce json
// @Success 200 {object} response.Response{data=[]models.RoomType}
// @Router /api/v1/room-types [get]
func (h *Handler) ListRoomTypes(c *gin.Context) {
	list, err := h.roomTypes.List(c.Request.Context(), true)
	handler.MustSucceed(c, err, list)
}

// ListAddons 获取上架加购项目
// @Summary 获取加购项目
// @Tags 订房
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Addon}
// @Router /api/v1/addons [get]
func (h *Handler) ListAddons(c *gin.Context) {
	list, err := h.addons.List(c.Request.Context(), true)
	handler.MustSucceed(c, err, list)
}

// Availability 查询各房型在区间内是否可订
// @Summary 空房查询
// @Tags 订房
// @Produce json
// @Param check_in query string true "入住日期"
// @Param check_out query string true "退房日期"
// @Success 200 {object} response.Response{data=[]bookingService.RoomTypeAvailability}
// @Router /api/v1/availability [get]
func (h *Handler) Availability(c *gin.Context) {
	var q StayQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	checkIn, checkOut, ok := parseStay(c, &q)
	if !ok {
		return
	}

	list, err := h.availability.Check(c.Request.Context(), checkIn, checkOut)
	handler.MustSucceed(c, err, list)
}

// BankTransferInfo 获取转账账户
// @Summary 转账账户
// @Tags 订房
// @Produce json
// @Success 200 {object} response.Response{data=adminService.BankTransferInfo}
// @Router /api/v1/bank-transfer-info [get]
func (h *Handler) BankTransferInfo(c *gin.Context) {
	info, err := h.settings.BankTransferInfo(c.Request.Context())
	handler.MustSucceed(c, err, info)
}

// Quote 试算房价
// @Summary 试算房价
// @Tags 订房
// @Accept json
// @Produce json
// @Param request body bookingService.QuoteRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.Quote}
// @Router /api/v1/bookings/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	var req bookingService.QuoteRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	quote, err := h.bookingService.QuotePrice(c.Request.Context(), &req)
	handler.MustSucceed(c, err, quote)
}

// CreateBooking 下单
// @Summary 下单
// @Tags 订房
// @Accept json
// @Produce json
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Booking}
// @Router /api/v1/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingService.CreateBookingRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	b, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, b)
}

// GetBooking 旅客以订单编号与邮箱查询订单
// @Summary 查询订单
// @Tags 订房
// @Produce json
// @Param booking_no path string true "订单编号"
// @Param email query string true "下单邮箱"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/v1/bookings/{booking_no} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	bookingNo, email, ok := guestLookup(c)
	if !ok {
		return
	}

	b, err := h.bookingService.LookupForGuest(c.Request.Context(), bookingNo, email)
	handler.MustSucceed(c, err, b)
}

// GetBookingQRCode 入住凭证二维码
// @Summary 入住凭证二维码
// @Tags 订房
// @Produce png
// @Param booking_no path string true "订单编号"
// @Param email query string true "下单邮箱"
// @Router /api/v1/bookings/{booking_no}/qrcode [get]
func (h *Handler) GetBookingQRCode(c *gin.Context) {
	bookingNo, email, ok := guestLookup(c)
	if !ok {
		return
	}

	png, err := h.bookingService.BookingQRCode(c.Request.Context(), bookingNo, email)
	if handler.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/room-types", h.ListRoomTypes)
	r.GET("/addons", h.ListAddons)
	r.GET("/availability", h.Availability)
	r.GET("/bank-transfer-info", h.BankTransferInfo)

	bookings := r.Group("/bookings")
	{
		bookings.POST("/quote", h.Quote)
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:booking_no", h.GetBooking)
		bookings.GET("/:booking_no/qrcode", h.GetBookingQRCode)
	}
}

func guestLookup(c *gin.Context) (string, string, bool) {
	bookingNo := c.Param("booking_no")
	email := c.Query("email")
	if bookingNo == "" || email == "" {
		response.BadRequest(c, "订单编号与邮箱不能为空")
		return "", "", false
	}
	return bookingNo, email, true
}

func parseStay(c *gin.Context, q *StayQuery) (checkIn, checkOut time.Time, ok bool) {
	checkIn, err := utils.ParseDate(q.CheckIn)
	if err != nil {
		response.BadRequest(c, "入住日期格式错误")
		return checkIn, checkOut, false
	}
	if checkOut, err = utils.ParseDate(q.CheckOut); err != nil {
		response.BadRequest(c, "退房日期格式错误")
		return checkIn, checkOut, false
	}
	return checkIn, checkOut, true
}
