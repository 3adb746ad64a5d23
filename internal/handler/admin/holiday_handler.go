package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
	adminService "github.com/dumeirei/homestay-booking-backend/internal/service/admin"
)

// HolidayHandler 假日与周间设定处理器
type HolidayHandler struct {
	holidays *adminService.HolidayService
}

// NewHolidayHandler 创建假日处理器
func NewHolidayHandler(holidays *adminService.HolidayService) *HolidayHandler {
	return &HolidayHandler{holidays: holidays}
}

// HolidayListQuery 假日列表查询参数
type HolidayListQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// GenerateWeekendsRequest 生成周末假日请求
type GenerateWeekendsRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// WeekdaySettingsRequest 周间设定请求，0 为周日
type WeekdaySettingsRequest struct {
	Days []int `json:"days" validate:"required,min=1,max=7,dive,min=0,max=6"`
}

// List 假日列表
// @Summary 假日列表
// @Tags 管理-假日
// @Produce json
// @Security AdminToken
// @Param from query string false "起始日期"
// @Param to query string false "结束日期"
// @Success 200 {object} response.Response{data=[]models.Holiday}
// @Router /api/admin/holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	var q HolidayListQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	list, err := h.holidays.List(c.Request.Context(), q.From, q.To)
	handler.MustSucceed(c, err, list)
}

// Add 新增单日假日
func (h *HolidayHandler) Add(c *gin.Context) {
	var req adminService.AddHolidayRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	holiday, err := h.holidays.AddHoliday(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, holiday)
}

// AddRange 新增连续假日
func (h *HolidayHandler) AddRange(c *gin.Context) {
	var req adminService.AddRangeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result, err := h.holidays.AddRange(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// GenerateWeekends 按周间设定重建区间内的周末假日
func (h *HolidayHandler) GenerateWeekends(c *gin.Context) {
	var req GenerateWeekendsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result, err := h.holidays.GenerateWeekends(c.Request.Context(), req.From, req.To)
	handler.MustSucceed(c, err, result)
}

// Delete 删除手动假日
func (h *HolidayHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "假日")
	if !ok {
		return
	}
	if handler.HandleError(c, h.holidays.DeleteHoliday(c.Request.Context(), id)) {
		return
	}
	response.SuccessWithMessage(c, "假日已删除", nil)
}

// GetWeekdays 获取周间设定
func (h *HolidayHandler) GetWeekdays(c *gin.Context) {
	days, err := h.holidays.GetWeekdaySettings(c.Request.Context())
	handler.MustSucceed(c, err, gin.H{"days": days})
}

// UpdateWeekdays 更新周间设定
// @Summary 更新周间设定
// @Tags 管理-假日
// @Accept json
// @Produce json
// @Security AdminToken
// @Param request body WeekdaySettingsRequest true "周间日，0 为周日"
// @Router /api/admin/weekday-settings [put]
func (h *HolidayHandler) UpdateWeekdays(c *gin.Context) {
	var req WeekdaySettingsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	days, err := h.holidays.UpdateWeekdaySettings(c.Request.Context(), req.Days)
	handler.MustSucceed(c, err, gin.H{"days": days})
}

// RegisterRoutes 注册路由
func (h *HolidayHandler) RegisterRoutes(r *gin.RouterGroup) {
	holidays := r.Group("/holidays")
	{
		holidays.GET("", h.List)
		holidays.POST("", h.Add)
		holidays.POST("/range", h.AddRange)
		holidays.POST("/weekends", h.GenerateWeekends)
		holidays.DELETE("/:id", h.Delete)
	}

	r.GET("/weekday-settings", h.GetWeekdays)
	r.PUT("/weekday-settings", h.UpdateWeekdays)
}
