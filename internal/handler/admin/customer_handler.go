package admin

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	adminService "github.com/dumeirei/homestay-booking-backend/internal/service/admin"
)

// CustomerHandler 客户与仪表盘处理器
type CustomerHandler struct {
	customers *adminService.CustomerService
	dashboard *adminService.DashboardService
	now       func() time.Time
}

// NewCustomerHandler 创建客户处理器
func NewCustomerHandler(customers *adminService.CustomerService, dashboard *adminService.DashboardService) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		dashboard: dashboard,
		now:       time.Now,
	}
}

// ListCustomers 客户列表
// @Summary 客户列表
// @Tags 管理-客户
// @Produce json
// @Security AdminToken
// @Param keyword query string false "姓名、邮箱或电话"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Router /api/admin/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	p := handler.BindPagination(c)
	list, total, err := h.customers.ListCustomers(c.Request.Context(), c.Query("keyword"), &p)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// CustomerBookings 客户的全部订单
func (h *CustomerHandler) CustomerBookings(c *gin.Context) {
	list, err := h.customers.CustomerBookings(c.Request.Context(), c.Param("email"))
	handler.MustSucceed(c, err, list)
}

// Dashboard 仪表盘概览
func (h *CustomerHandler) Dashboard(c *gin.Context) {
	overview, err := h.dashboard.GetOverview(c.Request.Context(), h.now())
	handler.MustSucceed(c, err, overview)
}

// RegisterRoutes 注册路由
func (h *CustomerHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/:email/bookings", h.CustomerBookings)
	r.GET("/dashboard", h.Dashboard)
}
