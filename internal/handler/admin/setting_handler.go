package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	adminService "github.com/dumeirei/homestay-booking-backend/internal/service/admin"
)

// SettingHandler 系统设定与邮件模板处理器
type SettingHandler struct {
	settings  *adminService.SettingService
	templates *adminService.EmailTemplateService
}

// NewSettingHandler 创建系统设定处理器
func NewSettingHandler(settings *adminService.SettingService, templates *adminService.EmailTemplateService) *SettingHandler {
	return &SettingHandler{
		settings:  settings,
		templates: templates,
	}
}

// ListSettings 系统设定列表
func (h *SettingHandler) ListSettings(c *gin.Context) {
	list, err := h.settings.List(c.Request.Context())
	handler.MustSucceed(c, err, list)
}

// GetSetting 获取单项设定
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	handler.MustSucceed(c, err, setting)
}

// SetSetting 写入单项设定
// @Summary 写入系统设定
// @Tags 管理-设定
// @Accept json
// @Produce json
// @Security AdminToken
// @Param key path string true "设定键"
// @Param request body adminService.SetSettingRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Setting}
// @Router /api/admin/settings/{key} [put]
func (h *SettingHandler) SetSetting(c *gin.Context) {
	var req adminService.SetSettingRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	setting, err := h.settings.Set(c.Request.Context(), c.Param("key"), &req)
	handler.MustSucceed(c, err, setting)
}

// ListTemplates 邮件模板列表
func (h *SettingHandler) ListTemplates(c *gin.Context) {
	list, err := h.templates.List(c.Request.Context())
	handler.MustSucceed(c, err, list)
}

// GetTemplate 获取邮件模板
func (h *SettingHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("key"))
	handler.MustSucceed(c, err, tpl)
}

// UpdateTemplate 更新邮件模板
func (h *SettingHandler) UpdateTemplate(c *gin.Context) {
	var req adminService.UpdateTemplateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), c.Param("key"), &req)
	handler.MustSucceed(c, err, tpl)
}

// PreviewTemplate 预览邮件模板，可指定 booking_no 以实际订单渲染
func (h *SettingHandler) PreviewTemplate(c *gin.Context) {
	preview, err := h.templates.Render(c.Request.Context(), c.Param("key"), c.Query("booking_no"))
	handler.MustSucceed(c, err, preview)
}

// RegisterRoutes 注册路由
func (h *SettingHandler) RegisterRoutes(r *gin.RouterGroup) {
	settings := r.Group("/settings")
	{
		settings.GET("", h.ListSettings)
		settings.GET("/:key", h.GetSetting)
		settings.PUT("/:key", h.SetSetting)
	}

	templates := r.Group("/email-templates")
	{
		templates.GET("", h.ListTemplates)
		templates.GET("/:key", h.GetTemplate)
		templates.PUT("/:key", h.UpdateTemplate)
		templates.GET("/:key/preview", h.PreviewTemplate)
	}
}
