// Package privacy 提供个人资料删除的 HTTP Handler
package privacy

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
	privacyService "github.com/dumeirei/homestay-booking-backend/internal/service/privacy"
)

// Handler 个人资料删除处理器
type Handler struct {
	erasure *privacyService.ErasureService
}

// NewHandler 创建个人资料删除处理器
func NewHandler(erasure *privacyService.ErasureService) *Handler {
	return &Handler{erasure: erasure}
}

// ErasureCodeRequest 申请删除验证码
type ErasureCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ErasureConfirmRequest 确认删除
type ErasureConfirmRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code" validate:"required,numeric,max=10"`
}

// ErasureResult 删除结果
type ErasureResult struct {
	Anonymized int64 `json:"anonymized"`
}

// RequestCode 寄送删除验证码
// @Summary 申请删除个人资料
// @Tags 隐私
// @Accept json
// @Produce json
// @Param request body ErasureCodeRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/privacy/erasure/code [post]
func (h *Handler) RequestCode(c *gin.Context) {
	var req ErasureCodeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if handler.HandleError(c, h.erasure.RequestErasure(c.Request.Context(), req.Email)) {
		return
	}
	response.SuccessWithMessage(c, "若该邮箱有订单，验证码已寄出", nil)
}

// Confirm 校验验证码并删除个人资料
// @Summary 确认删除个人资料
// @Tags 隐私
// @Accept json
// @Produce json
// @Param request body ErasureConfirmRequest true "请求参数"
// @Success 200 {object} response.Response{data=ErasureResult}
// @Router /api/v1/privacy/erasure/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	var req ErasureConfirmRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	n, err := h.erasure.ConfirmErasure(c.Request.Context(), req.Email, req.Code)
	handler.MustSucceed(c, err, &ErasureResult{Anonymized: n})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	erasure := r.Group("/privacy/erasure")
	{
		erasure.POST("/code", h.RequestCode)
		erasure.POST("/confirm", h.Confirm)
	}
}
