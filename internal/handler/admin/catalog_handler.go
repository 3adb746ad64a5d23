package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/handler"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
	adminService "github.com/dumeirei/homestay-booking-backend/internal/service/admin"
)

// CatalogHandler 房型与加购项目管理处理器
type CatalogHandler struct {
	roomTypes *adminService.RoomTypeService
	addons    *adminService.AddonService
}

// NewCatalogHandler 创建房型与加购项目管理处理器
func NewCatalogHandler(roomTypes *adminService.RoomTypeService, addons *adminService.AddonService) *CatalogHandler {
	return &CatalogHandler{
		roomTypes: roomTypes,
		addons:    addons,
	}
}

// ListRoomTypes 房型列表（含停售）
func (h *CatalogHandler) ListRoomTypes(c *gin.Context) {
	list, err := h.roomTypes.List(c.Request.Context(), false)
	handler.MustSucceed(c, err, list)
}

// GetRoomType 房型详情
func (h *CatalogHandler) GetRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}
	rt, err := h.roomTypes.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, rt)
}

// CreateRoomType 新增房型
// @Summary 新增房型
// @Tags 管理-房型
// @Accept json
// @Produce json
// @Security AdminToken
// @Param request body adminService.CreateRoomTypeRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.RoomType}
// @Router /api/admin/room-types [post]
func (h *CatalogHandler) CreateRoomType(c *gin.Context) {
	var req adminService.CreateRoomTypeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	rt, err := h.roomTypes.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, rt)
}

// UpdateRoomType 更新房型
func (h *CatalogHandler) UpdateRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}
	var req adminService.UpdateRoomTypeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	rt, err := h.roomTypes.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, rt)
}

// DeleteRoomType 删除房型，仍有订单引用时改为停售
func (h *CatalogHandler) DeleteRoomType(c *gin.Context) {
	id, ok := handler.ParseID(c, "房型")
	if !ok {
		return
	}
	deleted, err := h.roomTypes.Delete(c.Request.Context(), id)
	handler.MustSucceed(c, err, gin.H{"deleted": deleted, "deactivated": !deleted})
}

// ListAddons 加购项目列表（含停售）
func (h *CatalogHandler) ListAddons(c *gin.Context) {
	list, err := h.addons.List(c.Request.Context(), false)
	handler.MustSucceed(c, err, list)
}

// CreateAddon 新增加购项目
func (h *CatalogHandler) CreateAddon(c *gin.Context) {
	var req adminService.CreateAddonRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	addon, err := h.addons.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, addon)
}

// UpdateAddon 更新加购项目
func (h *CatalogHandler) UpdateAddon(c *gin.Context) {
	id, ok := handler.ParseID(c, "加购项目")
	if !ok {
		return
	}
	var req adminService.UpdateAddonRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	addon, err := h.addons.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, addon)
}

// DeleteAddon 停售加购项目，purge=true 时物理删除
func (h *CatalogHandler) DeleteAddon(c *gin.Context) {
	id, ok := handler.ParseID(c, "加购项目")
	if !ok {
		return
	}
	var err error
	if c.Query("purge") == "true" {
		err = h.addons.Purge(c.Request.Context(), id)
	} else {
		err = h.addons.Delete(c.Request.Context(), id)
	}
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, "加购项目已删除", nil)
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup) {
	roomTypes := r.Group("/room-types")
	{
		roomTypes.GET("", h.ListRoomTypes)
		roomTypes.GET("/:id", h.GetRoomType)
		roomTypes.POST("", h.CreateRoomType)
		roomTypes.PUT("/:id", h.UpdateRoomType)
		roomTypes.DELETE("/:id", h.DeleteRoomType)
	}

	addons := r.Group("/addons")
	{
		addons.GET("", h.ListAddons)
		addons.POST("", h.CreateAddon)
		addons.PUT("/:id", h.UpdateAddon)
		addons.DELETE("/:id", h.DeleteAddon)
	}
}
