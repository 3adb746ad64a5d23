// Package handler 提供 API Handler 的通用辅助函数
// 统一错误处理、参数解析、分页等操作
package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/common/validator"
)

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false；否则发送错误响应并返回 true，调用方应该 return
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status := StatusOf(appErr)
		if status >= http.StatusInternalServerError {
			logger.Error("请求处理失败",
				logger.Path(c.FullPath()),
				logger.Err(err),
			)
		}
		response.Error(c, status, appErr.Code, appErr.Message)
		return true
	}
	logger.Error("未预期的错误", logger.Path(c.FullPath()), logger.Err(err))
	response.InternalError(c, "")
	return true
}

// StatusOf 业务错误对应的 HTTP 状态码
func StatusOf(err *errors.AppError) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsConflict(err), errors.IsIllegalTransition(err), stderrors.Is(err, errors.ErrRoomTypeInUse),
		stderrors.Is(err, errors.ErrAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrUnauthorized), stderrors.Is(err, errors.ErrSignatureInvalid):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrVerifyCodeInvalid), stderrors.Is(err, errors.ErrVerifyCodeExpired):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrRateLimitExceed), stderrors.Is(err, errors.ErrVerifyCodeSendTooFast):
		return http.StatusTooManyRequests
	case err.Code >= 8000 && err.Code < 9000:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
// 调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页响应版本
//
// 使用示例:
//
//	list, total, err := service.List(ctx, p.GetOffset(), p.GetLimit())
//	MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// BindJSON 绑定 JSON 请求体并执行结构体校验
// 返回 false 时已发送 400 响应
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "请求格式错误")
		return false
	}
	if err := validator.Struct(req); err != nil {
		HandleError(c, err)
		return false
	}
	return true
}

// BindQuery 绑定查询参数并执行结构体校验
func BindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.BadRequest(c, "查询参数格式错误")
		return false
	}
	if err := validator.Struct(req); err != nil {
		HandleError(c, err)
		return false
	}
	return true
}

// ParseID 解析路径参数 "id" 为 int64
// 返回 (0, false) 表示解析失败，已发送 400 响应
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// BindPagination 从查询参数绑定并规范化分页参数
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	p.Normalize()
	return p
}
