// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 错误码相同即视为同一类错误，WithMessage/WithError 派生的错误仍能被 errors.Is 识别
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized          = New(2000, "未授权")
	ErrPermissionDenied      = New(2004, "权限不足")
	ErrVerifyCodeInvalid     = New(2008, "验证码错误")
	ErrVerifyCodeExpired     = New(2010, "验证码已过期")
	ErrVerifyCodeSendTooFast = New(2012, "验证码发送过于频繁")
	ErrVerifyCodeSendFailed  = New(2011, "验证码发送失败")
	ErrSignatureInvalid      = New(2013, "签名校验失败")
)

// 支付错误码 (6000-6999)
var (
	ErrPaymentFailed        = New(6001, "支付失败")
	ErrPaymentMethodError   = New(6006, "支付方式错误")
	ErrPaymentCallbackError = New(6007, "支付回调错误")
)

// 订房错误码 (8000-8999)
var (
	ErrBookingNotFound    = New(8000, "订单不存在")
	ErrBookingStatusError = New(8001, "订单状态异常")
	ErrBookingConflict    = New(8002, "该房型在所选日期已被预订")
	ErrInvalidDateRange   = New(8003, "入住与退房日期不正确")
	ErrRoomTypeNotFound   = New(8004, "房型不存在或已停售")
	ErrGuestCountInvalid  = New(8005, "入住人数超过房型上限")
	ErrAddonNotFound      = New(8006, "加购项目不存在或已停售")
	ErrRoomTypeInUse      = New(8007, "房型仍有订单引用，无法删除")
	ErrHolidayNotFound    = New(8008, "假日不存在")
	ErrTemplateNotFound   = New(8009, "邮件模板不存在")
	ErrIllegalTransition  = New(8010, "订单状态不允许此操作")
	ErrSettingInvalid     = New(8011, "系统设定值不正确")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// IsValidation 是否为请求参数类错误
func IsValidation(err error) bool {
	return stderrors.Is(err, ErrInvalidParams) ||
		stderrors.Is(err, ErrInvalidDateRange) ||
		stderrors.Is(err, ErrGuestCountInvalid) ||
		stderrors.Is(err, ErrSettingInvalid)
}

// IsConflict 是否为订房冲突
func IsConflict(err error) bool {
	return stderrors.Is(err, ErrBookingConflict)
}

// IsIllegalTransition 是否为非法的状态变更
func IsIllegalTransition(err error) bool {
	return stderrors.Is(err, ErrIllegalTransition)
}

// IsNotFound 是否为资源不存在类错误
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound) ||
		stderrors.Is(err, ErrBookingNotFound) ||
		stderrors.Is(err, ErrRoomTypeNotFound) ||
		stderrors.Is(err, ErrAddonNotFound) ||
		stderrors.Is(err, ErrHolidayNotFound) ||
		stderrors.Is(err, ErrTemplateNotFound)
}
