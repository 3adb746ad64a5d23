package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "[8002] 该房型在所选日期已被预订", ErrBookingConflict.Error())

	wrapped := Wrap(1004, "数据库错误", fmt.Errorf("connection refused"))
	assert.Equal(t, "[1004] 数据库错误: connection refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := ErrDatabaseError.WithError(cause)
	assert.ErrorIs(t, err, cause)
}

func TestAppError_DerivedErrorsKeepIdentity(t *testing.T) {
	derived := ErrIllegalTransition.WithMessage("已取消的订单不能再次取消")

	assert.Equal(t, ErrIllegalTransition.Code, derived.Code)
	assert.Equal(t, "已取消的订单不能再次取消", derived.Message)
	assert.NotSame(t, ErrIllegalTransition, derived)
	assert.ErrorIs(t, derived, ErrIllegalTransition)
	assert.True(t, IsIllegalTransition(fmt.Errorf("sweep: %w", derived)))
	assert.False(t, IsConflict(derived))
}

func TestAppError_WithErrorDoesNotMutate(t *testing.T) {
	_ = ErrDatabaseError.WithError(stderrors.New("boom"))
	assert.Nil(t, ErrDatabaseError.Err)
}

func TestCategoryHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		conflict   bool
		notFound   bool
	}{
		{"参数错误", ErrInvalidParams.WithMessage("guest_email 格式不正确"), true, false, false},
		{"日期区间", ErrInvalidDateRange, true, false, false},
		{"人数", ErrGuestCountInvalid, true, false, false},
		{"冲突", ErrBookingConflict, false, true, false},
		{"房型不存在", ErrRoomTypeNotFound, false, false, true},
		{"订单不存在", ErrBookingNotFound, false, false, true},
		{"普通错误", stderrors.New("plain"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(ErrUnknown))
	assert.True(t, IsAppError(fmt.Errorf("wrap: %w", ErrBookingNotFound)))
	assert.False(t, IsAppError(stderrors.New("plain")))
	assert.False(t, IsAppError(nil))
}

func TestGetAppError(t *testing.T) {
	appErr := GetAppError(fmt.Errorf("wrap: %w", ErrRoomTypeNotFound))
	require.NotNil(t, appErr)
	assert.Equal(t, 8004, appErr.Code)

	plain := stderrors.New("plain")
	unknown := GetAppError(plain)
	assert.Equal(t, ErrUnknown.Code, unknown.Code)
	assert.ErrorIs(t, unknown, plain)
}

func TestErrorCodesUnique(t *testing.T) {
	all := []*AppError{
		ErrUnknown, ErrInvalidParams, ErrNotFound, ErrAlreadyExists, ErrDatabaseError,
		ErrCacheError, ErrInternalError, ErrExternalService, ErrRateLimitExceed, ErrOperationFailed,
		ErrUnauthorized, ErrPermissionDenied, ErrVerifyCodeInvalid, ErrVerifyCodeExpired,
		ErrVerifyCodeSendTooFast, ErrVerifyCodeSendFailed, ErrSignatureInvalid,
		ErrPaymentFailed, ErrPaymentMethodError, ErrPaymentCallbackError,
		ErrBookingNotFound, ErrBookingStatusError, ErrBookingConflict, ErrInvalidDateRange,
		ErrRoomTypeNotFound, ErrGuestCountInvalid, ErrAddonNotFound, ErrRoomTypeInUse,
		ErrHolidayNotFound, ErrTemplateNotFound, ErrIllegalTransition, ErrSettingInvalid,
	}

	seen := make(map[int]string)
	for _, e := range all {
		if prev, ok := seen[e.Code]; ok {
			t.Fatalf("错误码 %d 重复: %s / %s", e.Code, prev, e.Message)
		}
		seen[e.Code] = e.Message
	}
}
