package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	t.Run("nil 不处理", func(t *testing.T) {
		c, _ := createTestContext(http.MethodGet, "/", "")
		assert.False(t, HandleError(c, nil))
	})

	t.Run("订房冲突返回 409", func(t *testing.T) {
		c, w := createTestContext(http.MethodPost, "/", "")
		assert.True(t, HandleError(c, errors.ErrBookingConflict))
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, 8002, resp.Code)
	})

	t.Run("普通错误返回 500 且不泄露细节", func(t *testing.T) {
		c, w := createTestContext(http.MethodGet, "/", "")
		assert.True(t, HandleError(c, stderrors.New("pq: connection reset")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    *errors.AppError
		status int
	}{
		{errors.ErrInvalidParams, http.StatusBadRequest},
		{errors.ErrInvalidDateRange, http.StatusBadRequest},
		{errors.ErrGuestCountInvalid, http.StatusBadRequest},
		{errors.ErrBookingNotFound, http.StatusNotFound},
		{errors.ErrRoomTypeNotFound, http.StatusNotFound},
		{errors.ErrBookingConflict, http.StatusConflict},
		{errors.ErrIllegalTransition.WithMessage("x"), http.StatusConflict},
		{errors.ErrRoomTypeInUse, http.StatusConflict},
		{errors.ErrUnauthorized, http.StatusUnauthorized},
		{errors.ErrSignatureInvalid, http.StatusUnauthorized},
		{errors.ErrVerifyCodeExpired, http.StatusBadRequest},
		{errors.ErrVerifyCodeSendTooFast, http.StatusTooManyRequests},
		{errors.ErrBookingStatusError, http.StatusUnprocessableEntity},
		{errors.ErrDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusOf(tt.err), tt.err.Message)
	}
}

type bindRequest struct {
	CheckIn string `json:"check_in" validate:"required,datetime=2006-01-02"`
	Adults  int    `json:"adults" validate:"min=1"`
}

func TestBindJSON(t *testing.T) {
	t.Run("合法请求", func(t *testing.T) {
		c, _ := createTestContext(http.MethodPost, "/", `{"check_in":"2025-03-10","adults":2}`)
		var req bindRequest
		require.True(t, BindJSON(c, &req))
		assert.Equal(t, 2, req.Adults)
	})

	t.Run("格式错误", func(t *testing.T) {
		c, w := createTestContext(http.MethodPost, "/", `{"check_in":`)
		var req bindRequest
		assert.False(t, BindJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("校验失败", func(t *testing.T) {
		c, w := createTestContext(http.MethodPost, "/", `{"check_in":"10/03/2025","adults":0}`)
		var req bindRequest
		assert.False(t, BindJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, errors.ErrInvalidParams.Code, resp.Code)
		assert.Contains(t, resp.Message, "adults")
		assert.Contains(t, resp.Message, "check_in")
	})
}

func TestParseID(t *testing.T) {
	c, _ := createTestContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := ParseID(c, "房型")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	c, w := createTestContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok = ParseID(c, "房型")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "无效的房型ID", parseResponse(t, w).Message)
}

func TestBindPagination(t *testing.T) {
	c, _ := createTestContext(http.MethodGet, "/?page=3&page_size=500", "")
	p := BindPagination(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PageSize)

	c, _ = createTestContext(http.MethodGet, "/", "")
	p = BindPagination(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}
