package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/database"
	"github.com/dumeirei/homestay-booking-backend/pkg/mailer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Metrics:   config.MetricsConfig{Enabled: true, Namespace: "homestay_test", Path: "/metrics"},
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1000},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		},
		Admin: config.AdminConfig{Token: "secret"},
		Mail:  config.MailConfig{Driver: "log"},
		ECPay: config.ECPayConfig{MerchantID: "3002607", HashKey: "pwFHCqoQZGmho4w6", HashIV: "EkRm7iFT261dpevs"},
		Business: config.BusinessConfig{Booking: config.BookingConfig{
			Timezone:          "Asia/Taipei",
			DepositPercentage: 30,
			DaysReserved:      3,
			MaxNights:         30,
			SweepInterval:     300,
			ReminderInterval:  60,
			VerifyCodeTTL:     10,
		}},
	}
}

func setupEngine(t *testing.T, redisClient *redis.Client) *gin.Engine {
	return setupEngineWith(t, testConfig(), redisClient)
}

func setupEngineWith(t *testing.T, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	db, err := database.Init(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Migrate(db))

	engine := gin.New()
	setupRouter(engine, newApp(cfg, db, redisClient), zap.NewNop())
	return engine
}

func doRequest(engine *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouter_Ops(t *testing.T) {
	engine := setupEngine(t, nil)

	w := doRequest(engine, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = doRequest(engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ready HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "ok", ready.Checks["database"])
	assert.Equal(t, "disabled", ready.Checks["redis"])

	w = doRequest(engine, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PublicAndAdmin(t *testing.T) {
	engine := setupEngine(t, nil)

	w := doRequest(engine, http.MethodGet, "/api/v1/room-types", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = doRequest(engine, http.MethodGet, "/api/admin/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/admin/bookings", map[string]string{"X-Admin-Token": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	// 未启用 Redis 时不注册资料删除路由
	w = doRequest(engine, http.MethodPost, "/api/v1/privacy/erasure/code", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine := setupEngine(t, client)

	w := doRequest(engine, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"redis":"ok"`))

	w = doRequest(engine, http.MethodGet, "/api/v1/room-types", nil)
	assert.Equal(t, "1000", w.Header().Get("X-RateLimit-Limit"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/privacy/erasure/code", strings.NewReader(`{"email":"guest@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Swagger(t *testing.T) {
	t.Run("调试模式开放", func(t *testing.T) {
		engine := setupEngine(t, nil)
		w := doRequest(engine, http.MethodGet, "/swagger/index.html", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "swagger")
	})

	t.Run("发布模式关闭", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.Mode = "release"
		engine := setupEngineWith(t, cfg, nil)
		w := doRequest(engine, http.MethodGet, "/swagger/index.html", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNewMailSender(t *testing.T) {
	_, ok := newMailSender(&config.MailConfig{Driver: "smtp", Host: "smtp.example.com", Port: 587}).(*mailer.SMTPSender)
	assert.True(t, ok)

	_, ok = newMailSender(&config.MailConfig{Driver: "log"}).(*mailer.LogSender)
	assert.True(t, ok)
}

func TestConnectRedis_Disabled(t *testing.T) {
	assert.Nil(t, connectRedis(&config.Config{Redis: config.RedisConfig{Enabled: false}}))
}
