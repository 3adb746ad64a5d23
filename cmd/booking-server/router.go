package main

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	adminHandler "github.com/dumeirei/homestay-booking-backend/internal/handler/admin"
	bookingHandler "github.com/dumeirei/homestay-booking-backend/internal/handler/booking"
	paymentHandler "github.com/dumeirei/homestay-booking-backend/internal/handler/payment"
	privacyHandler "github.com/dumeirei/homestay-booking-backend/internal/handler/privacy"
	"github.com/dumeirei/homestay-booking-backend/internal/middleware"
)

// 请求体上限
const maxRequestBody = 1 << 20

// setupRouter 设置路由
func setupRouter(r *gin.Engine, a *app, logger *zap.Logger) {
	cfg := a.cfg
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// 初始化处理器
	bookingH := bookingHandler.NewHandler(a.bookingSvc, a.availability, a.roomTypeSvc, a.addonSvc, a.settingSvc)
	paymentH := paymentHandler.NewHandler(a.ecpay, a.bookingSvc, a.lifecycle)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RequestSizeLimiter(maxRequestBody))
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.Logging(logger, "/health", "/ping", metricsPath))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Tracing.ServiceName, "/health", "/ping", metricsPath))
	}
	if a.metrics != nil {
		r.Use(a.metrics.Middleware(metricsPath))
		r.GET(metricsPath, a.metrics.Handler())
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(a.db, a.redis))

	// Swagger 文档，发布模式不开放
	if !cfg.IsRelease() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.IPRateLimit(a.redis, "api", cfg.RateLimit.RequestsPerMinute, time.Minute))
	}
	{
		bookingH.RegisterRoutes(v1)

		// 金流回调（验签，无需认证）
		paymentH.RegisterCallbackRoutes(v1)

		if a.erasure != nil {
			privacyHandler.NewHandler(a.erasure).RegisterRoutes(v1)
		}
	}

	// 管理后台 API
	admin := r.Group("/api/admin", middleware.AdminToken(cfg.Admin.Token))
	{
		adminHandler.NewBookingHandler(a.bookingSvc, a.lifecycle).RegisterRoutes(admin)
		adminHandler.NewCatalogHandler(a.roomTypeSvc, a.addonSvc).RegisterRoutes(admin)
		adminHandler.NewHolidayHandler(a.holidaySvc).RegisterRoutes(admin)
		adminHandler.NewSettingHandler(a.settingSvc, a.templateSvc).RegisterRoutes(admin)
		adminHandler.NewCustomerHandler(a.customerSvc, a.dashboard).RegisterRoutes(admin)
	}
}
