package main

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/homestay-booking-backend/internal/common/cache"
	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/metrics"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	"github.com/dumeirei/homestay-booking-backend/internal/scheduler"
	adminService "github.com/dumeirei/homestay-booking-backend/internal/service/admin"
	bookingService "github.com/dumeirei/homestay-booking-backend/internal/service/booking"
	"github.com/dumeirei/homestay-booking-backend/internal/service/notification"
	privacyService "github.com/dumeirei/homestay-booking-backend/internal/service/privacy"
	"github.com/dumeirei/homestay-booking-backend/pkg/ecpay"
	"github.com/dumeirei/homestay-booking-backend/pkg/mailer"
)

// app 持有全部服务实例
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	redis   *redis.Client
	metrics *metrics.Metrics
	ecpay   *ecpay.Client

	bookingSvc   *bookingService.BookingService
	lifecycle    *bookingService.LifecycleService
	availability *bookingService.AvailabilityService
	notifier     *notification.Notifier

	roomTypeSvc *adminService.RoomTypeService
	addonSvc    *adminService.AddonService
	holidaySvc  *adminService.HolidayService
	settingSvc  *adminService.SettingService
	templateSvc *adminService.EmailTemplateService
	customerSvc *adminService.CustomerService
	dashboard   *adminService.DashboardService

	// Redis 未启用时为 nil
	erasure *privacyService.ErasureService

	tasks *scheduler.TaskHandler
}

// newApp 组装仓储与服务，redisClient 可为 nil
func newApp(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *app {
	bc := cfg.Business.Booking
	loc := bc.Location()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	// 初始化仓储
	roomTypeRepo := repository.NewRoomTypeRepository(db)
	addonRepo := repository.NewAddonRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)

	// 初始化服务
	reader := bookingService.NewSettingsReader(settingRepo, bc)
	notifier := notification.NewNotifier(templateRepo, bookingRepo, reader, newMailSender(&cfg.Mail), m, loc)
	availability := bookingService.NewAvailabilityService(bookingRepo, roomTypeRepo)
	bookingSvc := bookingService.NewBookingService(
		roomTypeRepo, addonRepo, bookingRepo,
		bookingService.NewCalendarLoader(holidayRepo, settingRepo),
		reader, availability, m, bc, notifier,
	)
	lifecycle := bookingService.NewLifecycleService(bookingRepo, m, notifier)
	reminders := bookingService.NewReminderService(bookingRepo, loc, time.Duration(bc.PaymentReminderHours)*time.Hour)

	a := &app{
		cfg:     cfg,
		db:      db,
		redis:   redisClient,
		metrics: m,
		ecpay: ecpay.NewClient(ecpay.Config{
			MerchantID: cfg.ECPay.MerchantID,
			HashKey:    cfg.ECPay.HashKey,
			HashIV:     cfg.ECPay.HashIV,
		}),
		bookingSvc:   bookingSvc,
		lifecycle:    lifecycle,
		availability: availability,
		notifier:     notifier,
		roomTypeSvc:  adminService.NewRoomTypeService(roomTypeRepo, bookingRepo),
		addonSvc:     adminService.NewAddonService(addonRepo),
		holidaySvc:   adminService.NewHolidayService(holidayRepo, settingRepo),
		settingSvc:   adminService.NewSettingService(settingRepo, reader),
		templateSvc:  adminService.NewEmailTemplateService(templateRepo, bookingRepo, loc),
		customerSvc:  adminService.NewCustomerService(bookingRepo),
		dashboard:    adminService.NewDashboardService(bookingRepo, loc),
		tasks:        scheduler.NewTaskHandler(lifecycle, reminders, notifier, redisClient, bc),
	}

	if redisClient != nil {
		codes := privacyService.NewCodeService(redisClient, notifier, &privacyService.CodeServiceConfig{
			ExpireIn: bc.VerifyCodeDuration(),
		})
		a.erasure = privacyService.NewErasureService(codes, bookingRepo, lifecycle)
	}
	return a
}

// newMailSender 按 mail.driver 选择寄信方式
func newMailSender(cfg *config.MailConfig) mailer.Sender {
	switch cfg.Driver {
	case "smtp":
		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		})
	default:
		return mailer.NewLogSender(logger.Named("mailer"))
	}
}

// connectRedis 连接 Redis，未启用或连接失败时返回 nil
func connectRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled")
		return nil
	}
	client, err := cache.Init(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, rate limit and erasure codes disabled", zap.Error(err))
		return nil
	}
	logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}
