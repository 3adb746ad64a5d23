package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/database"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/tracing"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/scheduler"
)

// bootstrap 加载配置、初始化日志与数据库
func bootstrap(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.Init(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connected", zap.String("driver", cfg.Database.Driver))
	return cfg, db, nil
}

func serveCmd(configPath *string) *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务与定时任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "启动前同步表结构")
	return cmd
}

func serve(configPath string, autoMigrate bool) error {
	cfg, db, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	log := logger.GetLogger()
	log.Info("Starting Homestay Booking Backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	if autoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}

	redisClient := connectRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	a := newApp(cfg, db, redisClient)

	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	setupRouter(engine, a, log)

	sched := scheduler.NewScheduler(a.metrics)
	a.tasks.Register(sched)
	sched.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		sched.Stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	log.Info("Shutting down server...")

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	sched.Stop()
	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "同步表结构",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("Migration completed")
			return nil
		},
	}
}

func sweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "执行一次逾期扫描与提醒寄送",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer database.Close()

			redisClient := connectRedis(cfg)
			if redisClient != nil {
				defer redisClient.Close()
			}
			a := newApp(cfg, db, redisClient)

			ctx := cmd.Context()
			for _, run := range []func(context.Context) error{
				a.tasks.ExpireReservations,
				a.tasks.SendPaymentReminders,
				a.tasks.SendCheckinReminders,
				a.tasks.SendFeedbackRequests,
			} {
				if err := run(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	var weekendDays int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "写入默认设定、邮件模板与周末假日",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			a := newApp(cfg, db, nil)
			ctx := cmd.Context()
			bc := cfg.Business.Booking

			settings, err := a.settingSvc.SeedDefaults(ctx, bc.DepositPercentage, bc.DaysReserved)
			if err != nil {
				return err
			}
			templates, err := a.templateSvc.SeedDefaults(ctx)
			if err != nil {
				return err
			}

			from := utils.DateOf(time.Now(), bc.Location())
			result, err := a.holidaySvc.GenerateWeekends(ctx, utils.FormatDate(from), utils.FormatDate(from.AddDate(0, 0, weekendDays)))
			if err != nil {
				return err
			}

			logger.Info("Seed completed",
				zap.Int("settings", settings),
				zap.Int("templates", templates),
				zap.Int64("weekends", result.Created),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&weekendDays, "weekend-days", 365, "生成今天起多少天内的周末假日")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
