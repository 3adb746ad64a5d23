// Package logger 提供结构化日志功能
package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.Logger

// 日志时间格式
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Init 初始化日志，output 为 stdout、file 或 both
func Init(cfg *config.LoggerConfig) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.FunctionKey = zapcore.OmitKey
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer, err := newWriter(cfg)
	if err != nil {
		return err
	}

	options := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	log = zap.New(zapcore.NewCore(encoder, writer, getLogLevel(cfg.Level)), options...)
	return nil
}

func newWriter(cfg *config.LoggerConfig) (zapcore.WriteSyncer, error) {
	var writers []zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stdout":
		writers = append(writers, zapcore.AddSync(os.Stdout))
	case "file", "both":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("logger output %q requires file_path", cfg.Output)
		}
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}))
		if cfg.Output == "both" {
			writers = append(writers, zapcore.AddSync(os.Stdout))
		}
	default:
		return nil, fmt.Errorf("unsupported logger output: %s", cfg.Output)
	}
	return zapcore.NewMultiWriteSyncer(writers...), nil
}

// getLogLevel 解析日志级别，无法识别时使用 info
func getLogLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

// GetLogger 获取原始日志器，未初始化时使用开发模式
func GetLogger() *zap.Logger {
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	return log
}

// SetLogger 替换全局日志器，测试中常用 zap.NewNop()
func SetLogger(l *zap.Logger) {
	log = l
}

// Sync 同步日志
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 信息日志
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 错误日志
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// With 返回带有字段的日志器
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// Named 返回命名日志器
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// 常用字段构造函数
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Any      = zap.Any
	Err      = zap.Error
	Duration = zap.Duration
)

// BookingNo 订单编号字段
func BookingNo(no string) zap.Field {
	return zap.String("booking_no", no)
}

// BookingID 订单ID字段
func BookingID(id int64) zap.Field {
	return zap.Int64("booking_id", id)
}

// RoomTypeID 房型ID字段
func RoomTypeID(id int64) zap.Field {
	return zap.Int64("room_type_id", id)
}

// Template 邮件模板字段
func Template(key string) zap.Field {
	return zap.String("template", key)
}

// Status 订单状态字段
func Status(status, paymentStatus string) zap.Field {
	return zap.Strings("status", []string{status, paymentStatus})
}

// Module 模块字段
func Module(name string) zap.Field {
	return zap.String("module", name)
}

// Action 操作字段
func Action(name string) zap.Field {
	return zap.String("action", name)
}

// Latency 延迟字段
func Latency(d time.Duration) zap.Field {
	return zap.Duration("latency", d)
}

// Path 路径字段
func Path(path string) zap.Field {
	return zap.String("path", path)
}

// IP IP地址字段
func IP(ip string) zap.Field {
	return zap.String("ip", ip)
}
