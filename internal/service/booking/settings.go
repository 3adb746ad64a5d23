package booking

import (
	"context"
	"strconv"
	"strings"

	"github.com/dumeirei/homestay-booking-backend/internal/common/config"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// SettingsReader 读取订房相关的系统设定，缺失或非法时退回配置默认值
type SettingsReader struct {
	store    SettingStore
	defaults config.BookingConfig
}

// NewSettingsReader 创建设定读取器
func NewSettingsReader(store SettingStore, defaults config.BookingConfig) *SettingsReader {
	if defaults.DepositPercentage <= 0 || defaults.DepositPercentage > 100 {
		defaults.DepositPercentage = 30
	}
	if defaults.DaysReserved <= 0 {
		defaults.DaysReserved = 3
	}
	return &SettingsReader{store: store, defaults: defaults}
}

// DepositPercentage 订金比例 (1-100)
func (r *SettingsReader) DepositPercentage(ctx context.Context) (int, error) {
	return r.intSetting(ctx, models.SettingDepositPercentage, r.defaults.DepositPercentage, 1, 100)
}

// DaysReserved 转账订单保留天数
func (r *SettingsReader) DaysReserved(ctx context.Context) (int, error) {
	return r.intSetting(ctx, models.SettingDaysReserved, r.defaults.DaysReserved, 1, 60)
}

// Value 读取字符串设定，不存在时返回 fallback
func (r *SettingsReader) Value(ctx context.Context, key, fallback string) (string, error) {
	setting, err := r.store.Get(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return fallback, nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (r *SettingsReader) intSetting(ctx context.Context, key string, fallback, min, max int) (int, error) {
	setting, err := r.store.Get(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			logger.Warn("设定缺失，使用默认值",
				logger.Module("pricing"), logger.String("key", key), logger.Int("default", fallback))
			return fallback, nil
		}
		return 0, err
	}

	v, err := strconv.Atoi(strings.TrimSpace(setting.Value))
	if err != nil || v < min || v > max {
		logger.Warn("设定值不正确，使用默认值",
			logger.Module("pricing"),
			logger.String("key", key),
			logger.String("raw", setting.Value),
			logger.Int("default", fallback),
		)
		return fallback, nil
	}
	return v, nil
}
