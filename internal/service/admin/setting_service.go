package admin

import (
	"context"
	"strconv"
	"strings"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	"github.com/dumeirei/homestay-booking-backend/internal/service/booking"
)

// SettingService 系统设定管理
type SettingService struct {
	repo   *repository.SettingRepository
	reader *booking.SettingsReader
}

// NewSettingService 创建系统设定服务
func NewSettingService(repo *repository.SettingRepository, reader *booking.SettingsReader) *SettingService {
	return &SettingService{repo: repo, reader: reader}
}

// SetSettingRequest 写入设定请求
type SetSettingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// BankTransferInfo 转账资讯
type BankTransferInfo struct {
	BankName    string `json:"bank_name"`
	Account     string `json:"account"`
	AccountName string `json:"account_name"`
}

// intRanges 整数设定的合法范围
var intRanges = map[string][2]int{
	models.SettingDepositPercentage: {1, 100},
	models.SettingDaysReserved:      {1, 60},
}

// List 获取全部设定
func (s *SettingService) List(ctx context.Context) ([]*models.Setting, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// Get 获取设定
func (s *SettingService) Get(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrNotFound.WithMessage("设定不存在")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return setting, nil
}

// Set 写入设定，已知键会先校验格式
func (s *SettingService) Set(ctx context.Context, key string, req *SetSettingRequest) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 64 {
		return nil, errors.ErrInvalidParams.WithMessage("设定键不正确")
	}
	value := strings.TrimSpace(req.Value)

	if r, ok := intRanges[key]; ok {
		v, err := strconv.Atoi(value)
		if err != nil || v < r[0] || v > r[1] {
			return nil, errors.ErrSettingInvalid.WithMessage(key + " 必须为 " + strconv.Itoa(r[0]) + "-" + strconv.Itoa(r[1]) + " 的整数")
		}
	}
	if key == models.SettingWeekdays {
		days, err := booking.ParseBusinessWeekdays(value)
		if err != nil || len(days) == 0 {
			return nil, errors.ErrSettingInvalid.WithMessage("平日设定格式不正确")
		}
		value = booking.FormatBusinessWeekdays(days)
	}

	setting := &models.Setting{Key: key, Value: value, Description: req.Description}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return setting, nil
}

// GetDepositPercentage 当前订金比例
func (s *SettingService) GetDepositPercentage(ctx context.Context) (int, error) {
	pct, err := s.reader.DepositPercentage(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return pct, nil
}

// BankTransferInfo 转账资讯
func (s *SettingService) BankTransferInfo(ctx context.Context) (*BankTransferInfo, error) {
	info := &BankTransferInfo{}
	for key, dst := range map[string]*string{
		models.SettingBankName:        &info.BankName,
		models.SettingBankAccount:     &info.Account,
		models.SettingBankAccountName: &info.AccountName,
	} {
		v, err := s.reader.Value(ctx, key, "")
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		*dst = v
	}
	return info, nil
}

// DefaultSettings 初始设定
func DefaultSettings(depositPercentage, daysReserved int) []*models.Setting {
	return []*models.Setting{
		{Key: models.SettingDepositPercentage, Value: strconv.Itoa(depositPercentage), Description: "订金比例 (%)"},
		{Key: models.SettingDaysReserved, Value: strconv.Itoa(daysReserved), Description: "转账订单保留天数"},
		{Key: models.SettingWeekdays, Value: booking.FormatBusinessWeekdays(booking.DefaultBusinessWeekdays), Description: "平日（非假日计价）的星期，0 为周日"},
		{Key: models.SettingHotelName, Value: "", Description: "民宿名称"},
		{Key: models.SettingHotelPhone, Value: "", Description: "联络电话"},
		{Key: models.SettingBankName, Value: "", Description: "转账银行"},
		{Key: models.SettingBankAccount, Value: "", Description: "转账账号"},
		{Key: models.SettingBankAccountName, Value: "", Description: "转账户名"},
	}
}

// SeedDefaults 写入缺失的初始设定，返回新增数量
func (s *SettingService) SeedDefaults(ctx context.Context, depositPercentage, daysReserved int) (int, error) {
	n := 0
	for _, setting := range DefaultSettings(depositPercentage, daysReserved) {
		created, err := s.repo.CreateIfMissing(ctx, setting)
		if err != nil {
			return n, errors.ErrDatabaseError.WithError(err)
		}
		if created {
			n++
		}
	}
	return n, nil
}
