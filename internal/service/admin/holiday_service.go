package admin

import (
	"context"
	"strings"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/common/validator"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
	"github.com/dumeirei/homestay-booking-backend/internal/service/booking"
)

// 单次批量写入的最大天数
const maxHolidayRangeDays = 366

// HolidayService 假日与平日设定管理
type HolidayService struct {
	repo     *repository.HolidayRepository
	settings *repository.SettingRepository
}

// NewHolidayService 创建假日管理服务
func NewHolidayService(repo *repository.HolidayRepository, settings *repository.SettingRepository) *HolidayService {
	return &HolidayService{repo: repo, settings: settings}
}

// AddHolidayRequest 新增假日请求
type AddHolidayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,max=100"`
}

// AddRangeRequest 批量新增假日请求，日期为闭区间
type AddRangeRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,max=100"`
}

// RangeResult 批量操作结果
type RangeResult struct {
	Created int64 `json:"created"`
	Skipped int64 `json:"skipped"`
	Removed int64 `json:"removed,omitempty"`
}

// List 获取假日，from/to 为空时返回全部
func (s *HolidayService) List(ctx context.Context, from, to string) ([]*models.Holiday, error) {
	var (
		list []*models.Holiday
		err  error
	)
	if from != "" && to != "" {
		if _, _, err := parseRange(from, to); err != nil {
			return nil, err
		}
		list, err = s.repo.ListBetween(ctx, from, to)
	} else {
		list, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// AddHoliday 新增单日假日
// 该日已有周末记录时改为手动假日，已是手动假日时返回 ErrAlreadyExists
func (s *HolidayService) AddHoliday(ctx context.Context, req *AddHolidayRequest) (*models.Holiday, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	converted, err := s.repo.ConvertWeekend(ctx, req.Date, name)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if converted != nil {
		logger.Info("周末记录已改为假日", logger.Module("calendar"), logger.String("date", converted.Date))
		return converted, nil
	}

	h := &models.Holiday{Date: req.Date, Name: name}
	if err := s.repo.Create(ctx, h); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errors.ErrAlreadyExists.WithMessage("该日期已设定为假日")
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("假日已新增", logger.Module("calendar"), logger.String("date", h.Date))
	return h, nil
}

// AddRange 批量新增假日，已存在的日期跳过
func (s *HolidayService) AddRange(ctx context.Context, req *AddRangeRequest) (*RangeResult, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	var holidays []*models.Holiday
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		holidays = append(holidays, &models.Holiday{Date: utils.FormatDate(d), Name: name})
	}
	created, err := s.repo.CreateBatch(ctx, holidays)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &RangeResult{Created: created, Skipped: int64(len(holidays)) - created}, nil
}

// GenerateWeekends 依平日设定重建区间内的周末记录
// 周末记录只用于后台日历显示，计价仍由平日设定决定
func (s *HolidayService) GenerateWeekends(ctx context.Context, fromDate, toDate string) (*RangeResult, error) {
	from, to, err := parseRange(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	weekdays, err := s.GetWeekdaySettings(ctx)
	if err != nil {
		return nil, err
	}
	cal := booking.NewCalendar(nil, weekdays)

	removed, err := s.repo.DeleteWeekendsBetween(ctx, fromDate, toDate)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	var weekends []*models.Holiday
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if cal.IsHolidayOrWeekend(d, true) {
			weekends = append(weekends, &models.Holiday{Date: utils.FormatDate(d), Name: "周末", IsWeekend: true})
		}
	}
	created, err := s.repo.CreateBatch(ctx, weekends)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &RangeResult{Created: created, Skipped: int64(len(weekends)) - created, Removed: removed}, nil
}

// DeleteHoliday 删除手动假日，周末记录需通过 GenerateWeekends 重建
func (s *HolidayService) DeleteHoliday(ctx context.Context, id int64) error {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return errors.ErrHolidayNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if h.IsWeekend {
		return errors.ErrInvalidParams.WithMessage("周末记录由平日设定产生，不能单独删除")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !deleted {
		return errors.ErrHolidayNotFound
	}
	logger.Info("假日已删除", logger.Module("calendar"), logger.String("date", h.Date))
	return nil
}

// GetWeekdaySettings 读取平日设定，缺失或无法解析时返回默认值
func (s *HolidayService) GetWeekdaySettings(ctx context.Context) ([]int, error) {
	setting, err := s.settings.Get(ctx, models.SettingWeekdays)
	if err != nil {
		if repository.IsNotFound(err) {
			return booking.DefaultBusinessWeekdays, nil
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	days, err := booking.ParseBusinessWeekdays(setting.Value)
	if err != nil {
		logger.Warn("平日设定无法解析，使用默认值", logger.Module("calendar"), logger.Err(err))
		return booking.DefaultBusinessWeekdays, nil
	}
	return days, nil
}

// UpdateWeekdaySettings 更新平日设定，0 为周日
func (s *HolidayService) UpdateWeekdaySettings(ctx context.Context, days []int) ([]int, error) {
	normalized, err := booking.ParseBusinessWeekdays(booking.FormatBusinessWeekdays(days))
	if err != nil {
		return nil, errors.ErrSettingInvalid.WithMessage(err.Error())
	}
	if len(normalized) == 0 {
		return nil, errors.ErrSettingInvalid.WithMessage("至少需要设定一个平日")
	}

	err = s.settings.Upsert(ctx, &models.Setting{
		Key:         models.SettingWeekdays,
		Value:       booking.FormatBusinessWeekdays(normalized),
		Description: "平日（非假日计价）的星期，0 为周日",
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return normalized, nil
}

func parseRange(fromDate, toDate string) (from, to time.Time, err error) {
	from, err = utils.ParseDate(fromDate)
	if err != nil {
		return from, to, errors.ErrInvalidParams.WithMessage("起始日期格式不正确")
	}
	to, err = utils.ParseDate(toDate)
	if err != nil {
		return from, to, errors.ErrInvalidParams.WithMessage("结束日期格式不正确")
	}
	if to.Before(from) {
		return from, to, errors.ErrInvalidDateRange.WithMessage("结束日期不能早于起始日期")
	}
	if utils.DaysBetween(from, to) >= maxHolidayRangeDays {
		return from, to, errors.ErrInvalidDateRange.WithMessage("区间不能超过一年")
	}
	return from, to, nil
}
