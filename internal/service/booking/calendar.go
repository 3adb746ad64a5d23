package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// DefaultBusinessWeekdays 默认平日：周一至周五
var DefaultBusinessWeekdays = []int{1, 2, 3, 4, 5}

// Calendar 假日判定快照，创建后不可变
// 日期一律按日历日期处理，由调用方以 utils.ParseDate 解析
type Calendar struct {
	holidays     map[string]struct{}
	businessDays [7]bool
}

// NewCalendar 创建假日判定快照，businessWeekdays 为空时使用默认平日
func NewCalendar(holidays []string, businessWeekdays []int) *Calendar {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, d := range holidays {
		c.holidays[d] = struct{}{}
	}
	if len(businessWeekdays) == 0 {
		businessWeekdays = DefaultBusinessWeekdays
	}
	for _, wd := range businessWeekdays {
		if wd >= 0 && wd <= 6 {
			c.businessDays[wd] = true
		}
	}
	return c
}

// IsHolidayOrWeekend 判断日期是否按假日计价
// 手动假日一律为真；includeWeekend 为 false 时只看手动假日
func (c *Calendar) IsHolidayOrWeekend(date time.Time, includeWeekend bool) bool {
	if c.IsManualHoliday(date) {
		return true
	}
	if !includeWeekend {
		return false
	}
	return !c.businessDays[date.Weekday()]
}

// IsManualHoliday 是否为手动设定的假日
func (c *Calendar) IsManualHoliday(date time.Time) bool {
	_, ok := c.holidays[utils.FormatDate(date)]
	return ok
}

// BusinessWeekdays 返回平日集合
func (c *Calendar) BusinessWeekdays() []int {
	days := make([]int, 0, 7)
	for wd, ok := range c.businessDays {
		if ok {
			days = append(days, wd)
		}
	}
	return days
}

// weekdaySetting weekday_settings 的 JSON 格式
type weekdaySetting struct {
	Weekdays []int `json:"weekdays"`
}

// ParseBusinessWeekdays 解析平日设定，支持 {"weekdays":[1,2]} 与 [1,2] 两种写法
func ParseBusinessWeekdays(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty weekday setting")
	}

	var days []int
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &days); err != nil {
			return nil, fmt.Errorf("invalid weekday setting: %w", err)
		}
	} else {
		var s weekdaySetting
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("invalid weekday setting: %w", err)
		}
		if s.Weekdays == nil {
			return nil, fmt.Errorf("weekday setting missing weekdays field")
		}
		days = s.Weekdays
	}

	seen := make(map[int]bool, len(days))
	result := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("weekday %d out of range 0-6", d)
		}
		if !seen[d] {
			seen[d] = true
			result = append(result, d)
		}
	}
	sort.Ints(result)
	return result, nil
}

// FormatBusinessWeekdays 序列化平日设定
func FormatBusinessWeekdays(days []int) string {
	data, _ := json.Marshal(weekdaySetting{Weekdays: days})
	return string(data)
}

// CalendarLoader 从假日表与平日设定构建 Calendar
type CalendarLoader struct {
	holidays HolidayStore
	settings SettingStore
}

// NewCalendarLoader 创建 CalendarLoader
func NewCalendarLoader(holidays HolidayStore, settings SettingStore) *CalendarLoader {
	return &CalendarLoader{holidays: holidays, settings: settings}
}

// Load 读取当前假日与平日设定
// 平日设定缺失或无法解析时退回周一至周五，只记录警告
func (l *CalendarLoader) Load(ctx context.Context) (*Calendar, error) {
	holidays, err := l.holidays.List(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(holidays))
	for _, h := range holidays {
		// 批量生成的周末记录由平日设定推导，不作为手动假日
		if !h.IsWeekend {
			dates = append(dates, h.Date)
		}
	}

	weekdays, err := l.loadWeekdays(ctx)
	if err != nil {
		return nil, err
	}
	return NewCalendar(dates, weekdays), nil
}

func (l *CalendarLoader) loadWeekdays(ctx context.Context) ([]int, error) {
	setting, err := l.settings.Get(ctx, models.SettingWeekdays)
	if err != nil {
		if repository.IsNotFound(err) {
			return DefaultBusinessWeekdays, nil
		}
		return nil, err
	}

	days, err := ParseBusinessWeekdays(setting.Value)
	if err != nil {
		logger.Warn("平日设定无法解析，使用默认值",
			logger.Module("calendar"),
			logger.Err(err),
			logger.String("raw", setting.Value),
		)
		return DefaultBusinessWeekdays, nil
	}
	return days, nil
}
