package utils

import (
	"fmt"
	"time"
)

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf 取 t 在 loc 时区下的日历日期，以 UTC 零点表示
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween 两个日历日期之间的天数
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// EachNight 列出 [checkIn, checkOut) 内每一晚的日期
func EachNight(checkIn, checkOut time.Time) []time.Time {
	n := DaysBetween(checkIn, checkOut)
	if n <= 0 {
		return nil
	}
	nights := make([]time.Time, 0, n)
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// NormalizeTime 截断到秒并转为 UTC，保证写入两种数据库后读回一致
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
