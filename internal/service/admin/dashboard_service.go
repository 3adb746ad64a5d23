package admin

import (
	"context"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/repository"
)

// DashboardService 后台仪表盘
type DashboardService struct {
	bookings *repository.BookingRepository
	loc      *time.Location
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(bookings *repository.BookingRepository, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{bookings: bookings, loc: loc}
}

// Overview 仪表盘概览
type Overview struct {
	Date           string           `json:"date"`
	TodayCheckIns  int64            `json:"today_check_ins"`
	TodayCheckOuts int64            `json:"today_check_outs"`
	StatusCounts   map[string]int64 `json:"status_counts"`
	MonthRevenue   int64            `json:"month_revenue"` // 本月入住且已付款
}

// GetOverview 获取概览，日期按营业时区计算
func (s *DashboardService) GetOverview(ctx context.Context, now time.Time) (*Overview, error) {
	today := utils.DateOf(now, s.loc)
	date := utils.FormatDate(today)
	ov := &Overview{Date: date, StatusCounts: make(map[string]int64)}

	var err error
	if ov.TodayCheckIns, err = s.bookings.CountActiveCheckIns(ctx, date); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if ov.TodayCheckOuts, err = s.bookings.CountActiveCheckOuts(ctx, date); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, c := range counts {
		ov.StatusCounts[c.Status] = c.Count
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	if ov.MonthRevenue, err = s.bookings.SumPaidRevenue(ctx, utils.FormatDate(monthStart), utils.FormatDate(monthEnd)); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return ov, nil
}
