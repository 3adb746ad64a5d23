package booking

import (
	"sort"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// StayPrice 住宿房价明细
type StayPrice struct {
	Nights       int                `json:"nights"`
	NightlyRates []models.NightRate `json:"nightly_rates"`
	TotalAmount  int64              `json:"total_amount"`
}

// NightDates 每晚的日期
func (p *StayPrice) NightDates() []string {
	dates := make([]string, 0, len(p.NightlyRates))
	for _, r := range p.NightlyRates {
		dates = append(dates, r.Date)
	}
	return dates
}

// PricePerNight 平均每晚房价（向下取整）
func (p *StayPrice) PricePerNight() int64 {
	if p.Nights == 0 {
		return 0
	}
	return p.TotalAmount / int64(p.Nights)
}

// PriceForStay 计算 [checkIn, checkOut) 每晚房价，退房日不计费
func PriceForStay(cal *Calendar, roomType *models.RoomType, checkIn, checkOut time.Time) (*StayPrice, error) {
	nights := utils.DaysBetween(checkIn, checkOut)
	if nights < 1 {
		return nil, errors.ErrInvalidDateRange.WithMessage("退房日期必须晚于入住日期")
	}

	price := &StayPrice{
		Nights:       nights,
		NightlyRates: make([]models.NightRate, 0, nights),
	}
	for _, night := range utils.EachNight(checkIn, checkOut) {
		holiday := cal.IsHolidayOrWeekend(night, true)
		rate := roomType.BasePrice
		if holiday {
			rate += roomType.HolidaySurcharge
		}
		if rate < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("房型价格设定不正确")
		}
		price.NightlyRates = append(price.NightlyRates, models.NightRate{
			Date:      utils.FormatDate(night),
			Rate:      rate,
			IsHoliday: holiday,
		})
		price.TotalAmount += rate
	}
	return price, nil
}

// DepositAmount 订金金额，四舍五入到整数
func DepositAmount(total int64, percentage int) int64 {
	if percentage <= 0 {
		return 0
	}
	if percentage >= 100 {
		return total
	}
	return (total*int64(percentage) + 50) / 100
}

// ResolveAddons 将加购代码解析为价格快照，重复的代码累加数量
func ResolveAddons(codes []string, catalogue []*models.Addon) ([]models.AddonLine, int64, error) {
	if len(codes) == 0 {
		return nil, 0, nil
	}
	byCode := make(map[string]*models.Addon, len(catalogue))
	for _, a := range catalogue {
		byCode[a.Code] = a
	}

	quantities := make(map[string]int, len(codes))
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			return nil, 0, errors.ErrAddonNotFound.WithMessage("加购项目不存在或已停售: " + code)
		}
		quantities[code]++
	}

	lines := make([]models.AddonLine, 0, len(quantities))
	var total int64
	for code, qty := range quantities {
		a := byCode[code]
		line := models.AddonLine{
			Code:     a.Code,
			Name:     a.Name,
			Price:    a.Price,
			Quantity: qty,
			Subtotal: a.Price * int64(qty),
		}
		total += line.Subtotal
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Code < lines[j].Code })
	return lines, total, nil
}

// Quote 报价
// TotalAmount 只含房费；订金只对房费计算，加购项目一律全额收取
type Quote struct {
	RoomTypeID        int64              `json:"room_type_id"`
	RoomTypeName      string             `json:"room_type_name"`
	CheckInDate       string             `json:"check_in_date"`
	CheckOutDate      string             `json:"check_out_date"`
	Nights            int                `json:"nights"`
	NightlyRates      []models.NightRate `json:"nightly_rates"`
	PricePerNight     int64              `json:"price_per_night"`
	TotalAmount       int64              `json:"total_amount"`
	Addons            []models.AddonLine `json:"addons"`
	AddonsTotal       int64              `json:"addons_total"`
	PaymentAmountType string             `json:"payment_amount_type"`
	DepositPercentage int                `json:"deposit_percentage"`
	FinalAmount       int64              `json:"final_amount"`
	AmountDue         int64              `json:"amount_due"`
	GrandTotal        int64              `json:"grand_total"`
}

// BuildQuote 组合房费、加购与订金
func BuildQuote(roomType *models.RoomType, stay *StayPrice, addons []models.AddonLine, addonsTotal int64, isDeposit bool, depositPercentage int) *Quote {
	q := &Quote{
		RoomTypeID:        roomType.ID,
		RoomTypeName:      roomType.Name,
		Nights:            stay.Nights,
		NightlyRates:      stay.NightlyRates,
		PricePerNight:     stay.PricePerNight(),
		TotalAmount:       stay.TotalAmount,
		Addons:            addons,
		AddonsTotal:       addonsTotal,
		PaymentAmountType: models.PaymentAmountFull,
		FinalAmount:       stay.TotalAmount,
	}
	if isDeposit {
		q.PaymentAmountType = models.PaymentAmountDeposit
		q.DepositPercentage = depositPercentage
		q.FinalAmount = DepositAmount(stay.TotalAmount, depositPercentage)
	}
	q.AmountDue = q.FinalAmount + q.AddonsTotal
	q.GrandTotal = q.TotalAmount + q.AddonsTotal
	return q
}
