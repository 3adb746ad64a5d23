package booking

import (
	"context"
	"sort"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// Overlaps 判断两个半开区间 [aIn, aOut) 与 [bIn, bOut) 是否重叠
// 日期为 YYYY-MM-DD，字典序即时间顺序
func Overlaps(aIn, aOut, bIn, bOut string) bool {
	return aIn < bOut && aOut > bIn
}

// occupies 订单是否占用该房型
// 没有房型 ID 的历史订单按名称归属
func occupies(b *models.Booking, roomType *models.RoomType) bool {
	if b.RoomTypeID != 0 {
		return b.RoomTypeID == roomType.ID
	}
	return b.RoomTypeName == roomType.Name
}

// RoomTypeAvailability 房型在某区间的可订状态
type RoomTypeAvailability struct {
	RoomType  *models.RoomType `json:"room_type"`
	Available bool             `json:"available"`
}

// AvailabilityService 空房检查
type AvailabilityService struct {
	bookings  BookingStore
	roomTypes RoomTypeStore
}

// NewAvailabilityService 创建空房检查服务
func NewAvailabilityService(bookings BookingStore, roomTypes RoomTypeStore) *AvailabilityService {
	return &AvailabilityService{bookings: bookings, roomTypes: roomTypes}
}

// IsRoomTypeAvailable 房型在 [checkIn, checkOut) 是否可订
func (s *AvailabilityService) IsRoomTypeAvailable(ctx context.Context, roomTypeID int64, roomTypeName string, checkIn, checkOut time.Time) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, errors.ErrInvalidDateRange
	}
	overlapping, err := s.bookings.ListOverlapping(ctx, roomTypeID, roomTypeName, utils.FormatDate(checkIn), utils.FormatDate(checkOut))
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return len(overlapping) == 0, nil
}

// Check 列出上架房型在区间内的可订状态
func (s *AvailabilityService) Check(ctx context.Context, checkIn, checkOut time.Time) ([]*RoomTypeAvailability, error) {
	if !checkOut.After(checkIn) {
		return nil, errors.ErrInvalidDateRange
	}

	roomTypes, err := s.roomTypes.ListActive(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	occupying, err := s.bookings.ListOccupyingBetween(ctx, utils.FormatDate(checkIn), utils.FormatDate(checkOut))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*RoomTypeAvailability, 0, len(roomTypes))
	for _, rt := range roomTypes {
		available := true
		for _, b := range occupying {
			if occupies(b, rt) {
				available = false
				break
			}
		}
		result = append(result, &RoomTypeAvailability{RoomType: rt, Available: available})
	}
	return result, nil
}

// UnavailableRoomTypes 区间内已被占用的上架房型名称
func (s *AvailabilityService) UnavailableRoomTypes(ctx context.Context, checkIn, checkOut time.Time) ([]string, error) {
	all, err := s.Check(ctx, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for _, a := range all {
		if !a.Available {
			names = append(names, a.RoomType.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
