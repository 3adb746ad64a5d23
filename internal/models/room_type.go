package models

import (
	"time"

	"gorm.io/datatypes"
)

// RoomType 房型
type RoomType struct {
	ID               int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code             string                      `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name             string                      `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description      string                      `gorm:"type:text" json:"description"`
	BasePrice        int64                       `gorm:"not null" json:"base_price"`
	HolidaySurcharge int64                       `gorm:"not null;default:0" json:"holiday_surcharge"`
	MaxOccupancy     int                         `gorm:"not null;default:2" json:"max_occupancy"`
	ExtraBeds        int                         `gorm:"not null;default:0" json:"extra_beds"`
	Icon             string                      `gorm:"type:varchar(50)" json:"icon"`
	Images           datatypes.JSONSlice[string] `json:"images"`
	Amenities        datatypes.JSONSlice[string] `json:"amenities"`
	SortOrder        int                         `gorm:"not null;default:0" json:"sort_order"`
	IsActive         bool                        `gorm:"not null" json:"is_active"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (RoomType) TableName() string {
	return "room_types"
}

// MaxGuests 含加床的最大入住人数
func (r *RoomType) MaxGuests() int {
	return r.MaxOccupancy + r.ExtraBeds
}

// HolidayRate 假日房价
func (r *RoomType) HolidayRate() int64 {
	return r.BasePrice + r.HolidaySurcharge
}
