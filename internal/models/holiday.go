package models

import "time"

// Holiday 假日
// IsWeekend 为 true 的记录是批量生成的周末日期，不作为手动假日参与判定
type Holiday struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"date"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsWeekend bool      `gorm:"not null" json:"is_weekend"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Holiday) TableName() string {
	return "holidays"
}
