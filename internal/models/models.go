// Package models 定义数据库模型
package models

// AllModels 返回需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&RoomType{},
		&Holiday{},
		&Setting{},
		&Addon{},
		&Booking{},
		&BookingNight{},
		&BookingEmailLog{},
		&EmailTemplate{},
	}
}
