package models

import "time"

// Setting 系统设定
type Setting struct {
	Key         string    `gorm:"column:setting_key;type:varchar(64);primaryKey" json:"key"`
	Value       string    `gorm:"type:text;not null" json:"value"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Setting) TableName() string {
	return "settings"
}

// 设定键
const (
	SettingDepositPercentage = "deposit_percentage" // 订金比例 0-100
	SettingDaysReserved      = "days_reserved"      // 转账保留天数
	SettingWeekdays          = "weekday_settings"   // 平日定义 {"weekdays":[1,2,3,4,5]}
	SettingHotelName         = "hotel_name"
	SettingHotelPhone        = "hotel_phone"
	SettingBankName          = "bank_name"
	SettingBankAccount       = "bank_account"
	SettingBankAccountName   = "bank_account_name"
)
