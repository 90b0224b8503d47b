package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Ball status values. Status only ever advances; sorting moves a ball to
// BallSorted on its first sort session.
const (
	BallUnopened = "UNOPENED"
	BallOpened   = "OPENED"
	BallSorted   = "SORTED"
)

// Ball represents one bulk intake lot of ungraded goods.
type Ball struct {
	ID             uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code           string         `gorm:"column:code;type:varchar(64);not null;uniqueIndex" json:"code"`
	Origin         string         `gorm:"column:origin;type:varchar(128);not null" json:"origin"`
	Category       string         `gorm:"column:category;type:varchar(128);not null" json:"category"`
	Supplier       string         `gorm:"column:supplier;type:varchar(128);not null" json:"supplier"`
	WeightKg       float64        `gorm:"column:weight_kg;not null" json:"weightKg"`
	BuyPrice       int64          `gorm:"column:buy_price;not null" json:"buyPrice"`
	Status         string         `gorm:"column:status;type:varchar(16);not null;default:UNOPENED" json:"status"`
	TotalPcsOpened int            `gorm:"column:total_pcs_opened;not null;default:0" json:"totalPcsOpened"`
	DocURL         datatypes.JSON `gorm:"column:doc_url" json:"docUrl"`
	CreatedBy      *uint          `gorm:"column:created_by" json:"createdBy"`
	UpdatedBy      *uint          `gorm:"column:updated_by" json:"updatedBy"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Ball) TableName() string {
	return "balls"
}
