package entity

import "time"

// Store is a physical or online sales outlet referenced by transactions.
type Store struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Type      string    `gorm:"column:type;type:varchar(32);not null" json:"type"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Store) TableName() string {
	return "stores"
}
