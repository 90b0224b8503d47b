package entity

import "time"

// SyncLog records one marketplace sync run (import, stock push, product
// push) for operator diagnosis. Append-only.
type SyncLog struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Platform  string    `gorm:"column:platform;type:varchar(16);not null" json:"platform"`
	AccountID uint      `gorm:"column:account_id;not null;index" json:"accountId"`
	Type      string    `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Status    string    `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
