package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Sales channel platforms. OFFLINE is the implicit default channel for
// in-store sales; at most one active OFFLINE account is auto-created.
const (
	PlatformShopee  = "SHOPEE"
	PlatformTikTok  = "TIKTOK"
	PlatformOffline = "OFFLINE"
)

// ChannelAccount is a configured sales outlet. Credentials is a merged
// JSON blob (access_token, refresh_token, expire_at, shop_id, merchant_id,
// seller_id, region); patches are merged in, never wholesale-replaced, so
// platform identifiers survive token refreshes.
type ChannelAccount struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Platform    string         `gorm:"column:platform;type:varchar(16);not null;index" json:"platform"`
	Label       string         `gorm:"column:label;type:varchar(128)" json:"label"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	Credentials datatypes.JSON `gorm:"column:credentials" json:"-"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ChannelAccount) TableName() string {
	return "channel_accounts"
}
