package entity

import "time"

// Transaction is a sale record against a channel account and store.
// TotalPrice is always recomputed from Qty × UnitPrice.
type Transaction struct {
	ID               uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID        uint       `gorm:"column:product_id;not null;index" json:"productId"`
	ChannelAccountID uint       `gorm:"column:channel_account_id;not null;index" json:"channelAccountId"`
	StoreID          *uint      `gorm:"column:store_id;index" json:"storeId"`
	Qty              int        `gorm:"column:qty;not null" json:"qty"`
	UnitPrice        int64      `gorm:"column:unit_price;not null" json:"unitPrice"`
	TotalPrice       int64      `gorm:"column:total_price;not null" json:"totalPrice"`
	OccurredAt       time.Time  `gorm:"column:occurred_at;not null;index" json:"occurredAt"`
	Status           string     `gorm:"column:status;type:varchar(16);not null;default:paid" json:"status"`
	PriceType        string     `gorm:"column:price_type;type:varchar(8);not null;default:UNIT" json:"priceType"`
	Customer         *string    `gorm:"column:customer;type:varchar(128)" json:"customer"`
	Note             *string    `gorm:"column:note;type:text" json:"note"`
	UpdatedBy        *uint      `gorm:"column:updated_by" json:"updatedBy"`
	DeletedAt        *time.Time `gorm:"column:deleted_at;index" json:"deletedAt"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}
