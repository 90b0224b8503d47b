package entity

import "time"

// Product is a sellable SKU. Stock is owned by service/stock; nothing
// else may write the stock column once the row exists. A product with
// BallID set was generated by sorting ("sortir" kind).
type Product struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"column:name;type:varchar(191);not null" json:"name"`
	Category         string    `gorm:"column:category;type:varchar(128);not null" json:"category"`
	Grade            string    `gorm:"column:grade;type:varchar(16)" json:"grade"`
	Stock            int       `gorm:"column:stock;not null;default:0" json:"stock"`
	PricePcs         *int64    `gorm:"column:price_pcs" json:"pricePcs"`
	PriceBulk        *int64    `gorm:"column:price_bulk" json:"priceBulk"`
	PriceKg          *int64    `gorm:"column:price_kg" json:"priceKg"`
	LastBuyPrice     *int64    `gorm:"column:last_buy_price" json:"lastBuyPrice"`
	LastPurchaseType string    `gorm:"column:last_purchase_type;type:varchar(8)" json:"lastPurchaseType"`
	BallID           *uint     `gorm:"column:ball_id;index" json:"ballId"`
	IsDeleted        bool      `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// DefaultUnitPrice picks the first configured price, used when an imported
// order line carries no usable price.
func (p Product) DefaultUnitPrice() int64 {
	switch {
	case p.PricePcs != nil && *p.PricePcs > 0:
		return *p.PricePcs
	case p.PriceBulk != nil && *p.PriceBulk > 0:
		return *p.PriceBulk
	case p.PriceKg != nil && *p.PriceKg > 0:
		return *p.PriceKg
	}
	return 0
}
