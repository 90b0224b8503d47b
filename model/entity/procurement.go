package entity

import "time"

// Purchase types for procurement batches.
const (
	PurchaseUnit = "UNIT"
	PurchaseBulk = "BULK"
	PurchaseKg   = "KG"
)

// Procurement is an intake batch header. Soft-deleted via DeletedAt;
// deletion rolls every item's stock contribution back first.
type Procurement struct {
	ID           uint              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Supplier     string            `gorm:"column:supplier;type:varchar(128)" json:"supplier"`
	PurchaseType string            `gorm:"column:purchase_type;type:varchar(8);not null" json:"purchaseType"`
	OccurredAt   time.Time         `gorm:"column:occurred_at;not null" json:"occurredAt"`
	Note         *string           `gorm:"column:note;type:text" json:"note"`
	DocURL       *string           `gorm:"column:doc_url;type:varchar(255)" json:"docUrl"`
	CreatedBy    uint              `gorm:"column:created_by;not null" json:"createdBy"`
	DeletedAt    *time.Time        `gorm:"column:deleted_at;index" json:"deletedAt"`
	Items        []ProcurementItem `gorm:"foreignKey:ProcurementID" json:"items"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Procurement) TableName() string {
	return "procurements"
}

// ProcurementItem is one line of an intake batch. Subtotal is always
// recomputed server-side, never trusted from input.
type ProcurementItem struct {
	ID            uint  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProcurementID uint  `gorm:"column:procurement_id;not null;index" json:"procurementId"`
	ProductID     uint  `gorm:"column:product_id;not null;index" json:"productId"`
	QtyOrKg       int   `gorm:"column:qty_or_kg;not null" json:"qtyOrKg"`
	BuyPrice      int64 `gorm:"column:buy_price;not null" json:"buyPrice"`
	Subtotal      int64 `gorm:"column:subtotal;not null" json:"subtotal"`
}

func (ProcurementItem) TableName() string {
	return "procurement_items"
}
