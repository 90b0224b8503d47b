package procurement

import (
	"time"

	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	"ballstore.GO/service/stock"
)

// NewProduct describes a product created inline with an intake item.
type NewProduct struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Grade     string `json:"grade"`
	PricePcs  *int64 `json:"pricePcs"`
	PriceBulk *int64 `json:"priceBulk"`
	PriceKg   *int64 `json:"priceKg"`
}

// ItemInput is one line of an intake batch: either an existing product id
// or an inline new product.
type ItemInput struct {
	ProductID  uint        `json:"productId"`
	NewProduct *NewProduct `json:"newProduct"`
	QtyOrKg    int         `json:"qtyOrKg"`
	BuyPrice   int64       `json:"buyPrice"`
}

type Input struct {
	Supplier     string      `json:"supplier"`
	PurchaseType string      `json:"purchaseType"`
	OccurredAt   *time.Time  `json:"occurredAt"`
	Note         *string     `json:"note"`
	DocURL       *string     `json:"docUrl"`
	Items        []ItemInput `json:"items"`
}

func validPurchaseType(t string) bool {
	return t == entity.PurchaseUnit || t == entity.PurchaseBulk || t == entity.PurchaseKg
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return apperr.Validation("items must not be empty")
	}
	for _, it := range items {
		if it.QtyOrKg <= 0 {
			return apperr.Validation("qtyOrKg must be > 0")
		}
		if it.BuyPrice < 0 {
			return apperr.Validation("buyPrice must be >= 0")
		}
	}
	return nil
}

// applyItems attaches or creates the product for each item, writes the
// item row with a recomputed subtotal and adds the quantity to stock.
// Runs inside the caller's transaction.
func applyItems(tx *gorm.DB, procurementID uint, purchaseType string, items []ItemInput) error {
	for _, it := range items {
		productID := it.ProductID
		if productID == 0 {
			if it.NewProduct == nil {
				return apperr.Validation("newProduct is required for items without productId")
			}
			buy := it.BuyPrice
			created := entity.Product{
				Name:             it.NewProduct.Name,
				Category:         it.NewProduct.Category,
				Grade:            it.NewProduct.Grade,
				PricePcs:         it.NewProduct.PricePcs,
				PriceBulk:        it.NewProduct.PriceBulk,
				PriceKg:          it.NewProduct.PriceKg,
				Stock:            0,
				LastBuyPrice:     &buy,
				LastPurchaseType: purchaseType,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			productID = created.ID
		} else {
			res := tx.Model(&entity.Product{}).
				Where("id = ? AND is_deleted = ?", productID, false).
				Updates(map[string]interface{}{
					"last_buy_price":     it.BuyPrice,
					"last_purchase_type": purchaseType,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("product %d not found", productID)
			}
		}

		item := entity.ProcurementItem{
			ProcurementID: procurementID,
			ProductID:     productID,
			QtyOrKg:       it.QtyOrKg,
			BuyPrice:      it.BuyPrice,
			Subtotal:      int64(it.QtyOrKg) * it.BuyPrice,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		if err := stock.Adjust(tx, productID, it.QtyOrKg); err != nil {
			return err
		}
	}
	return nil
}

// Create records an intake batch and increments stock for every item, all
// in one transaction.
func Create(db *gorm.DB, actorID uint, in Input) (*entity.Procurement, error) {
	if !validPurchaseType(in.PurchaseType) {
		return nil, apperr.Validation("purchaseType must be UNIT/BULK/KG")
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	occurredAt := time.Now()
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}

	header := entity.Procurement{
		Supplier:     in.Supplier,
		PurchaseType: in.PurchaseType,
		OccurredAt:   occurredAt,
		Note:         in.Note,
		DocURL:       in.DocURL,
		CreatedBy:    actorID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&header).Error; err != nil {
			return err
		}
		return applyItems(tx, header.ID, in.PurchaseType, in.Items)
	})
	if err != nil {
		return nil, err
	}
	return Get(db, header.ID)
}

// Update replaces the item set: every existing item's stock contribution
// is reversed, items are deleted, then the new set is applied. One
// transaction, so product stock always reflects exactly the latest items.
func Update(db *gorm.DB, actorID uint, id uint, in Input) (*entity.Procurement, error) {
	if !validPurchaseType(in.PurchaseType) {
		return nil, apperr.Validation("purchaseType must be UNIT/BULK/KG")
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing entity.Procurement
		err := tx.Preload("Items").First(&existing, id).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("procurement %d not found", id)
		}
		if err != nil {
			return err
		}
		if existing.DeletedAt != nil {
			return apperr.Conflict("procurement %d already deleted", id)
		}

		for _, it := range existing.Items {
			if err := stock.Adjust(tx, it.ProductID, -it.QtyOrKg); err != nil {
				return err
			}
		}
		if err := tx.Where("procurement_id = ?", id).
			Delete(&entity.ProcurementItem{}).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"supplier":      in.Supplier,
			"purchase_type": in.PurchaseType,
			"note":          in.Note,
			"doc_url":       in.DocURL,
		}
		if in.OccurredAt != nil {
			updates["occurred_at"] = *in.OccurredAt
		}
		if err := tx.Model(&entity.Procurement{}).
			Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		return applyItems(tx, id, in.PurchaseType, in.Items)
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

// Delete reverses every item's stock contribution and soft-deletes the
// header. Deleting twice is a conflict, never a silent double rollback.
func Delete(db *gorm.DB, actorID uint, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var existing entity.Procurement
		err := tx.Preload("Items").First(&existing, id).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("procurement %d not found", id)
		}
		if err != nil {
			return err
		}
		if existing.DeletedAt != nil {
			return apperr.Conflict("procurement %d already deleted", id)
		}

		for _, it := range existing.Items {
			if err := stock.Adjust(tx, it.ProductID, -it.QtyOrKg); err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&entity.Procurement{}).
			Where("id = ?", id).Update("deleted_at", &now).Error
	})
}

// Get loads a procurement with its items.
func Get(db *gorm.DB, id uint) (*entity.Procurement, error) {
	var row entity.Procurement
	err := db.Preload("Items").First(&row, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("procurement %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Supplier     string
	PurchaseType string
	Limit        int
	Offset       int
}

// List returns non-deleted procurements newest first.
func List(db *gorm.DB, f ListFilter) ([]entity.Procurement, int64, error) {
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	q := db.Model(&entity.Procurement{}).Where("deleted_at IS NULL")
	if f.Supplier != "" {
		q = q.Where("supplier = ?", f.Supplier)
	}
	if f.PurchaseType != "" {
		q = q.Where("purchase_type = ?", f.PurchaseType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []entity.Procurement
	err := q.Preload("Items").
		Order("occurred_at DESC").
		Limit(limit).Offset(f.Offset).
		Find(&rows).Error
	return rows, total, err
}
