package sales

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	"ballstore.GO/service/stock"
)

// Input for a sale. Channel resolution order: explicit ChannelAccountID
// wins; else the first active account for the named platform; OFFLINE
// auto-creates its account when none exists.
type Input struct {
	StoreID          *uint      `json:"storeId"`
	ProductID        uint       `json:"productId"`
	ChannelAccountID uint       `json:"channelAccountId"`
	Channel          string     `json:"channel"`
	Qty              int        `json:"qty"`
	UnitPrice        int64      `json:"unitPrice"`
	OccurredAt       *time.Time `json:"occurredAt"`
	Customer         *string    `json:"customer"`
	Note             *string    `json:"note"`

	// AllowSorted lifts the ball-derived product guard (set from config
	// or by the marketplace importer, which sells what the platform sold).
	AllowSorted bool `json:"-"`
}

// UpdateInput patches a sale. Zero Qty / negative UnitPrice leave the old
// value in place, matching the original endpoint's partial semantics.
type UpdateInput struct {
	Qty        int        `json:"qty"`
	UnitPrice  *int64     `json:"unitPrice"`
	OccurredAt *time.Time `json:"occurredAt"`
	Customer   *string    `json:"customer"`
	Note       *string    `json:"note"`
}

// resolveChannel returns the channel account id for a sale. Runs inside
// the sale's transaction so the auto-created OFFLINE account commits or
// rolls back together with it.
func resolveChannel(tx *gorm.DB, explicitID uint, channel string) (uint, error) {
	if explicitID != 0 {
		var count int64
		if err := tx.Model(&entity.ChannelAccount{}).
			Where("id = ?", explicitID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, apperr.New(apperr.KindChannelNotFound, "channel account %d not found", explicitID)
		}
		return explicitID, nil
	}

	platform := strings.ToUpper(channel)
	if platform == "" {
		platform = entity.PlatformOffline
	}

	var account entity.ChannelAccount
	err := tx.Where("platform = ? AND active = ?", platform, true).
		First(&account).Error
	if err == nil {
		return account.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}
	if platform == entity.PlatformOffline {
		account = entity.ChannelAccount{Platform: entity.PlatformOffline, Label: "Offline"}
		if err := tx.Create(&account).Error; err != nil {
			return 0, err
		}
		return account.ID, nil
	}
	return 0, apperr.New(apperr.KindChannelNotFound, "channel account not found for platform %s", platform)
}

// Create records a sale and decrements stock atomically. Ball-derived
// products are rejected here unless the override is set; they are sold
// through their own flow, not the manual transaction menu.
func Create(db *gorm.DB, actorID uint, in Input) (*entity.Transaction, error) {
	if in.ProductID == 0 {
		return nil, apperr.Validation("productId is required")
	}
	if in.Qty <= 0 {
		return nil, apperr.Validation("qty must be > 0")
	}
	if in.UnitPrice < 0 {
		return nil, apperr.Validation("unitPrice must be >= 0")
	}

	var product entity.Product
	err := db.First(&product, in.ProductID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("product %d not found", in.ProductID)
	}
	if err != nil {
		return nil, err
	}
	if product.BallID != nil && !in.AllowSorted {
		return nil, apperr.New(apperr.KindSortedNotSellable,
			"sorted product %d cannot be sold through this path", product.ID)
	}

	occurredAt := time.Now()
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}

	var created entity.Transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		channelID, err := resolveChannel(tx, in.ChannelAccountID, in.Channel)
		if err != nil {
			return err
		}

		created = entity.Transaction{
			ProductID:        in.ProductID,
			ChannelAccountID: channelID,
			StoreID:          in.StoreID,
			Qty:              in.Qty,
			UnitPrice:        in.UnitPrice,
			TotalPrice:       int64(in.Qty) * in.UnitPrice,
			OccurredAt:       occurredAt,
			Status:           "paid",
			PriceType:        "UNIT",
			Customer:         in.Customer,
			Note:             in.Note,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		// Ledger re-reads stock under lock; a concurrent sale cannot
		// drive this below zero.
		return stock.Adjust(tx, in.ProductID, -in.Qty)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update patches qty/price and applies the stock delta atomically.
func Update(db *gorm.DB, actorID uint, id uint, in UpdateInput) (*entity.Transaction, error) {
	var updated entity.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var old entity.Transaction
		err := tx.First(&old, id).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("transaction %d not found", id)
		}
		if err != nil {
			return err
		}

		nextQty := old.Qty
		if in.Qty > 0 {
			nextQty = in.Qty
		}
		nextPrice := old.UnitPrice
		if in.UnitPrice != nil && *in.UnitPrice >= 0 {
			nextPrice = *in.UnitPrice
		}

		if diff := nextQty - old.Qty; diff != 0 {
			if err := stock.Adjust(tx, old.ProductID, -diff); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"qty":         nextQty,
			"unit_price":  nextPrice,
			"total_price": int64(nextQty) * nextPrice,
			"updated_by":  actorID,
		}
		if in.OccurredAt != nil {
			updates["occurred_at"] = *in.OccurredAt
		}
		if in.Customer != nil {
			updates["customer"] = in.Customer
		}
		if in.Note != nil {
			updates["note"] = in.Note
		}
		if err := tx.Model(&entity.Transaction{}).
			Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete restores the sold quantity and removes the sale.
func Delete(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var old entity.Transaction
		err := tx.First(&old, id).Error
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("transaction %d not found", id)
		}
		if err != nil {
			return err
		}
		if err := stock.Adjust(tx, old.ProductID, old.Qty); err != nil {
			return err
		}
		return tx.Delete(&entity.Transaction{}, id).Error
	})
}

// ListFilter narrows List.
type ListFilter struct {
	StoreID   uint
	ChannelID uint
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// List returns sales newest first.
func List(db *gorm.DB, f ListFilter) ([]entity.Transaction, int64, error) {
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	q := db.Model(&entity.Transaction{}).Where("deleted_at IS NULL")
	if f.StoreID != 0 {
		q = q.Where("store_id = ?", f.StoreID)
	}
	if f.ChannelID != 0 {
		q = q.Where("channel_account_id = ?", f.ChannelID)
	}
	if f.From != nil {
		q = q.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurred_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []entity.Transaction
	err := q.Order("occurred_at DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error
	return rows, total, err
}
