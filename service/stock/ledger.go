package stock

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
)

// Adjust applies a stock delta to a product inside the caller's
// transaction. The row is re-read under a row lock so two concurrent
// adjustments to the same product serialize; stock can never go negative.
//
// Every stock mutation in the system goes through here together with its
// sibling write (transaction row, procurement item) in one tx, so either
// both persist or neither does. The single exception is product creation
// during sorting, where the row does not exist yet and initial stock is
// set directly.
func Adjust(tx *gorm.DB, productID uint, delta int) error {
	if delta == 0 {
		return nil
	}

	var product entity.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productID).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.NotFound("product %d not found", productID)
	}
	if err != nil {
		return err
	}

	next := product.Stock + delta
	if next < 0 {
		return apperr.InsufficientStock(productID)
	}

	return tx.Model(&entity.Product{}).
		Where("id = ?", productID).
		Update("stock", next).Error
}

// Available returns the current stock of a product without locking.
// Callers that intend to mutate must not trust this value; Adjust
// re-reads under lock.
func Available(db *gorm.DB, productID uint) (int, error) {
	var product entity.Product
	err := db.First(&product, productID).Error
	if err == gorm.ErrRecordNotFound {
		return 0, apperr.NotFound("product %d not found", productID)
	}
	if err != nil {
		return 0, err
	}
	return product.Stock, nil
}
