package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	"ballstore.GO/service/marketplace"
	"ballstore.GO/service/sales"
)

// ImportResult summarizes one order import run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportOrders pulls recent platform orders and records each line as a
// local sale. Lines are independent: one bad line is skipped and reported,
// the rest still land. Imported lines sell what the platform already sold,
// so the sorted-product guard does not apply to them.
func ImportOrders(ctx context.Context, db *gorm.DB, actorID uint, channelID uint, days int) (*ImportResult, error) {
	if days <= 0 {
		days = 3
	}

	account, err := GetAccount(db, channelID)
	if err != nil {
		return nil, err
	}
	if account.Platform == entity.PlatformOffline {
		return nil, apperr.Validation("offline channels have nothing to import")
	}
	adapter, err := AdapterFor(db, account)
	if err != nil {
		return nil, err
	}

	token, err := EnsureValid(ctx, db, channelID)
	if err != nil {
		return nil, err
	}
	creds, err := DecodeCredentials(account)
	if err != nil {
		return nil, err
	}

	to := time.Now().Unix()
	from := to - int64(days)*24*3600

	lines, err := adapter.SearchOrders(ctx, token, creds.Identifiers, from, to)
	if err != nil {
		logSync(db, account, "import", "error", err.Error())
		return nil, err
	}

	result := &ImportResult{}
	for _, line := range lines {
		if err := importLine(db, actorID, channelID, line); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("order %s sku %s: %v", line.OrderID, line.SKU, err))
			continue
		}
		result.Imported++
	}

	status := "success"
	if result.Skipped > 0 {
		status = "partial"
	}
	logSync(db, account, "import", status,
		fmt.Sprintf("imported %d, skipped %d", result.Imported, result.Skipped))
	return result, nil
}

// importLine maps one external order line to a local sale. The pushed SKU
// is the local product id, so resolution is a parse plus a lookup.
func importLine(db *gorm.DB, actorID uint, channelID uint, line marketplace.OrderLine) error {
	productID, err := strconv.ParseUint(strings.TrimSpace(line.SKU), 10, 32)
	if err != nil {
		return apperr.Validation("unmapped sku %q", line.SKU)
	}

	unitPrice := line.UnitPrice
	if unitPrice <= 0 {
		var product entity.Product
		if err := db.First(&product, uint(productID)).Error; err == nil {
			unitPrice = product.DefaultUnitPrice()
		}
	}

	occurredAt := time.Unix(line.OccurredAt, 0)
	if line.OccurredAt == 0 {
		occurredAt = time.Now()
	}

	_, err = sales.Create(db, actorID, sales.Input{
		ProductID:        uint(productID),
		ChannelAccountID: channelID,
		Qty:              line.Qty,
		UnitPrice:        unitPrice,
		OccurredAt:       &occurredAt,
		AllowSorted:      true,
	})
	return err
}

// PushStock sends local stock levels to the platform. With no explicit
// items every sellable product is pushed (sku = product id). Adapter
// failures surface with the raw payload; retry is the caller's concern.
func PushStock(ctx context.Context, db *gorm.DB, channelID uint, items []marketplace.StockItem) error {
	account, err := GetAccount(db, channelID)
	if err != nil {
		return err
	}
	if account.Platform == entity.PlatformOffline {
		return apperr.Validation("offline channels have no stock to push")
	}
	adapter, err := AdapterFor(db, account)
	if err != nil {
		return err
	}

	token, err := EnsureValid(ctx, db, channelID)
	if err != nil {
		return err
	}
	creds, err := DecodeCredentials(account)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		var products []entity.Product
		if err := db.Where("is_deleted = ?", false).Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			items = append(items, marketplace.StockItem{
				SKU:      strconv.FormatUint(uint64(p.ID), 10),
				Quantity: p.Stock,
			})
		}
	}

	if err := adapter.PushStock(ctx, token, creds.Identifiers, items); err != nil {
		logSync(db, account, "stock", "error", err.Error())
		return err
	}
	logSync(db, account, "stock", "success",
		fmt.Sprintf("pushed %d items", len(items)))
	return nil
}

// ActiveMarketplaceAccounts lists the accounts the scheduled jobs walk.
func ActiveMarketplaceAccounts(db *gorm.DB) ([]entity.ChannelAccount, error) {
	var accounts []entity.ChannelAccount
	err := db.Where("active = ? AND platform <> ?", true, entity.PlatformOffline).
		Find(&accounts).Error
	return accounts, err
}

func logSync(db *gorm.DB, account *entity.ChannelAccount, kind, status, message string) {
	row := entity.SyncLog{
		Platform:  account.Platform,
		AccountID: account.ID,
		Type:      kind,
		Status:    status,
		Message:   message,
	}
	if err := db.Create(&row).Error; err != nil {
		// Diagnostics only; a failed log row must not fail the sync.
		return
	}
}
