package servicetest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	salesService "ballstore.GO/service/sales"
)

func salesTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("sales_test_%s_%d.db", t.Name(), time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stockQty int) *entity.Product {
	t.Helper()
	price := int64(25000)
	p := entity.Product{Name: "Kaos Band", Category: "Kaos", Stock: stockQty, PricePcs: &price}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &p
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *entity.Product {
	t.Helper()
	var p entity.Product
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &p
}

func TestSaleCreate_DecrementsStockAndAutoCreatesOfflineChannel(t *testing.T) {
	db := salesTestDB(t)
	p := seedProduct(t, db, 10)

	sale, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       3,
		UnitPrice: 25000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sale.TotalPrice != 75000 {
		t.Errorf("total = %d, want 75000", sale.TotalPrice)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 7 {
		t.Errorf("stock = %d, want 7", got)
	}

	var channel entity.ChannelAccount
	if err := db.First(&channel, sale.ChannelAccountID).Error; err != nil {
		t.Fatalf("channel account: %v", err)
	}
	if channel.Platform != entity.PlatformOffline {
		t.Errorf("platform = %s, want OFFLINE", channel.Platform)
	}

	// A second offline sale reuses the same auto-created account.
	sale2, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       1,
		UnitPrice: 25000,
	})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if sale2.ChannelAccountID != sale.ChannelAccountID {
		t.Errorf("offline channel duplicated: %d vs %d", sale2.ChannelAccountID, sale.ChannelAccountID)
	}
}

func TestSaleCreate_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	db := salesTestDB(t)
	p := seedProduct(t, db, 2)

	_, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       5,
		UnitPrice: 25000,
	})
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient_stock", err)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 2 {
		t.Errorf("stock = %d, want 2 (unchanged)", got)
	}

	var count int64
	db.Model(&entity.Transaction{}).Count(&count)
	if count != 0 {
		t.Errorf("transactions = %d, want 0", count)
	}
}

func TestSaleCreate_SortedProductBlockedUnlessAllowed(t *testing.T) {
	db := salesTestDB(t)
	ballID := uint(7)
	price := int64(10000)
	p := entity.Product{Name: "Hoodie - A - BALL-202609-0001", Category: "Hoodie", Grade: "A", Stock: 5, PricePcs: &price, BallID: &ballID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       1,
		UnitPrice: 10000,
	})
	if !apperr.Is(err, apperr.KindSortedNotSellable) {
		t.Fatalf("err = %v, want sorted_product_not_sellable", err)
	}

	_, err = salesService.Create(db, 1, salesService.Input{
		ProductID:   p.ID,
		Qty:         1,
		UnitPrice:   10000,
		AllowSorted: true,
	})
	if err != nil {
		t.Fatalf("allowed create: %v", err)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 4 {
		t.Errorf("stock = %d, want 4", got)
	}
}

func TestSaleUpdate_AdjustsStockByDiff(t *testing.T) {
	db := salesTestDB(t)
	p := seedProduct(t, db, 10)

	sale, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       4,
		UnitPrice: 25000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 4 -> 6 pieces: two more leave stock.
	updated, err := salesService.Update(db, 1, sale.ID, salesService.UpdateInput{Qty: 6})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TotalPrice != 150000 {
		t.Errorf("total = %d, want 150000", updated.TotalPrice)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 4 {
		t.Errorf("stock = %d, want 4", got)
	}

	// 6 -> 2 pieces: four come back.
	if _, err := salesService.Update(db, 1, sale.ID, salesService.UpdateInput{Qty: 2}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 8 {
		t.Errorf("stock = %d, want 8", got)
	}
}

func TestSaleUpdate_OvergrownQtyFails(t *testing.T) {
	db := salesTestDB(t)
	p := seedProduct(t, db, 5)

	sale, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       2,
		UnitPrice: 25000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = salesService.Update(db, 1, sale.ID, salesService.UpdateInput{Qty: 20})
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient_stock", err)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 3 {
		t.Errorf("stock = %d, want 3 (unchanged)", got)
	}
}

func TestSaleDelete_RestoresStock(t *testing.T) {
	db := salesTestDB(t)
	p := seedProduct(t, db, 10)

	sale, err := salesService.Create(db, 1, salesService.Input{
		ProductID: p.ID,
		Qty:       4,
		UnitPrice: 25000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := salesService.Delete(db, sale.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := reloadProduct(t, db, p.ID).Stock; got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}

func TestSaleCreate_ZeroQtyOrPriceRejected(t *testing.T) {
	db := salesTestDB(t)
	p := seedProduct(t, db, 10)

	if _, err := salesService.Create(db, 1, salesService.Input{ProductID: p.ID, Qty: 0, UnitPrice: 100}); err == nil {
		t.Error("qty 0 accepted")
	}
	if _, err := salesService.Create(db, 1, salesService.Input{ProductID: p.ID, Qty: 1, UnitPrice: -1}); err == nil {
		t.Error("negative price accepted")
	}
}
