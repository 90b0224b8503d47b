package stock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
)

func ledgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("ledger_test_%s_%d.db", t.Name(), time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(tmpFile) })
	db, err := gorm.Open(sqlite.Open(tmpFile), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	if err := db.AutoMigrate(&entity.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAdjust_AppliesDelta(t *testing.T) {
	db := ledgerTestDB(t)
	p := entity.Product{Name: "X", Category: "X", Stock: 5}
	db.Create(&p)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Adjust(tx, p.ID, -3)
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	got, err := Available(db, p.ID)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if got != 2 {
		t.Errorf("stock = %d, want 2", got)
	}
}

func TestAdjust_NeverGoesNegative(t *testing.T) {
	db := ledgerTestDB(t)
	p := entity.Product{Name: "X", Category: "X", Stock: 2}
	db.Create(&p)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Adjust(tx, p.ID, -3)
	})
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient_stock", err)
	}
	got, _ := Available(db, p.ID)
	if got != 2 {
		t.Errorf("stock = %d, want 2 (unchanged)", got)
	}
}

func TestAdjust_ZeroDeltaIsNoop(t *testing.T) {
	db := ledgerTestDB(t)

	// Zero delta short-circuits before the existence check.
	err := db.Transaction(func(tx *gorm.DB) error {
		return Adjust(tx, 999, 0)
	})
	if err != nil {
		t.Errorf("Adjust(0) = %v, want nil", err)
	}
}

func TestAdjust_UnknownProduct(t *testing.T) {
	db := ledgerTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Adjust(tx, 999, 1)
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not_found", err)
	}
}

func TestAdjust_ConcurrentDecrementsSerialize(t *testing.T) {
	db := ledgerTestDB(t)
	p := entity.Product{Name: "X", Category: "X", Stock: 10}
	db.Create(&p)

	var wg sync.WaitGroup
	okCount := 0
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				return Adjust(tx, p.ID, -1)
			})
			if err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, _ := Available(db, p.ID)
	if got != 10-okCount {
		t.Errorf("stock = %d, want %d (10 - %d successful decrements)", got, 10-okCount, okCount)
	}
	if got < 0 {
		t.Error("stock went negative")
	}
}
