package servicetest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"ballstore.GO/config"
	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	channelService "ballstore.GO/service/channel"
	"ballstore.GO/service/marketplace"
)

func channelTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("channel_test_%s_%d.db", t.Name(), time.Now().UnixNano()))
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

func seedChannel(t *testing.T, db *gorm.DB, platform string) *entity.ChannelAccount {
	t.Helper()
	account := entity.ChannelAccount{Platform: platform, Label: "test " + platform, Active: true}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed channel: %v", err)
	}
	return &account
}

func credsOf(t *testing.T, db *gorm.DB, id uint) channelService.Credentials {
	t.Helper()
	account, err := channelService.GetAccount(db, id)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	creds, err := channelService.DecodeCredentials(account)
	if err != nil {
		t.Fatalf("DecodeCredentials: %v", err)
	}
	return creds
}

func TestSaveCredentials_MergesWithoutReplacing(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)

	err := channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"shop_id":      int64(4455),
		"access_token": "first",
	})
	if err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	// A token-only patch must not wipe the shop id.
	err = channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"access_token":  "second",
		"refresh_token": "r2",
		"expire_at":     int64(9999999999),
	})
	if err != nil {
		t.Fatalf("second SaveCredentials: %v", err)
	}

	creds := credsOf(t, db, account.ID)
	if creds.AccessToken != "second" {
		t.Errorf("access_token = %s, want second", creds.AccessToken)
	}
	if creds.ShopID != 4455 {
		t.Errorf("shop_id = %d, want 4455 (must survive token patch)", creds.ShopID)
	}
}

func TestExchangeCode_MockPersistsTokensAndIdentifiers(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)

	err := channelService.ExchangeCode(context.Background(), db, account.ID, "code-77",
		marketplace.Identifiers{ShopID: 321})
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}

	creds := credsOf(t, db, account.ID)
	if creds.AccessToken != "mock-access-code-77" {
		t.Errorf("access_token = %s", creds.AccessToken)
	}
	if creds.ShopID != 321 {
		t.Errorf("shop_id = %d, want 321", creds.ShopID)
	}
	if creds.ExpireAt <= time.Now().Unix() {
		t.Errorf("expire_at = %d, want future", creds.ExpireAt)
	}
}

func TestEnsureValid_UsableTokenIsReturnedAsIs(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)

	err := channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"access_token":  "fresh",
		"refresh_token": "r",
		"expire_at":     time.Now().Add(2 * time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	token, err := channelService.EnsureValid(context.Background(), db, account.ID)
	if err != nil {
		t.Fatalf("EnsureValid: %v", err)
	}
	if token != "fresh" {
		t.Errorf("token = %s, want fresh (no refresh)", token)
	}
}

func TestEnsureValid_InsideRefreshWindowTriggersRefresh(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)

	// Not yet expired, but inside the 300s safety window.
	err := channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"access_token":  "stale",
		"refresh_token": "r",
		"expire_at":     time.Now().Add(60 * time.Second).Unix(),
	})
	if err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	token, err := channelService.EnsureValid(context.Background(), db, account.ID)
	if err != nil {
		t.Fatalf("EnsureValid: %v", err)
	}
	if token == "stale" {
		t.Error("token not refreshed inside the safety window")
	}

	creds := credsOf(t, db, account.ID)
	if creds.AccessToken != token {
		t.Errorf("persisted token %s != returned %s", creds.AccessToken, token)
	}
}

func TestEnsureValid_ConcurrentCallersRefreshOnce(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)

	err := channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"access_token":  "stale",
		"refresh_token": "r",
		"expire_at":     time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := channelService.EnsureValid(context.Background(), db, account.ID)
			if err != nil {
				t.Errorf("EnsureValid: %v", err)
				return
			}
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	// All callers must see the same refreshed token: the winner refreshes,
	// the rest re-read it under the lock.
	for i := 1; i < n; i++ {
		if tokens[i] != tokens[0] {
			t.Fatalf("tokens diverge: %s vs %s", tokens[i], tokens[0])
		}
	}
	if tokens[0] == "stale" || tokens[0] == "" {
		t.Errorf("token = %q, want refreshed", tokens[0])
	}
}

func TestRefresh_LiveRejectionKeepsStoredCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "invalid_token",
			"message": "refresh token revoked",
		})
	}))
	defer srv.Close()

	t.Setenv("MARKETPLACE_MODE", "live")
	t.Setenv("SHOPEE_PARTNER_ID", "2005")
	t.Setenv("SHOPEE_PARTNER_KEY", "pkey")
	t.Setenv("SHOPEE_REDIRECT_URL", "https://example.test/cb")
	t.Setenv("SHOPEE_BASE_URL", srv.URL)
	config.ResetAppConfigForTesting()
	config.LoadAppConfig()
	t.Cleanup(config.ResetAppConfigForTesting)

	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)
	err := channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"access_token":  "old",
		"refresh_token": "revoked",
		"shop_id":       int64(321),
		"expire_at":     time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	_, err = channelService.Refresh(context.Background(), db, account.ID)
	if !apperr.Is(err, apperr.KindRefreshFailed) {
		t.Fatalf("err = %v, want refresh_failed", err)
	}

	creds := credsOf(t, db, account.ID)
	if creds.AccessToken != "old" || creds.RefreshToken != "revoked" {
		t.Errorf("stored credentials changed on failed refresh: %+v", creds)
	}
}

func TestImportOrders_MockCreatesSalesAndSyncLog(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformTikTok)

	price := int64(40000)
	p := entity.Product{Name: "Jaket Outdoor", Category: "Jaket", Stock: 9, PricePcs: &price}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	res, err := channelService.ImportOrders(context.Background(), db, 1, account.ID, 3)
	if err != nil {
		t.Fatalf("ImportOrders: %v", err)
	}
	if res.Imported == 0 {
		t.Fatal("nothing imported from mock")
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v", res.Errors)
	}

	var sales []entity.Transaction
	if err := db.Find(&sales).Error; err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(sales) != res.Imported {
		t.Errorf("sales rows = %d, imported = %d", len(sales), res.Imported)
	}
	sold := 0
	for _, s := range sales {
		if s.ChannelAccountID != account.ID {
			t.Errorf("sale bound to channel %d, want %d", s.ChannelAccountID, account.ID)
		}
		sold += s.Qty
	}

	var reloaded entity.Product
	if err := db.First(&reloaded, p.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 9-sold {
		t.Errorf("stock = %d, want %d", reloaded.Stock, 9-sold)
	}

	var logRow entity.SyncLog
	if err := db.Where("account_id = ? AND type = ?", account.ID, "import").First(&logRow).Error; err != nil {
		t.Fatalf("sync log: %v", err)
	}
	if logRow.Status != "success" {
		t.Errorf("status = %s, want success", logRow.Status)
	}
}

func TestImportOrders_BadLinesSkippedGoodLineLands(t *testing.T) {
	db := channelTestDB(t)

	price := int64(55000)
	p := entity.Product{Name: "Celana Cargo", Category: "Celana", Stock: 5, PricePcs: &price}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{
				"order_list": []map[string]interface{}{
					{
						"order_id":    "TT-9001",
						"create_time": time.Now().Unix(),
						"item_list": []map[string]interface{}{
							{"outer_sku_id": "no-such-sku", "quantity": 1, "sale_price": 10000},
							{"outer_sku_id": "999999", "quantity": 1, "sale_price": 10000},
							{"outer_sku_id": fmt.Sprintf("%d", p.ID), "quantity": 2, "sale_price": 55000},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("MARKETPLACE_MODE", "live")
	t.Setenv("TTS_APP_KEY", "appkey")
	t.Setenv("TTS_APP_SECRET", "appsecret")
	t.Setenv("TTS_REDIRECT_URL", "https://example.test/cb")
	t.Setenv("TTS_BASE_URL", srv.URL)
	config.ResetAppConfigForTesting()
	config.LoadAppConfig()
	t.Cleanup(config.ResetAppConfigForTesting)

	account := seedChannel(t, db, entity.PlatformTikTok)
	err := channelService.SaveCredentials(db, account.ID, map[string]interface{}{
		"access_token":  "tok",
		"refresh_token": "r",
		"expire_at":     time.Now().Add(2 * time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	res, err := channelService.ImportOrders(context.Background(), db, 1, account.ID, 3)
	if err != nil {
		t.Fatalf("ImportOrders: %v", err)
	}
	if res.Imported != 1 {
		t.Errorf("imported = %d, want 1", res.Imported)
	}
	if res.Skipped != 2 || len(res.Errors) != 2 {
		t.Errorf("skipped = %d, errors = %v, want 2 skipped with 2 errors", res.Skipped, res.Errors)
	}
	for _, msg := range res.Errors {
		if !strings.Contains(msg, "no-such-sku") && !strings.Contains(msg, "999999") {
			t.Errorf("error does not name the offending line: %q", msg)
		}
	}

	// Only the good line moved stock.
	var reloaded entity.Product
	if err := db.First(&reloaded, p.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Errorf("stock = %d, want 3", reloaded.Stock)
	}

	var sales []entity.Transaction
	if err := db.Find(&sales).Error; err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(sales) != 1 {
		t.Errorf("sales rows = %d, want 1", len(sales))
	}

	var logRow entity.SyncLog
	if err := db.Where("account_id = ? AND type = ?", account.ID, "import").First(&logRow).Error; err != nil {
		t.Fatalf("sync log: %v", err)
	}
	if logRow.Status != "partial" {
		t.Errorf("status = %s, want partial", logRow.Status)
	}
}

func TestImportOrders_OfflineChannelRejected(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformOffline)

	_, err := channelService.ImportOrders(context.Background(), db, 1, account.ID, 3)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestPushStock_MockLogsItemCount(t *testing.T) {
	db := channelTestDB(t)
	account := seedChannel(t, db, entity.PlatformShopee)

	price := int64(12000)
	p := entity.Product{Name: "Kemeja Flanel", Category: "Kemeja", Stock: 6, PricePcs: &price}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	if err := channelService.PushStock(context.Background(), db, account.ID, nil); err != nil {
		t.Fatalf("PushStock: %v", err)
	}

	var logRow entity.SyncLog
	if err := db.Where("account_id = ? AND type = ?", account.ID, "stock").First(&logRow).Error; err != nil {
		t.Fatalf("sync log: %v", err)
	}
	if logRow.Status != "success" {
		t.Errorf("status = %s, want success", logRow.Status)
	}
	if !strings.Contains(logRow.Message, "1") {
		t.Errorf("message = %q, want item count", logRow.Message)
	}
}

func TestActiveMarketplaceAccounts_ExcludesOfflineAndInactive(t *testing.T) {
	db := channelTestDB(t)
	seedChannel(t, db, entity.PlatformOffline)
	shopee := seedChannel(t, db, entity.PlatformShopee)
	inactive := seedChannel(t, db, entity.PlatformTikTok)
	db.Model(inactive).Update("active", false)

	accounts, err := channelService.ActiveMarketplaceAccounts(db)
	if err != nil {
		t.Fatalf("ActiveMarketplaceAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != shopee.ID {
		t.Errorf("accounts = %+v, want only the active shopee one", accounts)
	}
}
