package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testTikTok(baseURL string) *TikTok {
	return &TikTok{
		appKey:      "appk",
		appSecret:   "apps",
		redirectURL: "https://example.test/cb",
		baseURL:     baseURL,
		portalURL:   "https://partners.tiktokshop.com",
		http:        &http.Client{Timeout: 5 * time.Second},
	}
}

func TestTikTokExchangeToken_SignsBodyAndDefaultsExpiry(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{
				"access_token":  "tt-at",
				"refresh_token": "tt-rt",
			},
		})
	}))
	defer srv.Close()

	tk := testTikTok(srv.URL)
	before := time.Now().Unix()
	set, err := tk.ExchangeToken(context.Background(), "code-1", Identifiers{})
	if err != nil {
		t.Fatalf("ExchangeToken: %v", err)
	}

	if gotBody["grant_type"] != "authorized_code" {
		t.Errorf("grant_type = %v", gotBody["grant_type"])
	}
	if gotBody["auth_code"] != "code-1" {
		t.Errorf("auth_code = %v", gotBody["auth_code"])
	}
	sign, _ := gotBody["sign"].(string)
	if len(sign) != 64 {
		t.Errorf("sign = %q, want 64 hex chars", sign)
	}

	if set.AccessToken != "tt-at" || set.RefreshToken != "tt-rt" {
		t.Errorf("token set = %+v", set)
	}
	if set.ExpireAt < before+14400 || set.ExpireAt > time.Now().Unix()+14400 {
		t.Errorf("ExpireAt = %d, want ~now+14400", set.ExpireAt)
	}
}

func TestTikTokRefreshToken_NonZeroCodeIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    105001,
			"message": "refresh token expired",
		})
	}))
	defer srv.Close()

	tk := testTikTok(srv.URL)
	_, err := tk.RefreshToken(context.Background(), "stale", Identifiers{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestTikTokSearchOrders_MapsLinesAndDefaultsQty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{
				"order_list": []map[string]interface{}{
					{
						"order_id":    "TT-1",
						"create_time": 1700000200,
						"item_list": []map[string]interface{}{
							{"outer_sku_id": "7", "quantity": 0, "sale_price": 9000},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	tk := testTikTok(srv.URL)
	lines, err := tk.SearchOrders(context.Background(), "at", Identifiers{}, 1700000000, 1700003600)
	if err != nil {
		t.Fatalf("SearchOrders: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	l := lines[0]
	if l.OrderID != "TT-1" || l.SKU != "7" || l.Qty != 1 || l.UnitPrice != 9000 {
		t.Errorf("line = %+v", l)
	}
}
