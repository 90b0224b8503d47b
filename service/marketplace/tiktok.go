package marketplace

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
)

const (
	tiktokPathTokenGet     = "/api/token/get"
	tiktokPathTokenRefresh = "/api/token/refresh"
	tiktokPathOrderSearch  = "/api/orders/search"
	tiktokPathStockUpdate  = "/api/products/stock/update"
)

// TikTok signs requests with HMAC-SHA256 over the concatenation of sorted
// parameter keys each followed by their value (the sign field itself is
// excluded), upper-hex encoded, keyed by the app secret.
type TikTok struct {
	appKey      string
	appSecret   string
	redirectURL string
	baseURL     string
	portalURL   string
	http        *http.Client
}

func NewTikTok() (*TikTok, error) {
	t := &TikTok{
		appKey:      os.Getenv("TTS_APP_KEY"),
		appSecret:   os.Getenv("TTS_APP_SECRET"),
		redirectURL: os.Getenv("TTS_REDIRECT_URL"),
		baseURL:     strings.TrimRight(os.Getenv("TTS_BASE_URL"), "/"),
		portalURL:   strings.TrimRight(os.Getenv("TTS_PARTNER_PORTAL_URL"), "/"),
		http:        newHTTPClient(),
	}
	if t.baseURL == "" {
		t.baseURL = "https://open-api.tiktokglobalshop.com"
	}
	if t.portalURL == "" {
		t.portalURL = "https://partners.tiktokshop.com"
	}
	err := requireEnv(map[string]string{
		"TTS_APP_KEY":      t.appKey,
		"TTS_APP_SECRET":   t.appSecret,
		"TTS_REDIRECT_URL": t.redirectURL,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// sign concatenates key+value pairs in ascending key order and HMACs
// with the app secret. Values must already be scalar (string/number).
func (t *TikTok) sign(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(scalarString(params[k]))
	}
	mac := hmac.New(sha256.New, []byte(t.appSecret))
	mac.Write([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// scalarString renders a param the way it appears on the wire. Non-scalar
// params (updates[]) are excluded from the signature base by callers.
func scalarString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return fmtInt(int64(x))
	case int64:
		return fmtInt(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func (t *TikTok) AuthURL(state string) (string, error) {
	q := url.Values{}
	q.Set("app_key", t.appKey)
	q.Set("redirect_uri", t.redirectURL)
	if state != "" {
		q.Set("state", state)
	}
	// scope is managed in the partner center
	return t.portalURL + "/oauth/authorize?" + q.Encode(), nil
}

type tiktokTokenResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		ShopID       string `json:"shop_id"`
		SellerID     string `json:"seller_id"`
	} `json:"data"`
}

func (r tiktokTokenResponse) toTokenSet() TokenSet {
	expiresIn := r.Data.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 14400
	}
	return TokenSet{
		AccessToken:  r.Data.AccessToken,
		RefreshToken: r.Data.RefreshToken,
		ExpireAt:     now() + expiresIn,
	}
}

func (t *TikTok) postSigned(ctx context.Context, path string, params map[string]interface{}, out interface{}) error {
	params["sign"] = t.sign(params)
	return doJSON(ctx, t.http, http.MethodPost, t.baseURL+path, params, out)
}

func (t *TikTok) ExchangeToken(ctx context.Context, code string, _ Identifiers) (TokenSet, error) {
	params := map[string]interface{}{
		"app_key":    t.appKey,
		"auth_code":  code,
		"grant_type": "authorized_code",
		"timestamp":  now(),
	}
	var resp tiktokTokenResponse
	if err := t.postSigned(ctx, tiktokPathTokenGet, params, &resp); err != nil {
		return TokenSet{}, err
	}
	if resp.Code != 0 {
		return TokenSet{}, platformErr("tiktok token exchange", resp)
	}
	return resp.toTokenSet(), nil
}

func (t *TikTok) RefreshToken(ctx context.Context, refreshToken string, _ Identifiers) (TokenSet, error) {
	params := map[string]interface{}{
		"app_key":       t.appKey,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
		"timestamp":     now(),
	}
	var resp tiktokTokenResponse
	if err := t.postSigned(ctx, tiktokPathTokenRefresh, params, &resp); err != nil {
		return TokenSet{}, err
	}
	if resp.Code != 0 {
		return TokenSet{}, platformErr("tiktok token refresh", resp)
	}
	return resp.toTokenSet(), nil
}

type tiktokOrderSearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		OrderList []struct {
			OrderID    string `json:"order_id"`
			CreateTime int64  `json:"create_time"`
			ItemList   []struct {
				SKUID     string `json:"outer_sku_id"`
				Quantity  int    `json:"quantity"`
				SalePrice int64  `json:"sale_price"`
			} `json:"item_list"`
		} `json:"order_list"`
	} `json:"data"`
}

func (t *TikTok) SearchOrders(ctx context.Context, accessToken string, _ Identifiers, from, to int64) ([]OrderLine, error) {
	params := map[string]interface{}{
		"app_key":        t.appKey,
		"access_token":   accessToken,
		"timestamp":      now(),
		"page_size":      50,
		"create_time_ge": from,
		"create_time_le": to,
	}
	var resp tiktokOrderSearchResponse
	if err := t.postSigned(ctx, tiktokPathOrderSearch, params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, platformErr("tiktok order search", resp)
	}

	var lines []OrderLine
	for _, order := range resp.Data.OrderList {
		for _, item := range order.ItemList {
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			lines = append(lines, OrderLine{
				OrderID:    order.OrderID,
				SKU:        item.SKUID,
				Qty:        qty,
				UnitPrice:  item.SalePrice,
				OccurredAt: order.CreateTime,
			})
		}
	}
	return lines, nil
}

type tiktokStockResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *TikTok) PushStock(ctx context.Context, accessToken string, _ Identifiers, items []StockItem) error {
	updates := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		updates = append(updates, map[string]interface{}{
			"outer_sku_id":    it.SKU,
			"available_stock": it.Quantity,
		})
	}

	// The updates array is excluded from the signature base; only scalar
	// params are signed.
	params := map[string]interface{}{
		"app_key":      t.appKey,
		"access_token": accessToken,
		"timestamp":    now(),
	}
	sign := t.sign(params)
	params["sign"] = sign
	params["updates"] = updates

	var resp tiktokStockResponse
	if err := doJSON(ctx, t.http, http.MethodPost, t.baseURL+tiktokPathStockUpdate, params, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return platformErr("tiktok stock update", resp)
	}
	return nil
}
