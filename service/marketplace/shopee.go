package marketplace

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const (
	shopeePathShopAuth     = "/api/v2/shop/auth_partner"
	shopeePathMerchantAuth = "/api/v2/merchant/auth_partner"
	shopeePathTokenGet     = "/api/v2/auth/token/get"
	shopeePathTokenRefresh = "/api/v2/auth/access_token/get"
	shopeePathOrderList    = "/api/v2/order/get_order_list"
	shopeePathStockUpdate  = "/api/v2/product/stock/update"
)

// Shopee signs every call with HMAC-SHA256 over
// partnerID + path + timestamp [+ accessToken] [+ shopOrMerchantID]
// using the partner key; the hex signature travels as a query parameter.
type Shopee struct {
	partnerID   string
	partnerKey  string
	redirectURL string
	baseURL     string
	useMerchant bool
	http        *http.Client
}

func NewShopee() (*Shopee, error) {
	s := &Shopee{
		partnerID:   os.Getenv("SHOPEE_PARTNER_ID"),
		partnerKey:  os.Getenv("SHOPEE_PARTNER_KEY"),
		redirectURL: os.Getenv("SHOPEE_REDIRECT_URL"),
		baseURL:     strings.TrimRight(os.Getenv("SHOPEE_BASE_URL"), "/"),
		useMerchant: strings.EqualFold(os.Getenv("SHOPEE_USE_MERCHANT"), "true"),
		http:        newHTTPClient(),
	}
	if s.baseURL == "" {
		s.baseURL = "https://partner.shopeemobile.com"
	}
	err := requireEnv(map[string]string{
		"SHOPEE_PARTNER_ID":   s.partnerID,
		"SHOPEE_PARTNER_KEY":  s.partnerKey,
		"SHOPEE_REDIRECT_URL": s.redirectURL,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// sign builds the hex HMAC over the Shopee base string. accessToken and
// shopOrMerchant are empty for auth-stage calls.
func (s *Shopee) sign(path string, timestamp int64, accessToken, shopOrMerchant string) string {
	base := s.partnerID + path + fmtInt(timestamp) + accessToken + shopOrMerchant
	mac := hmac.New(sha256.New, []byte(s.partnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Shopee) shopOrMerchant(ids Identifiers) string {
	if s.useMerchant || (ids.MerchantID != 0 && ids.ShopID == 0) {
		if ids.MerchantID != 0 {
			return fmtInt(ids.MerchantID)
		}
		return ""
	}
	if ids.ShopID != 0 {
		return fmtInt(ids.ShopID)
	}
	return ""
}

// signedURL assembles baseURL+path with the common signed query set.
func (s *Shopee) signedURL(path string, timestamp int64, accessToken string, ids *Identifiers, extra url.Values) string {
	q := url.Values{}
	q.Set("partner_id", s.partnerID)
	q.Set("timestamp", fmtInt(timestamp))

	shopOrMerchant := ""
	if ids != nil {
		shopOrMerchant = s.shopOrMerchant(*ids)
	}
	q.Set("sign", s.sign(path, timestamp, accessToken, shopOrMerchant))

	if accessToken != "" {
		q.Set("access_token", accessToken)
	}
	if ids != nil {
		if s.useMerchant || (ids.MerchantID != 0 && ids.ShopID == 0) {
			if ids.MerchantID != 0 {
				q.Set("merchant_id", fmtInt(ids.MerchantID))
			}
		} else if ids.ShopID != 0 {
			q.Set("shop_id", fmtInt(ids.ShopID))
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return s.baseURL + path + "?" + q.Encode()
}

func (s *Shopee) AuthURL(state string) (string, error) {
	path := shopeePathShopAuth
	if s.useMerchant {
		path = shopeePathMerchantAuth
	}
	t := now()
	q := url.Values{}
	q.Set("partner_id", s.partnerID)
	q.Set("timestamp", fmtInt(t))
	q.Set("sign", s.sign(path, t, "", ""))
	q.Set("redirect", s.redirectURL)
	if state != "" {
		q.Set("state", state)
	}
	return s.baseURL + path + "?" + q.Encode(), nil
}

type shopeeTokenResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpireIn     int64  `json:"expire_in"`
}

func (r shopeeTokenResponse) toTokenSet() TokenSet {
	expireIn := r.ExpireIn
	if expireIn == 0 {
		expireIn = 14300
	}
	return TokenSet{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpireAt:     now() + expireIn,
	}
}

func (s *Shopee) ExchangeToken(ctx context.Context, code string, ids Identifiers) (TokenSet, error) {
	t := now()
	endpoint := s.signedURL(shopeePathTokenGet, t, "", nil, nil)

	body := map[string]interface{}{"code": code, "partner_id": jsonNumber(s.partnerID)}
	if s.useMerchant {
		body["merchant_id"] = ids.MerchantID
	} else {
		body["shop_id"] = ids.ShopID
	}

	var resp shopeeTokenResponse
	if err := doJSON(ctx, s.http, http.MethodPost, endpoint, body, &resp); err != nil {
		return TokenSet{}, err
	}
	if resp.Error != "" || resp.Message == "error" {
		return TokenSet{}, platformErr("shopee token exchange", resp)
	}
	return resp.toTokenSet(), nil
}

func (s *Shopee) RefreshToken(ctx context.Context, refreshToken string, ids Identifiers) (TokenSet, error) {
	t := now()
	endpoint := s.signedURL(shopeePathTokenRefresh, t, "", nil, nil)

	body := map[string]interface{}{
		"refresh_token": refreshToken,
		"partner_id":    jsonNumber(s.partnerID),
	}
	if ids.ShopID != 0 {
		body["shop_id"] = ids.ShopID
	}
	if ids.MerchantID != 0 {
		body["merchant_id"] = ids.MerchantID
	}

	var resp shopeeTokenResponse
	if err := doJSON(ctx, s.http, http.MethodPost, endpoint, body, &resp); err != nil {
		return TokenSet{}, err
	}
	if resp.Error != "" {
		return TokenSet{}, platformErr("shopee token refresh", resp)
	}
	return resp.toTokenSet(), nil
}

type shopeeOrderListResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Response struct {
		OrderList []struct {
			OrderSN    string `json:"order_sn"`
			CreateTime int64  `json:"create_time"`
			ItemList   []struct {
				ItemSKU              string `json:"item_sku"`
				ModelQuantity        int    `json:"model_quantity_purchased"`
				ModelDiscountedPrice int64  `json:"model_discounted_price"`
			} `json:"item_list"`
		} `json:"order_list"`
	} `json:"response"`
}

func (s *Shopee) SearchOrders(ctx context.Context, accessToken string, ids Identifiers, from, to int64) ([]OrderLine, error) {
	t := now()
	extra := url.Values{}
	extra.Set("time_range_field", "create_time")
	extra.Set("time_from", fmtInt(from))
	extra.Set("time_to", fmtInt(to))
	extra.Set("response_optional_fields", "item_list")
	endpoint := s.signedURL(shopeePathOrderList, t, accessToken, &ids, extra)

	var resp shopeeOrderListResponse
	if err := doJSON(ctx, s.http, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, platformErr("shopee order list", resp)
	}

	var lines []OrderLine
	for _, order := range resp.Response.OrderList {
		for _, item := range order.ItemList {
			qty := item.ModelQuantity
			if qty <= 0 {
				qty = 1
			}
			lines = append(lines, OrderLine{
				OrderID:    order.OrderSN,
				SKU:        item.ItemSKU,
				Qty:        qty,
				UnitPrice:  item.ModelDiscountedPrice,
				OccurredAt: order.CreateTime,
			})
		}
	}
	return lines, nil
}

type shopeeStockResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Shopee) PushStock(ctx context.Context, accessToken string, ids Identifiers, items []StockItem) error {
	t := now()
	endpoint := s.signedURL(shopeePathStockUpdate, t, accessToken, &ids, nil)

	list := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		list = append(list, map[string]interface{}{
			"item_id": it.SKU,
			"stock":   it.Quantity,
		})
	}
	body := map[string]interface{}{"stock_list": list}

	var resp shopeeStockResponse
	if err := doJSON(ctx, s.http, http.MethodPost, endpoint, body, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return platformErr("shopee stock update", resp)
	}
	return nil
}

// jsonNumber re-encodes the env partner id as a number when possible;
// Shopee rejects string partner ids in POST bodies.
func jsonNumber(v string) interface{} {
	var n int64
	for _, c := range v {
		if c < '0' || c > '9' {
			return v
		}
		n = n*10 + int64(c-'0')
	}
	return n
}
