package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
)

// TokenSet is the platform-agnostic result of a token exchange/refresh.
// ExpireAt is an absolute unix epoch, already derived from the platform's
// relative expires_in.
type TokenSet struct {
	AccessToken  string `json:"access_token" mapstructure:"access_token"`
	RefreshToken string `json:"refresh_token" mapstructure:"refresh_token"`
	ExpireAt     int64  `json:"expire_at" mapstructure:"expire_at"`
}

// Identifiers are the platform-specific account ids stored alongside the
// tokens in the credentials blob.
type Identifiers struct {
	ShopID     int64  `json:"shop_id" mapstructure:"shop_id"`
	MerchantID int64  `json:"merchant_id" mapstructure:"merchant_id"`
	SellerID   string `json:"seller_id" mapstructure:"seller_id"`
	Region     string `json:"region" mapstructure:"region"`
}

// OrderLine is one imported sale line. SKU carries the local product id
// as pushed out by PushStock; UnitPrice 0 means "use the product's own
// price".
type OrderLine struct {
	OrderID    string
	SKU        string
	Qty        int
	UnitPrice  int64
	OccurredAt int64
}

// StockItem is one stock level pushed to the platform.
type StockItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Adapter builds the platform-specific signed requests. One adapter per
// platform, constructed once per channel at the boundary. Construction
// validates the env-level identity so per-call code never has to.
type Adapter interface {
	AuthURL(state string) (string, error)
	ExchangeToken(ctx context.Context, code string, ids Identifiers) (TokenSet, error)
	RefreshToken(ctx context.Context, refreshToken string, ids Identifiers) (TokenSet, error)
	SearchOrders(ctx context.Context, accessToken string, ids Identifiers, from, to int64) ([]OrderLine, error)
	PushStock(ctx context.Context, accessToken string, ids Identifiers, items []StockItem) error
}

// ForPlatform returns the adapter for a channel platform. Mode "mock"
// returns the in-process fake regardless of platform (the db feeds it
// candidate products). OFFLINE has no adapter.
func ForPlatform(db *gorm.DB, platform, mode string) (Adapter, error) {
	if mode == "mock" {
		return NewMock(db, platform), nil
	}
	switch platform {
	case entity.PlatformShopee:
		return NewShopee()
	case entity.PlatformTikTok:
		return NewTikTok()
	default:
		return nil, apperr.Validation("unsupported platform %s", platform)
	}
}

func now() int64 { return time.Now().Unix() }

// doJSON performs one outbound call and decodes the body. Non-2xx wraps
// the raw payload into a platform error; the payload is what operators
// see in 502 responses, so callers must not put tokens in the URL they
// report (adapters report path only).
func doJSON(ctx context.Context, client *http.Client, method, url string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindPlatformAPI, err, "marketplace request failed")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.New(apperr.KindPlatformAPI,
			"marketplace returned %d", resp.StatusCode).
			WithPayload(strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperr.Wrap(apperr.KindPlatformAPI, err, "invalid marketplace response").
				WithPayload(snippet(raw))
		}
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

func platformErr(op string, payload interface{}) error {
	raw, _ := json.Marshal(payload)
	return apperr.New(apperr.KindPlatformAPI, "%s failed", op).WithPayload(string(raw))
}

func requireEnv(vals map[string]string) error {
	var missing []string
	for k, v := range vals {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return apperr.New(apperr.KindCredential,
			"missing marketplace credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func fmtInt(v int64) string { return fmt.Sprintf("%d", v) }
