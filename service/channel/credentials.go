package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/mitchellh/mapstructure"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ballstore.GO/config"
	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	"ballstore.GO/service/marketplace"
)

// refreshWindow is how close to expiry a token is still considered
// usable. Anything expiring inside the window is refreshed up front so
// an outbound call never races the expiry.
const refreshWindow = 300 * time.Second

// Credentials is the typed view of the channel account blob. The stored
// blob may carry extra platform keys; those survive merges untouched.
type Credentials struct {
	marketplace.TokenSet    `mapstructure:",squash"`
	marketplace.Identifiers `mapstructure:",squash"`
}

var (
	refreshMu    sync.Mutex
	refreshLocks = map[uint]*sync.Mutex{}
)

// lockFor returns the per-channel refresh mutex, creating it on first use.
func lockFor(channelID uint) *sync.Mutex {
	refreshMu.Lock()
	defer refreshMu.Unlock()
	l, ok := refreshLocks[channelID]
	if !ok {
		l = &sync.Mutex{}
		refreshLocks[channelID] = l
	}
	return l
}

// GetAccount loads a channel account or fails with ChannelNotFound.
func GetAccount(db *gorm.DB, id uint) (*entity.ChannelAccount, error) {
	var account entity.ChannelAccount
	err := db.First(&account, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.New(apperr.KindChannelNotFound, "channel account %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DecodeCredentials reads the typed view out of the stored blob.
func DecodeCredentials(account *entity.ChannelAccount) (Credentials, error) {
	var creds Credentials
	raw := map[string]interface{}{}
	if len(account.Credentials) > 0 {
		if err := json.Unmarshal(account.Credentials, &raw); err != nil {
			return creds, apperr.Wrap(apperr.KindCredential, err, "corrupt credentials blob")
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &creds,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return creds, err
	}
	if err := decoder.Decode(raw); err != nil {
		return creds, apperr.Wrap(apperr.KindCredential, err, "corrupt credentials blob")
	}
	return creds, nil
}

// SaveCredentials merges a patch into the stored blob. Merge, never
// replace: shop/merchant identifiers written at connect time must survive
// every later token refresh.
func SaveCredentials(db *gorm.DB, channelID uint, patch map[string]interface{}) error {
	account, err := GetAccount(db, channelID)
	if err != nil {
		return err
	}

	merged := map[string]interface{}{}
	if len(account.Credentials) > 0 {
		if err := json.Unmarshal(account.Credentials, &merged); err != nil {
			merged = map[string]interface{}{}
		}
	}
	for k, v := range patch {
		if v == nil {
			continue
		}
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return db.Model(&entity.ChannelAccount{}).
		Where("id = ?", channelID).
		Update("credentials", datatypes.JSON(raw)).Error
}

func tokenPatch(set marketplace.TokenSet) map[string]interface{} {
	patch := map[string]interface{}{
		"access_token": set.AccessToken,
		"expire_at":    set.ExpireAt,
	}
	if set.RefreshToken != "" {
		patch["refresh_token"] = set.RefreshToken
	}
	return patch
}

func marketplaceMode() string {
	if config.AppConfig != nil {
		return config.AppConfig.MarketplaceMode
	}
	return "mock"
}

// AdapterFor builds the adapter for a channel account.
func AdapterFor(db *gorm.DB, account *entity.ChannelAccount) (marketplace.Adapter, error) {
	return marketplace.ForPlatform(db, account.Platform, marketplaceMode())
}

// ExchangeCode runs the platform token exchange for a freshly connected
// account and persists the merged credential set.
func ExchangeCode(ctx context.Context, db *gorm.DB, channelID uint, code string, ids marketplace.Identifiers) error {
	account, err := GetAccount(db, channelID)
	if err != nil {
		return err
	}
	adapter, err := AdapterFor(db, account)
	if err != nil {
		return err
	}

	set, err := adapter.ExchangeToken(ctx, code, ids)
	if err != nil {
		return err
	}

	patch := tokenPatch(set)
	if ids.ShopID != 0 {
		patch["shop_id"] = ids.ShopID
	}
	if ids.MerchantID != 0 {
		patch["merchant_id"] = ids.MerchantID
	}
	if ids.SellerID != "" {
		patch["seller_id"] = ids.SellerID
	}
	return SaveCredentials(db, channelID, patch)
}

// Refresh performs a platform token refresh and persists the result.
// On rejection the stored credentials stay untouched and the raw platform
// payload travels up as a RefreshFailed error.
func Refresh(ctx context.Context, db *gorm.DB, channelID uint) (marketplace.TokenSet, error) {
	account, err := GetAccount(db, channelID)
	if err != nil {
		return marketplace.TokenSet{}, err
	}
	adapter, err := AdapterFor(db, account)
	if err != nil {
		return marketplace.TokenSet{}, err
	}
	creds, err := DecodeCredentials(account)
	if err != nil {
		return marketplace.TokenSet{}, err
	}

	set, err := adapter.RefreshToken(ctx, creds.RefreshToken, creds.Identifiers)
	if err != nil {
		if ae, ok := err.(*apperr.Error); ok && ae.Kind == apperr.KindPlatformAPI {
			return marketplace.TokenSet{},
				apperr.New(apperr.KindRefreshFailed, "token refresh rejected for channel %d", channelID).
					WithPayload(ae.Payload)
		}
		return marketplace.TokenSet{}, err
	}
	if err := SaveCredentials(db, channelID, tokenPatch(set)); err != nil {
		return marketplace.TokenSet{}, err
	}
	return set, nil
}

func usable(creds Credentials) bool {
	return creds.AccessToken != "" &&
		creds.ExpireAt >= time.Now().Add(refreshWindow).Unix()
}

// EnsureValid returns an access token guaranteed to outlive the refresh
// window, refreshing first when needed. Refreshes for one channel are
// serialized: always by an in-process mutex, and additionally by a Redis
// lock when Redis is configured so two replicas cannot refresh at once.
// After acquiring the lock the credentials are re-read; if a concurrent
// caller already refreshed, that token is reused.
func EnsureValid(ctx context.Context, db *gorm.DB, channelID uint) (string, error) {
	account, err := GetAccount(db, channelID)
	if err != nil {
		return "", err
	}
	creds, err := DecodeCredentials(account)
	if err != nil {
		return "", err
	}
	if usable(creds) {
		return creds.AccessToken, nil
	}

	mu := lockFor(channelID)
	mu.Lock()
	defer mu.Unlock()

	if config.RedisClient != nil {
		locker := redislock.New(config.RedisClient)
		lock, err := locker.Obtain(ctx, lockKey(channelID), 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(200 * time.Millisecond),
		})
		if err == nil {
			defer lock.Release(ctx)
		}
		// Lock acquisition failure falls through to the local mutex path;
		// worst case two replicas refresh and last write wins.
	}

	// Re-read: another caller may have refreshed while we waited.
	account, err = GetAccount(db, channelID)
	if err != nil {
		return "", err
	}
	creds, err = DecodeCredentials(account)
	if err != nil {
		return "", err
	}
	if usable(creds) {
		return creds.AccessToken, nil
	}

	set, err := Refresh(ctx, db, channelID)
	if err != nil {
		return "", err
	}
	return set.AccessToken, nil
}

func lockKey(channelID uint) string {
	return fmt.Sprintf("channel:refresh:%d", channelID)
}
