package config

import (
	"os"
	"strings"
	"sync"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName    string
	Port       string
	Env        string
	Debug      bool
	WebBaseURL string

	// MarketplaceMode is "mock" or "live". Mock mode never calls out.
	MarketplaceMode string

	// AllowSellSorted lifts the block on selling ball-derived products
	// through the manual transaction path.
	AllowSellSorted bool
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() {
	once.Do(func() {
		AppConfig = &Config{
			AppName:         os.Getenv("APP_NAME"),
			Port:            os.Getenv("PORT"),
			Env:             os.Getenv("APP_ENV"),
			Debug:           os.Getenv("DEBUG") == "true",
			WebBaseURL:      envOr("WEB_BASE_URL", "http://localhost:3000"),
			MarketplaceMode: envOr("MARKETPLACE_MODE", "mock"),
			AllowSellSorted: strings.EqualFold(os.Getenv("ALLOW_SELL_SORTED_PRODUCTS"), "true"),
		}
	})
}

// ResetAppConfigForTesting clears the singleton so tests can reload it.
func ResetAppConfigForTesting() {
	AppConfig = nil
	once = sync.Once{}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
