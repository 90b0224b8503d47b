package jobs

import (
	"context"
	"log"
	"time"

	"ballstore.GO/config"
	"ballstore.GO/cron"
	channelService "ballstore.GO/service/channel"
)

func init() {
	cron.Register("marketplaceimport", "*/30 * * * *", MarketplaceImportJob)
	cron.Register("marketplacepush", "0 * * * *", MarketplacePushJob)
}

// MarketplaceImportJob pulls recent orders from every active marketplace
// account. One failing account never stops the others.
func MarketplaceImportJob(args ...string) {
	db, err := config.NewDB()
	if err != nil {
		log.Printf("marketplaceimport: database connection failed: %v", err)
		return
	}

	accounts, err := channelService.ActiveMarketplaceAccounts(db)
	if err != nil {
		log.Printf("marketplaceimport: listing accounts failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, account := range accounts {
		res, err := channelService.ImportOrders(ctx, db, 0, account.ID, 1)
		if err != nil {
			log.Printf("marketplaceimport: channel %d (%s): %v", account.ID, account.Platform, err)
			continue
		}
		log.Printf("marketplaceimport: channel %d (%s): imported=%d skipped=%d errors=%d",
			account.ID, account.Platform, res.Imported, res.Skipped, len(res.Errors))
	}
}

// MarketplacePushJob pushes current stock levels to every active
// marketplace account.
func MarketplacePushJob(args ...string) {
	db, err := config.NewDB()
	if err != nil {
		log.Printf("marketplacepush: database connection failed: %v", err)
		return
	}

	accounts, err := channelService.ActiveMarketplaceAccounts(db)
	if err != nil {
		log.Printf("marketplacepush: listing accounts failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, account := range accounts {
		if err := channelService.PushStock(ctx, db, account.ID, nil); err != nil {
			log.Printf("marketplacepush: channel %d (%s): %v", account.ID, account.Platform, err)
			continue
		}
		log.Printf("marketplacepush: channel %d (%s): done", account.ID, account.Platform)
	}
}
