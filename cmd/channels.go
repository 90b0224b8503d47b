package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ballstore.GO/config"
	channelService "ballstore.GO/service/channel"
)

var (
	syncChannelID uint
	syncDays      int
	syncPush      bool
)

var channelsSyncCmd = &cobra.Command{
	Use:   "channels:sync",
	Short: "Import marketplace orders (and optionally push stock) for one or all channels",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		var ids []uint
		if syncChannelID > 0 {
			ids = []uint{syncChannelID}
		} else {
			accounts, err := channelService.ActiveMarketplaceAccounts(db)
			if err != nil {
				fmt.Printf("Listing accounts failed: %v\n", err)
				return
			}
			for _, a := range accounts {
				ids = append(ids, a.ID)
			}
		}

		for _, id := range ids {
			res, err := channelService.ImportOrders(ctx, db, 0, id, syncDays)
			if err != nil {
				fmt.Printf("channel %d: import failed: %v\n", id, err)
				continue
			}
			fmt.Printf("channel %d: imported=%d skipped=%d errors=%d\n", id, res.Imported, res.Skipped, len(res.Errors))
			for _, e := range res.Errors {
				fmt.Printf("  [warn] %s\n", e)
			}
			if syncPush {
				if err := channelService.PushStock(ctx, db, id, nil); err != nil {
					fmt.Printf("channel %d: stock push failed: %v\n", id, err)
					continue
				}
				fmt.Printf("channel %d: stock pushed\n", id)
			}
		}
	},
}

func init() {
	channelsSyncCmd.Flags().UintVarP(&syncChannelID, "channel", "c", 0, "Sync a single channel account by id")
	channelsSyncCmd.Flags().IntVarP(&syncDays, "days", "d", 3, "How many days of orders to import")
	channelsSyncCmd.Flags().BoolVarP(&syncPush, "push", "p", false, "Also push stock levels after importing")
	rootCmd.AddCommand(channelsSyncCmd)
}
