package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ballstore.GO/config"
	entity "ballstore.GO/model/entity"
)

var migrateCmd = &cobra.Command{
	Use:   "db:migrate",
	Short: "Create or update all database tables",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			return
		}
		if err := db.AutoMigrate(entity.All()...); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			return
		}
		fmt.Println("Migration complete.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
