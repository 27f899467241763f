package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.MigrateUp(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations applied")
	return nil
}
