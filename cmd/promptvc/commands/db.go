package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptvc/promptvc/config"
	"github.com/promptvc/promptvc/db"
	"github.com/promptvc/promptvc/errors"
	"github.com/promptvc/promptvc/logger"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the promptvc database",
	Long: `db — Manage promptvc database operations

Examples:
  promptvc db migrate    # Apply pending schema migrations
  promptvc db stats      # Show prompt and version statistics`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  "Display prompt counts, version counts, and retention-relevant state (pinned and tagged versions)",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func openConfiguredDB() (*sql.DB, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to load configuration")
	}
	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, "", err
	}
	return database, cfg.Database.Path, nil
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	database, path, err := openConfiguredDB()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, logger.Logger); err != nil {
		return errors.Wrap(err, "migration failed")
	}
	fmt.Printf("Migrations applied (%s)\n", path)
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	database, path, err := openConfiguredDB()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, nil); err != nil {
		return errors.Wrap(err, "migration failed")
	}

	var prompts, versions, pinned, tagged int
	if err := database.QueryRow(`SELECT COUNT(*) FROM prompts`).Scan(&prompts); err != nil {
		return errors.Wrap(err, "failed to count prompts")
	}
	err = database.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(is_pinned), 0),
		       COUNT(tag_name)
		FROM prompt_versions`).Scan(&versions, &pinned, &tagged)
	if err != nil {
		return errors.Wrap(err, "failed to count versions")
	}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Database Path:   %s\n", path)
	fmt.Printf("Prompts:         %d\n", prompts)
	fmt.Printf("Versions:        %d\n", versions)
	fmt.Printf("Pinned Versions: %d\n", pinned)
	fmt.Printf("Tagged Versions: %d\n", tagged)
	return nil
}
