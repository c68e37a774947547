package cli

import (
	"fmt"

	"talentmatch/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the Postgres schema: the pgvector extension, the jobs and
candidates tables, and their vector and full-text indexes. Safe to run
repeatedly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		if err := store.Migrate(cmd.Context(), cfg.Store); err != nil {
			return err
		}
		logger.Info("Database schema applied", "vector_dimension", cfg.Store.VectorDimension)
		fmt.Println("Schema is up to date.")
		return nil
	},
}
