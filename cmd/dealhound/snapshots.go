package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dealhound/internal/cli"
	"dealhound/internal/common"
	"dealhound/internal/engine"
)

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect the deal snapshot cache",
	}

	cmd.AddCommand(snapshotsStatusCmd())

	return cmd
}

func snapshotsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the latest snapshot and whether it would be reused",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snapshot, err := store.GetLatestSuccessfulSnapshot(ctx)
			if errors.Is(err, common.ErrNotFound) {
				fmt.Println(cli.WarningStyle.Render("No successful extraction yet; the next run will extract."))
				return nil
			}
			if err != nil {
				return err
			}

			ttl := time.Duration(viper.GetInt("cache.ttl_hours")) * time.Hour
			if ttl <= 0 {
				ttl = engine.DefaultCacheTTL
			}
			age := snapshot.Age(time.Now())

			fmt.Println(cli.TitleStyle.Render("Latest snapshot"))
			fmt.Printf("  ID:        %d\n", snapshot.ID)
			fmt.Printf("  Fetched:   %s (%s ago)\n",
				snapshot.FetchedAt.Format(time.RFC3339), age.Round(time.Minute))
			fmt.Printf("  Deals:     %d\n", len(snapshot.Deals))

			if age > ttl {
				fmt.Println(cli.WarningStyle.Render(
					fmt.Sprintf("  Stale: older than the %s reuse window; the next run will re-extract.", ttl)))
			} else {
				fmt.Println(cli.SuccessStyle.Render(
					fmt.Sprintf("  Fresh: within the %s reuse window.", ttl)))
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.SuccessStyle.Render("Database is up to date."))
			return nil
		},
	}
}
