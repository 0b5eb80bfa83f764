package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dealhound/internal/cli"
	"dealhound/internal/engine"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Match current deals against preferences",
		Long: `Match the current deal list against stored preferences.

By default the most recent deal snapshot is reused when it is fresh enough;
otherwise a new extraction is performed first.

Examples:
  dealhound run --user ana@example.com    # Match one user
  dealhound run --all-users               # Match everyone with preferences
  dealhound run --all-users --force-refresh
  dealhound run --user ana@example.com --deals-file deals.json --dry-run`,
		RunE: runMatch,
	}

	// Flags
	cmd.Flags().StringP("user", "u", "", "Match a single user")
	cmd.Flags().BoolP("all-users", "a", false, "Match every user with stored preferences")
	cmd.Flags().BoolP("force-refresh", "f", false, "Ignore the cached snapshot and re-extract")
	cmd.Flags().Bool("dry-run", false, "Preview matches without saving or sending digests")
	cmd.Flags().String("deals-file", "", "Read deals from a JSON file instead of the extraction service")

	_ = viper.BindPFlag("run.force_refresh", cmd.Flags().Lookup("force-refresh"))
	_ = viper.BindPFlag("run.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	user, _ := cmd.Flags().GetString("user")
	allUsers, _ := cmd.Flags().GetBool("all-users")
	dealsFile, _ := cmd.Flags().GetString("deals-file")
	forceRefresh := viper.GetBool("run.force_refresh")
	dryRun := viper.GetBool("run.dry_run")

	if user == "" && !allUsers {
		return fmt.Errorf("specify --user or --all-users")
	}
	if user != "" && allUsers {
		return fmt.Errorf("--user and --all-users are mutually exclusive")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	gateway, err := newGateway(slog.Default())
	if err != nil {
		return err
	}

	extractor, err := newExtractor(dealsFile)
	if err != nil {
		return err
	}

	notifier, err := newNotifier()
	if err != nil {
		return err
	}
	if notifier == nil && !dryRun {
		slog.Info("no notify.api_key configured, digests disabled")
	}

	// The bar is created on the first callback, once the batch count is known.
	var (
		barOnce sync.Once
		bar     *progressbar.ProgressBar
	)
	onBatchDone := func(completed, total int) {
		barOnce.Do(func() { bar = cli.NewBatchProgress(os.Stderr, total) })
		_ = bar.Set(completed)
	}

	matcher := engine.NewMatcher(engine.MatcherConfig{
		Storage:     store,
		Extractor:   extractor,
		Classifier:  gateway,
		Notifier:    notifier,
		OnBatchDone: onBatchDone,
		BatchSize:   viper.GetInt("matching.batch_size"),
		Concurrency: viper.GetInt("matching.concurrency"),
		CacheTTL:    time.Duration(viper.GetInt("cache.ttl_hours")) * time.Hour,
		DryRun:      dryRun,
	})

	if allUsers {
		summaries, err := matcher.RunAll(ctx, forceRefresh)
		if err != nil {
			return err
		}
		finishBar(bar)
		for _, summary := range summaries {
			fmt.Println(cli.RenderRunSummary(summary))
		}
		return nil
	}

	var summary *engine.RunSummary
	if forceRefresh {
		summary, err = matcher.RunFresh(ctx, user)
	} else {
		summary, err = matcher.Run(ctx, user)
	}
	finishBar(bar)
	if summary != nil {
		fmt.Println(cli.RenderRunSummary(summary))
	}
	return err
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}
