package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dealhound/internal/cli"
	"dealhound/internal/common"
	"dealhound/internal/model"
)

func preferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preferences",
		Aliases: []string{"prefs"},
		Short:   "Manage dietary preferences",
		Long: `Manage a user's dietary preferences.

Preferences starting with "no " are treated as exclusions; everything else
is an inclusion.

Examples:
  dealhound preferences add ana@example.com "no shellfish"
  dealhound preferences add ana@example.com "high protein snacks"
  dealhound preferences list ana@example.com
  dealhound preferences remove ana@example.com 3`,
	}

	cmd.AddCommand(preferencesAddCmd())
	cmd.AddCommand(preferencesListCmd())
	cmd.AddCommand(preferencesRemoveCmd())

	return cmd
}

func preferencesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user> <preference>",
		Short: "Add a preference for a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user := args[0]
			text := strings.Join(args[1:], " ")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pref, err := store.SavePreference(ctx, user, text)
			if errors.Is(err, common.ErrDuplicateEntry) {
				return fmt.Errorf("preference %q already exists for %s", text, user)
			}
			if err != nil {
				return err
			}

			term, polarity := model.ClassifyPreference(pref.Text)
			if polarity == model.PolarityExclude {
				fmt.Println(cli.SuccessStyle.Render(
					fmt.Sprintf("Added exclusion #%d: avoid %q", pref.ID, term)))
			} else {
				fmt.Println(cli.SuccessStyle.Render(
					fmt.Sprintf("Added inclusion #%d: look for %q", pref.ID, term)))
			}
			return nil
		},
	}
}

func preferencesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user>",
		Short: "List a user's preferences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			prefs, err := store.ListPreferences(ctx, user)
			if err != nil {
				return err
			}
			if len(prefs) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No preferences stored for " + user))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Preferences for " + user))
			for _, pref := range prefs {
				_, polarity := model.ClassifyPreference(pref.Text)
				tag := cli.SuccessStyle.Render("include")
				if polarity == model.PolarityExclude {
					tag = cli.ErrorStyle.Render("exclude")
				}
				fmt.Printf("  %3d  %s  %s\n", pref.ID, tag, pref.Text)
			}
			return nil
		},
	}
}

func preferencesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user> <id>",
		Short: "Remove a preference by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user := args[0]
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid preference id %q", args[1])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeletePreference(ctx, user, id); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("no preference #%d for %s", id, user)
				}
				return err
			}

			slog.Info("Removed preference", "user", user, "id", id)
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Removed preference #%d", id)))
			return nil
		},
	}
}
