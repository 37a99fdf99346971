package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Steap/liquipedia-scripts/internal/app"
	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/esl"
	"github.com/Steap/liquipedia-scripts/internal/fetcher"
	"github.com/Steap/liquipedia-scripts/internal/liquipedia"
	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
	"github.com/Steap/liquipedia-scripts/internal/projector"
	"github.com/Steap/liquipedia-scripts/internal/storage"
)

var (
	configPath   string
	dryRun       bool
	pageTemplate string
	watch        bool
	strict       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lp-ept-cups",
		Short:         "Keep Liquipedia ESL Open Cup pages in sync with ESL Play",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the config file")
	root.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "print the new wikitext instead of editing the wiki")
	root.PersistentFlags().StringVarP(&pageTemplate, "page-template", "p", "", "override the cup page name template")

	root.AddCommand(newParticipantsCmd())
	root.AddCommand(newResultsCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newPlayersCmd())
	return root
}

// loadApp loads .env, the config and the logger shared by every command.
func loadApp() (*config.Config, *observability.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if pageTemplate != "" {
		cfg.Liquipedia.PageTemplate = pageTemplate
	}
	return cfg, observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel), nil
}

func parseCupArgs(args []string) (esl.Region, int, error) {
	region, err := esl.ParseRegion(args[0])
	if err != nil {
		return "", 0, err
	}
	edition, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("invalid cup edition %q", args[1])
	}
	return region, edition, nil
}

// runCupUpdate wires the shared pipeline of the participants and results
// commands; update does the section-specific part.
func runCupUpdate(args []string, update func(context.Context, *app.Updater, *esl.Cup) error) error {
	region, edition, err := parseCupArgs(args)
	if err != nil {
		return err
	}

	cfg, logger, err := loadApp()
	if err != nil {
		return err
	}

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	f := fetcher.NewFetcher(cfg, logger)
	client := liquipedia.NewClient(cfg, f, logger)

	if !dryRun {
		username, password, err := liquipedia.CredentialsFromEnv()
		if err != nil {
			return err
		}
		if err := client.Login(ctx, username, password); err != nil {
			return err
		}
	}

	repo, err := storage.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	rows, err := repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	known := players.NewRegistry(rows)

	updater := app.NewUpdater(cfg, logger, client, known, dryRun, os.Stdout)
	return updater.Run(ctx, watch, func(ctx context.Context) error {
		// A fresh Cup per run, so watch mode refetches.
		cup, err := esl.NewCup(cfg, f, logger, region, edition)
		if err != nil {
			return err
		}
		return update(ctx, updater, cup)
	})
}

func newParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants REGION EDITION",
		Short: "Update the participant table of a cup page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCupUpdate(args, func(ctx context.Context, u *app.Updater, cup *esl.Cup) error {
				return u.UpdateParticipants(ctx, cup)
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep updating on the configured interval")
	return cmd
}

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results REGION EDITION",
		Short: "Fill the bracket of a cup page from the ESL results",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCupUpdate(args, func(ctx context.Context, u *app.Updater, cup *esl.Cup) error {
				return u.UpdateResults(ctx, cup)
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep updating on the configured interval")
	return cmd
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project player-addition lines from stdin to registry CSV rows on stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			malformed := 0
			err := projector.Project(cmd.InOrStdin(), cmd.OutOrStdout(), func(e *projector.MalformedRecordError) {
				malformed++
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			})
			if err != nil {
				return err
			}
			if strict && malformed > 0 {
				return fmt.Errorf("%d malformed line(s)", malformed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any line is malformed")
	return cmd
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover URL",
		Short: "Extract the ESL league id from a cup page URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}

			ctx, cancel := app.GracefulShutdown(logger)
			defer cancel()

			id, err := esl.FetchLeagueID(ctx, fetcher.NewFetcher(cfg, logger), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Maintain the known-players registry",
	}
	cmd.AddCommand(newPlayersDupesCmd())
	cmd.AddCommand(newPlayersSortCmd())
	return cmd
}

func newPlayersDupesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dupes",
		Short: "List ESL ids stored more than once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}

			repo, err := storage.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			dupes, err := repo.DuplicateIDs(context.Background())
			if err != nil {
				return err
			}
			for _, id := range dupes {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			if len(dupes) > 0 {
				return fmt.Errorf("%d duplicate id(s)", len(dupes))
			}
			return nil
		},
	}
}

func newPlayersSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Sort the registry by notability, then name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}

			repo, err := storage.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := context.Background()
			rows, err := repo.SortedRows(ctx)
			if err != nil {
				return err
			}
			if err := repo.Rewrite(ctx, rows); err != nil {
				return err
			}
			logger.Info("Registry sorted", "rows", len(rows))
			return nil
		},
	}
}
