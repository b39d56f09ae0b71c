package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/example/wordquest/internal/account"
	"github.com/example/wordquest/internal/bot"
	"github.com/example/wordquest/internal/clock"
	"github.com/example/wordquest/internal/config"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/excel"
	"github.com/example/wordquest/internal/game"
	"github.com/example/wordquest/internal/progression"
	"github.com/example/wordquest/internal/scheduler"
	"github.com/example/wordquest/pkg/models"
)

// app is everything a command needs, built from the loaded config.
type app struct {
	cfg      config.Config
	store    *database.Store
	policy   *progression.Policy
	accounts *account.Service
	games    *game.Orchestrator
	loc      *time.Location
}

func newRootCmd() *cobra.Command {
	var envFile string
	var cfg config.Config

	root := &cobra.Command{
		Use:           "wordquest",
		Short:         "Word-guessing game with levels, lives and coins",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(envFile); err != nil {
				return err
			}
			zerolog.SetGlobalLevel(cfg.Level())
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
				With().Timestamp().Logger()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")

	root.AddCommand(
		newBotCmd(&cfg),
		newMigrateCmd(&cfg),
		newImportCmd(&cfg),
		newLevelsCmd(&cfg),
	)
	return root
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := database.Open(ctx, database.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, Logger: log.Logger})
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	policy := progression.NewPolicy(store, clk, progression.Config{
		MaxLevel:      cfg.MaxLevel,
		MaxLives:      cfg.MaxLives,
		CoinsPerScore: cfg.CoinsPerScore,
		Location:      loc,
		Prices: progression.Prices{
			models.ItemLife:         cfg.PriceLife,
			models.ItemRevealLetter: cfg.PriceRevealLetter,
			models.ItemSkipWord:     cfg.PriceSkipWord,
		},
	}, log.Logger)

	accounts := account.NewService(store, func() models.Starter {
		return policy.Starter(cfg.StartingCoins, cfg.StartingLives, cfg.SeedRevealLetter, cfg.SeedSkipWord)
	}, log.Logger)

	games := game.New(store, policy, game.Options{MaxAttempts: cfg.MaxAttempts, Clock: clk, Logger: log.Logger})

	return &app{cfg: cfg, store: store, policy: policy, accounts: accounts, games: games, loc: loc}, nil
}

func (a *app) importWords(ctx context.Context, path string) error {
	res, err := excel.ImportWords(ctx, a.store, excel.DefaultImportConfig(path))
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Int("processed", res.TotalProcessed).
		Int("created", res.Created).Int("skipped", res.Skipped).Msg("corpus imported")
	return nil
}

func newBotCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the life refill timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, *cfg)
			if err != nil {
				return err
			}
			defer a.store.Close()

			if a.cfg.WordsFile != "" {
				if err := a.importWords(ctx, a.cfg.WordsFile); err != nil {
					return err
				}
			}
			if n, err := a.store.CountWords(ctx, 0); err != nil {
				return err
			} else if n == 0 {
				log.Warn().Msg("word corpus is empty; run `wordquest import <file>`")
			}

			sched := scheduler.New(a.policy, a.cfg.RefillTick, a.loc, log.Logger)
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()

			b := bot.New(a.cfg.TelegramToken, bot.Deps{
				Accounts: a.accounts,
				Policy:   a.policy,
				Games:    a.games,
				Store:    a.store,
				Logger:   log.Logger,
			}, nil)

			log.Info().Msg("bot started, press Ctrl+C to stop")
			err = b.Start(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if stopErr := b.Stop(shutdownCtx); stopErr != nil {
				log.Error().Err(stopErr).Msg("error during shutdown")
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema to the latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := database.Open(cmd.Context(), database.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, Logger: log.Logger})
			if err != nil {
				return err
			}
			defer store.Close()

			v, err := store.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema version %d\n", store.Driver(), v)
			return nil
		},
	}
}

func newImportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Seed the word corpus from an .xlsx, .csv or .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.store.Close()
			return a.importWords(cmd.Context(), args[0])
		},
	}
}

func newLevelsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "levels <user id>",
		Short: "Print a player's level statuses and wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.store.Close()

			statuses, err := a.policy.ListLevelStatuses(cmd.Context(), userID)
			if err != nil {
				return err
			}
			w, err := a.store.Wallet(cmd.Context(), userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "coins %d  lives %d  reveal-letter %d  skip-word %d\n",
				w.Coins, w.Lives, w.Tools.RevealLetter, w.Tools.SkipWord)
			for _, s := range statuses {
				fmt.Fprintf(out, "%4d  %-9s  %3d  %4ds\n", s.Level, s.Status, s.Score, s.ElapsedSecs)
			}
			return nil
		},
	}
}
