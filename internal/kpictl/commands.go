package kpictl

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/ranking"
	"github.com/okian/kpiboard/internal/domain/scoring"
	"github.com/okian/kpiboard/internal/domain/types"
	"github.com/okian/kpiboard/pkg/logger"
)

// NewRootCommand builds the kpictl command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	cfg := &Config{}

	root := &cobra.Command{
		Use:   "kpictl",
		Short: "Query and exercise the KPI ranking service",
		Long: `kpictl reads leaderboards and personal ranks from a running KPI ranking
service, requests snapshot refreshes and scores ad-hoc metric sets.

Examples:
  # Top 10 of the whole company
  kpictl leaderboard --limit 10

  # Where does e42 stand among the sales staff of group g1?
  kpictl rank e42 --group g1 --role staff

  # Score a metric set without a server
  kpictl score --sales 800 --sales-target 1000 --attendance 20`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			level := "warn"
			if cfg.Verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "server", defaultBaseURL, "Base URL of the service")
	flags.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newLeaderboardCommand(cfg),
		newRankCommand(cfg),
		newScoreCommand(cfg),
		newRefreshCommand(cfg),
		newVerifyCommand(cfg),
	)
	return root
}

// Execute runs kpictl against os.Args and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func addScopeFlags(cmd *cobra.Command, scope *ranking.Scope) {
	cmd.Flags().StringVar(&scope.GroupID, "group", "", "Restrict to one group")
	cmd.Flags().StringVar(&scope.Role, "role", "", "Restrict to one role")
}

func newLeaderboardCommand(cfg *Config) *cobra.Command {
	var (
		scope ranking.Scope
		limit int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the ranked leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := timed(cmd.Context(), "leaderboard", func(ctx context.Context) ([]types.Entry, error) {
				return NewClient(*cfg).Leaderboard(ctx, limit, scope)
			})
			if err != nil {
				return err
			}
			if err := printEntries(cmd.OutOrStdout(), entries); err != nil {
				return err
			}
			if cfg.Verbose {
				printSummary(cmd.OutOrStdout(), Summarize(entries))
			}
			return nil
		},
	}
	addScopeFlags(cmd, &scope)
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "Maximum entries (0 lets the server decide)")
	return cmd
}

func newRankCommand(cfg *Config) *cobra.Command {
	var scope ranking.Scope
	cmd := &cobra.Command{
		Use:   "rank EMPLOYEE_ID",
		Short: "Print one employee's rank and breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := timed(cmd.Context(), "rank", func(ctx context.Context) (types.Entry, error) {
				return NewClient(*cfg).Rank(ctx, args[0], scope)
			})
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), []types.Entry{entry})
		},
	}
	addScopeFlags(cmd, &scope)
	return cmd
}

func newScoreCommand(cfg *Config) *cobra.Command {
	var (
		in     scoring.Input
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a metric set locally or on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !remote {
				r := scoring.Compute(in)
				return printBreakdown(cmd.OutOrStdout(), types.Breakdown{
					SalesPct:      r.SalesPct,
					CommissionPct: r.CommissionPct,
					AttendancePct: r.AttendancePct,
					Weighted:      r.Weighted,
					Score:         r.Score,
				})
			}
			b, err := timed(cmd.Context(), "score", func(ctx context.Context) (types.Breakdown, error) {
				return NewClient(*cfg).Score(ctx, in)
			})
			if err != nil {
				return err
			}
			return printBreakdown(cmd.OutOrStdout(), b)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.SalesActual, "sales", 0, "Sales actual")
	f.Float64Var(&in.SalesTarget, "sales-target", 0, "Sales target")
	f.Float64Var(&in.CommissionActual, "commission", 0, "Commission actual")
	f.Float64Var(&in.CommissionTarget, "commission-target", 0, "Commission target")
	f.Float64Var(&in.AttendanceActual, "attendance", 0, "Days attended")
	f.Float64Var(&in.AttendanceTarget, "attendance-target", model.DefaultAttendanceTarget, "Working days in the period")
	f.BoolVar(&remote, "remote", false, "Score on the server instead of locally")
	return cmd
}

func newRefreshCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the service to rebuild its snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := timed(cmd.Context(), "refresh", func(ctx context.Context) (struct{}, error) {
				return struct{}{}, NewClient(*cfg).Refresh(ctx)
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "refresh accepted")
			return nil
		},
	}
}

func newVerifyCommand(cfg *Config) *cobra.Command {
	var scope ranking.Scope
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the full leaderboard for ordering and score consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := timed(cmd.Context(), "verify", func(ctx context.Context) ([]types.Entry, error) {
				return NewClient(*cfg).Leaderboard(ctx, 0, scope)
			})
			if err != nil {
				return err
			}
			if err := Verify(entries); err != nil {
				return err
			}
			top := entries
			if len(top) > topPerformers {
				top = top[:topPerformers]
			}
			if err := printEntries(cmd.OutOrStdout(), top); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), Summarize(entries))
			fmt.Fprintln(cmd.OutOrStdout(), "leaderboard consistent")
			return nil
		},
	}
	addScopeFlags(cmd, &scope)
	return cmd
}

// timed runs fn and logs its latency at debug level.
func timed[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	v, err := fn(ctx)
	log := logger.Get().Named("kpictl")
	if err != nil {
		log.Debug(ctx, "request failed", logger.String("op", op), logger.Error(err))
		return v, err
	}
	log.Debug(ctx, "request done", logger.String("op", op), logger.Duration("elapsed", time.Since(start)))
	return v, nil
}
