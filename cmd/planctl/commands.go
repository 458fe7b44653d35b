package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-planner/internal/calendar"
	"github.com/p-n-ai/pai-planner/internal/curriculum"
	"github.com/p-n-ai/pai-planner/internal/graph"
	"github.com/p-n-ai/pai-planner/internal/planner"
	"github.com/p-n-ai/pai-planner/internal/platform/config"
	"github.com/p-n-ai/pai-planner/internal/platform/database"
	"github.com/p-n-ai/pai-planner/internal/platform/logging"
)

const (
	formatJSON = "json"
	formatXLSX = "xlsx"
)

type rootOptions struct {
	curriculumDir string
	logLevel      string
	now           func() time.Time
}

func newRootCmd() *cobra.Command {
	// Environment settings become flag defaults.
	cfg, _ := config.Load()

	opts := &rootOptions{now: time.Now}
	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Generate and check study plans from a curriculum directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(opts.logLevel, "text", cmd.ErrOrStderr()))
		},
	}
	root.PersistentFlags().StringVar(&opts.curriculumDir, "curriculum", cfg.Curriculum.Path, "curriculum YAML directory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPlanCmd(opts, cfg.Planner),
		newValidateCmd(opts),
		newImportCmd(opts, cfg.Database),
	)
	return root
}

func newPlanCmd(opts *rootOptions, defaults config.PlannerConfig) *cobra.Command {
	var (
		from, to, startTime string
		format, out         string
		horizon             int
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a plan for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatXLSX {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatXLSX)
			}

			loader, err := curriculum.NewLoader(opts.curriculumDir)
			if err != nil {
				return err
			}
			svc, err := planner.NewService(planner.ServiceConfig{Store: loader})
			if err != nil {
				return err
			}

			req := planner.Request{From: from, To: to, StartTime: startTime}
			if req.From == "" {
				req.From = opts.now().Format(calendar.DateLayout)
			}
			if req.To == "" {
				if d, err := calendar.ParseDate(req.From); err == nil {
					req.To = d.AddDate(0, 0, horizon-1).Format(calendar.DateLayout)
				}
			}

			res, err := svc.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if format == formatXLSX {
				return planner.WriteXLSX(w, res.Rows)
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD, default from + horizon - 1)")
	cmd.Flags().StringVar(&startTime, "start-time", defaults.StartTime, "earliest start on the first date (HH:MM)")
	cmd.Flags().IntVar(&horizon, "horizon", defaults.HorizonDays, "days to plan when --to is omitted")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format (json or xlsx)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a curriculum directory and report what the planner would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := curriculum.NewLoader(opts.curriculumDir)
			if err != nil {
				return err
			}
			snap, err := loader.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if err := curriculum.Validate(snap); err != nil {
				return err
			}
			if _, err := calendar.ParsePattern(snap.Weekly, snap.Overrides); err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), loader.Files(), snap, graph.Build(snap).Stats())
		},
	}
}

func writeReport(w io.Writer, files int, snap *curriculum.Snapshot, st graph.Stats) error {
	_, err := fmt.Fprintf(w,
		"files: %d\nexams: %d\nsubjects: %d\ntopics: %d\nmaterials: %d\nweekly windows: %d\ndate overrides: %d\ndropped records: %d\n",
		files, st.Exams, st.Subjects, st.Topics, st.Materials, len(snap.Weekly), len(snap.Overrides), st.Dropped)
	return err
}

func newImportCmd(opts *rootOptions, db config.DatabaseConfig) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the curriculum stored in PostgreSQL with a YAML directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := curriculum.NewLoader(opts.curriculumDir)
			if err != nil {
				return err
			}
			snap, err := loader.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if err := curriculum.Validate(snap); err != nil {
				return err
			}

			conn, err := database.New(cmd.Context(), url, db.MaxConns, db.MinConns)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Migrate(cmd.Context()); err != nil {
				return err
			}
			store, err := curriculum.NewPostgresStore(conn.Pool)
			if err != nil {
				return err
			}
			if err := store.Import(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d exams, %d topics, %d materials\n",
				len(snap.Exams), len(snap.Topics), len(snap.Inputs)+len(snap.Outputs))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "database-url", db.URL, "PostgreSQL connection URL")
	return cmd
}
