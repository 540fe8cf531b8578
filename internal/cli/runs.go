package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

var (
	runsLimit int
	runsJSON  bool
	runsXLSX  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent generation runs from the journal",
	Long: `List the most recent runs recorded in the run journal (DB_URL), newest first.
Use --json for machine readable output or --xlsx to export a spreadsheet.`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "print runs as JSON")
	runsCmd.Flags().StringVar(&runsXLSX, "xlsx", "", "write the runs to this spreadsheet instead of printing")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, runs, err := openJournal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("no run journal configured; set DB_URL")
	}
	defer repository.Close(db, logger)

	if runsXLSX != "" {
		b, err := export.NewService(runs, logger).RunsXLSX(ctx, runsLimit)
		if err != nil {
			return err
		}
		if err := writeOutput(nil, runsXLSX, b); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", runsXLSX)
		return nil
	}

	list, err := runs.ListRecent(ctx, runsLimit)
	if err != nil {
		return err
	}

	if runsJSON {
		b, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("encode runs: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}

	if len(list) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSTATUS\tQUESTIONS\tMODEL\tELAPSED\tSOURCE")
	for _, r := range list {
		model := "-"
		if r.Model != nil {
			model = *r.Model
		}
		status := string(r.Status)
		if r.ErrorKind != nil {
			status += " (" + *r.ErrorKind + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			r.Questions, r.QuestionCount,
			model,
			(time.Duration(r.ElapsedMS) * time.Millisecond).String(),
			r.SourceRef,
		)
	}
	return tw.Flush()
}
