package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate <response-file>",
	Short: "Repair and validate a saved model response",
	Long: `Run a raw model response through the same repair, parse and validation
steps used during generation and report what had to change. Use "-" for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail unless the response already matches the question schema")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	arr, err := llm.RepairAndParse(string(raw))
	if err != nil {
		return describeFailure(err)
	}
	questions, rep, err := llm.Normalize(arr, logger)
	if err != nil {
		return describeFailure(err)
	}

	mode := "strict"
	if !rep.Strict {
		mode = "repaired"
	}
	cmd.Printf("OK: %d questions (%s)\n", len(questions), mode)
	for _, d := range rep.Dropped {
		cmd.Printf("  dropped  %s\n", d)
	}
	for _, r := range rep.Repaired {
		cmd.Printf("  repaired %s\n", r)
	}

	if validateStrict && !rep.Strict {
		return fmt.Errorf("response does not match the question schema (%d dropped, %d repaired)", len(rep.Dropped), len(rep.Repaired))
	}
	return nil
}
