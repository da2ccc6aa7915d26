package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/perspectai/perspectai/internal/model"
	"github.com/perspectai/perspectai/internal/validate"
)

var (
	verifyNoCache     bool
	verifyForceSearch bool
	validateSources   bool
	verifyTimeout     time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim and print the structured result",
	Long: `Verify runs one claim through the full pipeline: intent
classification, cache lookup, grounded web search, verdict synthesis,
and credibility scoring. The structured result is printed as JSON.

Example:
  perspectai verify "the earth is flat"
  perspectai verify "the earth is flat" --no-cache --force-search
  perspectai verify "the earth is flat" --validate-sources`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyNoCache, "no-cache", false, "bypass the vector cache entirely")
	verifyCmd.Flags().BoolVar(&verifyForceSearch, "force-search", false, "always run a fresh web search, even on a cache hit")
	verifyCmd.Flags().BoolVar(&validateSources, "validate-sources", false, "check that cited sources are accessible")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	query := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	verifier, _, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", query)
	}

	start := time.Now()
	resp, err := verifier.ProcessRequest(ctx, model.QueryRequest{
		Query:            query,
		UseVectorDB:      !verifyNoCache,
		RequireWebSearch: verifyForceSearch,
	})
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	resp.ProcessingTimeMS = time.Since(start).Milliseconds()

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	if validateSources && len(resp.Sources) > 0 {
		if verbose {
			fmt.Fprintf(os.Stderr, "Validating %d sources...\n", len(resp.Sources))
		}

		validator := validate.NewSourceValidator(cfg.Validation)
		statuses := validator.Validate(ctx, resp.Sources)

		fmt.Fprintln(os.Stderr)
		for _, status := range statuses {
			mark := "✓"
			detail := fmt.Sprintf("HTTP %d", status.StatusCode)
			switch {
			case status.RobotsBlocked:
				mark = "✗"
				detail = "blocked by robots.txt"
			case !status.IsAccessible:
				mark = "✗"
				if status.Error != "" {
					detail = status.Error
				}
			}
			fmt.Fprintf(os.Stderr, "%s %s (%s)\n", mark, status.URL, detail)
		}
	}

	return nil
}
