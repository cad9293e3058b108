package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-grc/riskflow/internal/hitl"
	"github.com/meridian-grc/riskflow/internal/model"
)

var (
	reviewScenario     string
	reviewScenarioFile string
	reviewInput        string
	reviewAutoApprove  bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a single risk review request",
	Long:  "Processes one review request end to end and prints the result as JSON. The request comes from --input (a JSON file, or - for stdin) or from a named scenario.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := loadRequest()
		if err != nil {
			return err
		}

		var reviewer hitl.Reviewer
		if !reviewAutoApprove && stdinIsTerminal() && reviewInput != "-" {
			reviewer = hitl.NewTerminalReviewer(os.Stdin, os.Stderr)
		}

		env, err := initPipeline(ctx, reviewer)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.Run(ctx, req)

		zap.L().Info("review complete",
			zap.String("run_id", result.Audit.RunID),
			zap.String("status", string(result.Status)),
			zap.String("route", result.Audit.RouteTaken),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewScenario, "scenario", "", "name of a canned scenario to run")
	reviewCmd.Flags().StringVar(&reviewScenarioFile, "scenario-file", "", "YAML file of scenarios (default: builtin set)")
	reviewCmd.Flags().StringVar(&reviewInput, "input", "", "JSON request file, or - for stdin")
	reviewCmd.Flags().BoolVar(&reviewAutoApprove, "auto-approve", false, "resolve escalations without an interactive reviewer")
	rootCmd.AddCommand(reviewCmd)
}

// loadRequest resolves the request payload from --input or --scenario.
func loadRequest() (*model.ReviewRequest, error) {
	switch {
	case reviewInput != "" && reviewScenario != "":
		return nil, eris.New("--input and --scenario are mutually exclusive")
	case reviewInput != "":
		return readRequestJSON(reviewInput)
	case reviewScenario != "":
		scenarios := model.BuiltinScenarios()
		if reviewScenarioFile != "" {
			loaded, err := model.LoadScenarios(reviewScenarioFile)
			if err != nil {
				return nil, err
			}
			scenarios = loaded
		}
		sc, ok := model.FindScenario(scenarios, reviewScenario)
		if !ok {
			return nil, eris.Errorf("unknown scenario: %s (see 'riskflow scenarios')", reviewScenario)
		}
		return &sc.Request, nil
	default:
		return nil, eris.New("either --input or --scenario is required")
	}
}

// readRequestJSON decodes a single request from path, or stdin for "-".
func readRequestJSON(path string) (*model.ReviewRequest, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open request file")
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	var req model.ReviewRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, eris.Wrap(err, "decode request JSON")
	}
	return &req, nil
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
