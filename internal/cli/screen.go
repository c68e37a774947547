package cli

import (
	"context"

	"talentmatch/internal/common"
	"talentmatch/internal/export"
	"talentmatch/internal/types"

	"github.com/spf13/cobra"
)

var (
	screenConfig  common.CommandConfig
	summaryConfig common.CommandConfig

	screenOpts struct {
		topK          int
		topKEvaluated int
		appliedOnly   bool
		maxAll        int
		xlsx          string
	}
)

var screenCmd = &cobra.Command{
	Use:   "screen [job-id]",
	Short: "Screen and rank candidates for a job",
	Long: `Retrieve the most relevant candidates for a job with hybrid vector
and keyword search, evaluate the top of the list with the LLM over five
weighted criteria, and print the ranked result.

By default both applied candidates and the wider talent pool are
searched. Use --applied-only to restrict to candidates who applied to
this job. Use --xlsx to also write the ranking as a spreadsheet.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveFormat(&screenConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := screeningRequestFromFlags(cmd, args[0])
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, screenConfig,
				func(ctx context.Context) (*types.ScreeningResponse, error) {
					resp, err := a.screening.Run(ctx, req)
					if err != nil {
						return nil, err
					}
					if screenOpts.xlsx != "" {
						path, err := export.SaveFile(resp, screenOpts.xlsx)
						if err != nil {
							return nil, err
						}
						a.logger.Info("Ranking exported", "path", path)
					}
					return resp, nil
				},
				func(cfg common.CommandConfig) {
					a.logger.Info("Screening candidates", "job_id", req.JobID, "output_format", cfg.OutputFormat)
				})
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:     "summary [job-id]",
	Short:   "Show screening funnel counts for a job",
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveFormat(&summaryConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, summaryConfig,
				func(ctx context.Context) (*types.ScreeningSummary, error) {
					return a.screening.Summary(ctx, args[0])
				}, nil)
		})
	},
}

// screeningRequestFromFlags sets only the options the user changed so the
// configured defaults apply to the rest.
func screeningRequestFromFlags(cmd *cobra.Command, jobID string) types.ScreeningRequest {
	req := types.ScreeningRequest{JobID: jobID}
	flags := cmd.Flags()
	if flags.Changed("top-k") {
		req.TopK = &screenOpts.topK
	}
	if flags.Changed("top-k-evaluated") {
		req.TopKEvaluated = &screenOpts.topKEvaluated
	}
	if flags.Changed("applied-only") {
		all := !screenOpts.appliedOnly
		req.SearchAllCandidates = &all
	}
	if flags.Changed("max-all") {
		req.MaxAllCandidatesLimit = &screenOpts.maxAll
	}
	return req
}

func init() {
	f := screenCmd.Flags()
	f.IntVar(&screenOpts.topK, "top-k", 0, "Candidates to retrieve (1-200)")
	f.IntVar(&screenOpts.topKEvaluated, "top-k-evaluated", 0, "Candidates to evaluate with the LLM (1-50)")
	f.BoolVar(&screenOpts.appliedOnly, "applied-only", false, "Only consider candidates who applied to this job")
	f.IntVar(&screenOpts.maxAll, "max-all", 0, "Cap on talent-pool candidates evaluated (1-50)")
	f.StringVar(&screenOpts.xlsx, "xlsx", "", "Also write the ranking to this .xlsx file")
	addOutputFlags(screenCmd, &screenConfig)

	addOutputFlags(summaryCmd, &summaryConfig)
}
