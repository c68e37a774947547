package cli

import (
	"context"
	"fmt"

	"talentmatch/internal/common"
	"talentmatch/internal/types"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Generate, create and inspect job postings",
}

var (
	jobGenerateConfig common.CommandConfig
	jobCreateConfig   common.CommandConfig
	jobListConfig     common.CommandConfig
	jobGetConfig      common.CommandConfig

	jobRequest     types.JobRequest
	jobTitle       string
	jobDescription string
	jobDescFile    string
	jobListLimit   int
)

var jobGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a job description from hiring inputs",
	Long: `Draft a markdown job description (under 250 words) from the job
title, required skills, years of experience and optional extras. The
draft is printed, not stored; pass it to "job create" to index it.`,
	Args:    cobra.NoArgs,
	PreRunE: resolveFormat(&jobGenerateConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, jobGenerateConfig,
				func(ctx context.Context) (*types.GeneratedJob, error) {
					return a.jobs.Generate(ctx, jobRequest)
				},
				func(cfg common.CommandConfig) {
					a.logger.Info("Generating job description", "job_title", jobRequest.JobTitle, "output_format", cfg.OutputFormat)
				})
		})
	},
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store a job posting and embed its description",
	Long: `Store a job posting. The job ID is derived from the title and the
current UTC day, so creating the same title twice on one day replaces the
earlier posting.`,
	Args:    cobra.NoArgs,
	PreRunE: resolveFormat(&jobCreateConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := jobDescription
		if jobDescFile != "" {
			if description != "" {
				return fmt.Errorf("use either --description or --description-file, not both")
			}
			content, err := common.NewFileProcessor(getLoggerFromContext(cmd.Context())).ReadFile(jobDescFile)
			if err != nil {
				return err
			}
			description = content
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, jobCreateConfig,
				func(ctx context.Context) (*types.JobPosting, error) {
					return a.jobs.Create(ctx, types.CreateJobRequest{JobTitle: jobTitle, JobDescription: description})
				}, nil)
		})
	},
}

var jobListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List job postings, newest first",
	Args:    cobra.NoArgs,
	PreRunE: resolveFormat(&jobListConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, jobListConfig,
				func(ctx context.Context) ([]types.JobSummary, error) {
					return a.jobs.List(ctx, jobListLimit)
				}, nil)
		})
	},
}

var jobGetCmd = &cobra.Command{
	Use:     "get [job-id]",
	Short:   "Show one job posting",
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveFormat(&jobGetConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, jobGetConfig,
				func(ctx context.Context) (*types.JobPosting, error) {
					return a.jobs.Get(ctx, args[0])
				}, nil)
		})
	},
}

func init() {
	f := jobGenerateCmd.Flags()
	f.StringVar(&jobRequest.JobTitle, "title", "", "Job title (required)")
	f.StringVar(&jobRequest.RequiredSkills, "required-skills", "", "Required skills (required)")
	f.StringVar(&jobRequest.NiceToHaveSkills, "nice-to-have", "", "Nice-to-have skills")
	f.StringVar(&jobRequest.YearsExperience, "years", "", "Years of experience (required)")
	f.StringVar(&jobRequest.RelevantIndustryProjectExperience, "industry", "", "Relevant industry or project experience")
	f.StringVar(&jobRequest.EducationRequirement, "education", "", "Education requirement")
	f.StringVar(&jobRequest.Responsibilities, "responsibilities", "", "Key responsibilities")
	addOutputFlags(jobGenerateCmd, &jobGenerateConfig)

	jobCreateCmd.Flags().StringVar(&jobTitle, "title", "", "Job title (required)")
	jobCreateCmd.Flags().StringVar(&jobDescription, "description", "", "Job description text")
	jobCreateCmd.Flags().StringVar(&jobDescFile, "description-file", "", "Read the job description from a file")
	_ = jobCreateCmd.MarkFlagRequired("title")
	addOutputFlags(jobCreateCmd, &jobCreateConfig)

	jobListCmd.Flags().IntVar(&jobListLimit, "limit", types.DefaultListJobsLimit, "Maximum number of jobs (1-200)")
	addOutputFlags(jobListCmd, &jobListConfig)

	addOutputFlags(jobGetCmd, &jobGetConfig)

	jobCmd.AddCommand(jobGenerateCmd, jobCreateCmd, jobListCmd, jobGetCmd)
}
