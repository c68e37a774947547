package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"talentmatch/internal/common"
	"talentmatch/internal/ingest"
	"talentmatch/internal/types"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Upload and ingest candidate resumes",
}

var (
	resumeUploadConfig  common.CommandConfig
	resumeListConfig    common.CommandConfig
	resumeProcessConfig common.CommandConfig
)

var resumeUploadCmd = &cobra.Command{
	Use:   "upload [job-id] [files...]",
	Short: "Copy resume files into a job's upload folder",
	Long: `Copy resume files into the upload folder of an existing job. Files
with an unsupported extension or over the size limit are reported as
errors; the rest are saved. Run "resume process" afterwards to ingest.`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: resolveFormat(&resumeUploadConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, paths := args[0], args[1:]
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, resumeUploadConfig,
				func(ctx context.Context) (*types.UploadResult, error) {
					if _, err := a.jobs.Get(ctx, jobID); err != nil {
						return nil, err
					}

					files, closeAll, err := common.NewFileProcessor(a.logger).OpenInputFiles(paths...)
					if err != nil {
						return nil, err
					}
					defer closeAll()

					uploads := make([]ingest.Upload, len(files))
					for i, f := range files {
						uploads[i] = ingest.Upload{Name: filepath.Base(f.Name()), Reader: f}
					}
					result := a.uploads.SaveBatch(jobID, uploads)
					return &result, nil
				},
				func(cfg common.CommandConfig) {
					a.logger.Info("Uploading resumes", "job_id", jobID, "files", len(paths))
				})
		})
	},
}

var resumeListCmd = &cobra.Command{
	Use:     "list [job-id]",
	Short:   "List uploaded resume files for a job",
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveFormat(&resumeListConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, resumeListConfig,
				func(ctx context.Context) ([]types.UploadedFile, error) {
					return a.uploads.List(args[0])
				}, nil)
		})
	},
}

var resumeDeleteCmd = &cobra.Command{
	Use:   "delete [job-id] [file-name]",
	Short: "Remove an uploaded resume file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.uploads.Delete(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from job %s\n", args[1], args[0])
			return nil
		})
	},
}

var resumeProcessCmd = &cobra.Command{
	Use:   "process [job-id]",
	Short: "Extract, summarize and store candidates from uploaded resumes",
	Long: `Ingest every uploaded resume for a job: extract text, parse
candidate profiles with the LLM, summarize and embed each one, and store
them as applied candidates of the job. Re-processing the same documents
replaces the earlier candidates instead of duplicating them.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveFormat(&resumeProcessConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return common.RunCommand(ctx, a.logger, resumeProcessConfig,
				func(ctx context.Context) (*types.IngestReport, error) {
					return a.ingest.Process(ctx, args[0])
				},
				func(cfg common.CommandConfig) {
					a.logger.Info("Processing resumes", "job_id", args[0])
				})
		})
	},
}

var resumeWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest resumes as they land in the upload folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.startWatcher(ctx)
			if err != nil {
				return err
			}
			defer w.Stop()

			<-ctx.Done()
			a.logger.Info("Stopping upload watcher")
			return nil
		})
	},
}

// startWatcher ingests a job's uploads once its folder settles.
func (a *app) startWatcher(ctx context.Context) (*ingest.Watcher, error) {
	w := ingest.NewWatcher(a.uploads, a.cfg.Ingest.WatchDebounce, func(jobID string) {
		report, err := a.ingest.Process(ctx, jobID)
		if err != nil {
			a.logger.LogError(err, "Automatic ingestion failed", "job_id", jobID)
			return
		}
		a.logger.Info("Automatic ingestion completed",
			"job_id", jobID,
			"inserted", len(report.Inserted),
			"replaced", report.Replaced,
			"errors", len(report.Errors))
	}, a.logger)

	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

func init() {
	addOutputFlags(resumeUploadCmd, &resumeUploadConfig)
	addOutputFlags(resumeListCmd, &resumeListConfig)
	addOutputFlags(resumeProcessCmd, &resumeProcessConfig)

	resumeCmd.AddCommand(resumeUploadCmd, resumeListCmd, resumeDeleteCmd, resumeProcessCmd, resumeWatchCmd)
}
