package cli

import (
	"context"

	"talentmatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing job management, resume upload and
ingestion, and candidate screening.

Available endpoints:
- POST /screening/run: Screen and rank candidates for a job
- GET /screening/summary?job_id=: Screening funnel counts
- POST /jobs/generate, POST /jobs, GET /jobs, GET /jobs/{id}: Job postings
- POST /resumes/{job_id}/upload: Upload resumes (multipart "files")
- GET /resumes/{job_id}/uploads, DELETE /resumes/{job_id}/uploads/{name}
- POST /resumes/{job_id}/process: Ingest uploaded resumes
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Use --watch to ingest resumes dropped into the upload folder automatically.`,
	RunE: runServe,
}

var serveOpts struct {
	host  string
	port  string
	watch bool
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveOpts.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().BoolVar(&serveOpts.watch, "watch", false, "Watch the upload folder and ingest new resumes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	if serveOpts.port != "" {
		cfg.Server.Port = serveOpts.port
	}
	if serveOpts.host != "" {
		cfg.Server.Host = serveOpts.host
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if serveOpts.watch {
			w, err := a.startWatcher(ctx)
			if err != nil {
				return err
			}
			defer w.Stop()
		}

		srv := server.NewServer(server.ConfigFrom(cfg, Version), server.Services{
			Screening: a.screening,
			Jobs:      a.jobs,
			Ingest:    a.ingest,
			Uploads:   a.uploads,
			AI:        a.ai,
			Store:     a.store,
		}, a.logger)
		return srv.Start(ctx, a.om)
	})
}
